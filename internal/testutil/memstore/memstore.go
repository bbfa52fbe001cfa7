// Package memstore хранилище в памяти для тестов сервисов и use cases.
// Реализует репозитории расписаний, записей и бонусов, а также менеджер транзакций,
// который при ошибке откатывает все изменения к снимку на начало транзакции
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

type state struct {
	schedules    map[int64]domain.WorkSchedule // по specialistID
	appointments map[int64]domain.Appointment
	transactions map[int64]domain.BonusTransaction
	users        map[int64]domain.User
	nextID       int64
}

// Store общее состояние всех репозиториев
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state state

	failures map[string]error
	locks    []string
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		state: state{
			schedules:    map[int64]domain.WorkSchedule{},
			appointments: map[int64]domain.Appointment{},
			transactions: map[int64]domain.BonusTransaction{},
			users:        map[int64]domain.User{},
		},
		failures: map[string]error{},
	}
}

// FailOn заставляет операцию op (например "bonus.Create") вернуть err при следующем вызове
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// AddUser добавляет пользователя с пригласившим (может быть nil)
func (s *Store) AddUser(id int64, referredBy *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[id] = domain.User{ID: id, ReferredBy: referredBy}
}

// User текущий профиль пользователя (с кешированным балансом)
func (s *Store) User(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	return u, ok
}

// Appointments все записи, упорядоченные по ID
func (s *Store) Appointments() []domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Appointment, 0, len(s.state.appointments))
	for _, a := range s.state.appointments {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Transactions все операции журнала, упорядоченные по ID
func (s *Store) Transactions() []domain.BonusTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.BonusTransaction, 0, len(s.state.transactions))
	for _, tx := range s.state.transactions {
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Locks advisory блокировки, взятые за время жизни хранилища
func (s *Store) Locks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locks...)
}

// fail возвращает внедрённую ошибку операции (один раз)
// Вызывается под s.mu
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) newID() int64 {
	s.state.nextID++
	return s.state.nextID
}

func (s *Store) snapshot() state {
	snap := state{
		schedules:    make(map[int64]domain.WorkSchedule, len(s.state.schedules)),
		appointments: make(map[int64]domain.Appointment, len(s.state.appointments)),
		transactions: make(map[int64]domain.BonusTransaction, len(s.state.transactions)),
		users:        make(map[int64]domain.User, len(s.state.users)),
		nextID:       s.state.nextID,
	}
	for k, v := range s.state.schedules {
		snap.schedules[k] = cloneSchedule(v)
	}
	for k, v := range s.state.appointments {
		snap.appointments[k] = v
	}
	for k, v := range s.state.transactions {
		snap.transactions[k] = v
	}
	for k, v := range s.state.users {
		snap.users[k] = v
	}
	return snap
}

func cloneSchedule(s domain.WorkSchedule) domain.WorkSchedule {
	clone := s
	clone.WorkDays = make([]domain.WorkDay, len(s.WorkDays))
	for i, d := range s.WorkDays {
		d.LunchBreaks = append([]domain.LunchBreak(nil), d.LunchBreaks...)
		clone.WorkDays[i] = d
	}
	clone.Vacations = append([]domain.Vacation(nil), s.Vacations...)
	return clone
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// TxManager менеджер транзакций над Store
// Транзакции выполняются строго по одной, ошибка или паника откатывают состояние
type TxManager struct {
	store *Store
}

// NewTxManager создает менеджер транзакций
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	m.store.mu.Lock()
	snap := m.store.snapshot()
	m.store.mu.Unlock()

	rollback := func() {
		m.store.mu.Lock()
		m.store.state = snap
		m.store.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
		return err
	}

	return nil
}
