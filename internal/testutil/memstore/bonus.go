package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	bonusRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/bonus"
)

// BonusRepository репозиторий бонусного журнала в памяти
type BonusRepository struct {
	store *Store
}

// NewBonusRepository создает репозиторий бонусов
func NewBonusRepository(store *Store) *BonusRepository {
	return &BonusRepository{store: store}
}

func (r *BonusRepository) Create(_ context.Context, tx *domain.BonusTransaction) (*domain.BonusTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.store.state.users[tx.UserID]; !ok {
		return nil, bonusRepo.ErrUserNotFound
	}

	tx.ID = r.store.newID()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	r.store.state.transactions[tx.ID] = *tx

	copied := *tx
	return &copied, nil
}

func (r *BonusRepository) GetByID(_ context.Context, id int64) (*domain.BonusTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.GetByID"); err != nil {
		return nil, err
	}

	tx, ok := r.store.state.transactions[id]
	if !ok {
		return nil, bonusRepo.ErrTransactionNotFound
	}
	return &tx, nil
}

func (r *BonusRepository) List(_ context.Context, filter domain.BonusTransactionsFilter) ([]*domain.BonusTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.List"); err != nil {
		return nil, err
	}

	result := make([]*domain.BonusTransaction, 0)
	for _, tx := range r.store.state.transactions {
		if filter.UserID != nil && tx.UserID != *filter.UserID {
			continue
		}
		if filter.AppointmentID != nil && (tx.AppointmentID == nil || *tx.AppointmentID != *filter.AppointmentID) {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, tx.Type) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, tx.Status) {
			continue
		}
		copied := tx
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *BonusRepository) UpdateStatus(_ context.Context, id int64, status domain.BonusTransactionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.UpdateStatus"); err != nil {
		return err
	}

	tx, ok := r.store.state.transactions[id]
	if !ok {
		return bonusRepo.ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	r.store.state.transactions[id] = tx
	return nil
}

func (r *BonusRepository) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.GetUser"); err != nil {
		return nil, err
	}

	u, ok := r.store.state.users[userID]
	if !ok {
		return nil, bonusRepo.ErrUserNotFound
	}
	return &u, nil
}

func (r *BonusRepository) SumCompleted(_ context.Context, userID int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.SumCompleted"); err != nil {
		return 0, err
	}

	var sum int64
	for _, tx := range r.store.state.transactions {
		if tx.UserID == userID && tx.Status == domain.BonusCompleted {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (r *BonusRepository) SetCachedBalance(_ context.Context, userID int64, balance int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("bonus.SetCachedBalance"); err != nil {
		return err
	}

	u, ok := r.store.state.users[userID]
	if !ok {
		return bonusRepo.ErrUserNotFound
	}
	u.BonusBalance = balance
	r.store.state.users[userID] = u
	return nil
}

func containsType(types []domain.BonusTransactionType, t domain.BonusTransactionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.BonusTransactionStatus, s domain.BonusTransactionStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
