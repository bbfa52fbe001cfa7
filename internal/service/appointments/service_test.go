package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	"github.com/m04kA/SMC-WellnessBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/metrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

const (
	clientID   int64 = 10
	referrerID int64 = 20
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Dispatch(event notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// stuckRepository не даёт сменить статус выбранным записям
type stuckRepository struct {
	AppointmentRepository
	stuck map[int64]bool
}

func (r *stuckRepository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	if r.stuck[id] {
		return errors.New("row locked")
	}
	return r.AppointmentRepository.UpdateStatus(ctx, id, status)
}

type fixture struct {
	store    *memstore.Store
	repo     *memstore.AppointmentRepository
	ledger   *bonusService.Ledger
	notifier *recordingNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	store.AddUser(referrerID, nil)
	store.AddUser(clientID, ptr.Ptr(referrerID))

	txManager := memstore.NewTxManager(store)
	repo := memstore.NewAppointmentRepository(store)
	ledger := bonusService.NewLedger(memstore.NewBonusRepository(store), txManager, metrics.Noop{}, logger.NewNop())
	notifier := &recordingNotifier{}

	return &fixture{
		store:    store,
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		svc:      NewService(repo, ledger, txManager, notifier, metrics.Noop{}, logger.NewNop()),
	}
}

func (f *fixture) createAppointment(t *testing.T, status domain.AppointmentStatus, date time.Time, start, end types.TimeString) *domain.Appointment {
	t.Helper()
	a, err := f.repo.Create(context.Background(), &domain.Appointment{
		SpecialistID:  3,
		ServiceID:     5,
		UserID:        ptr.Ptr(clientID),
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Price:         decimal.NewFromInt(1200),
		OriginalPrice: decimal.NewFromInt(1500),
		BonusAmount:   300,
		Status:        status,
	})
	require.NoError(t, err)
	return a
}

// bookWithBonuses запись с проведённым списанием 300, pending начислением 100 клиенту
// и pending реферальным бонусом 50 пригласившему
func (f *fixture) bookWithBonuses(t *testing.T, status domain.AppointmentStatus) *domain.Appointment {
	t.Helper()
	ctx := context.Background()

	_, err := f.ledger.CreateManualAdjustment(ctx, clientID, 500, "welcome")
	require.NoError(t, err)

	a := f.createAppointment(t, status, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), "10:00", "11:00")

	inputs := []bonusService.CreateTransactionInput{
		{UserID: clientID, Amount: -300, Type: domain.BonusSpent, Status: domain.BonusCompleted, AppointmentID: ptr.Ptr(a.ID)},
		{UserID: clientID, Amount: 100, Type: domain.BonusBooking, Status: domain.BonusPending, AppointmentID: ptr.Ptr(a.ID)},
		{UserID: referrerID, Amount: 50, Type: domain.BonusReferral, Status: domain.BonusPending, AppointmentID: ptr.Ptr(a.ID)},
	}
	for _, in := range inputs {
		_, err := f.ledger.CreateTransaction(ctx, in)
		require.NoError(t, err)
	}
	return a
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	balance, err := f.ledger.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

func (f *fixture) transactionsOfType(txType domain.BonusTransactionType) []domain.BonusTransaction {
	var result []domain.BonusTransaction
	for _, tx := range f.store.Transactions() {
		if tx.Type == txType {
			result = append(result, tx)
		}
	}
	return result
}

func TestChangeStatus_CancelRefundsSpentBonus(t *testing.T) {
	f := newFixture(t)
	a := f.bookWithBonuses(t, domain.AppointmentConfirmed)
	require.Equal(t, int64(200), f.balance(t, clientID))

	got, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		AppointmentID: a.ID,
		Target:        domain.AppointmentCancelled,
		Role:          domain.RoleClient,
		Reason:        ptr.Ptr("plans changed"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AppointmentCancelled, got.Status)
	require.NotNil(t, got.CancelledBy)
	assert.Equal(t, domain.RoleClient, *got.CancelledBy)
	assert.Equal(t, int64(500), f.balance(t, clientID), "возвращено ровно 300")

	var refunds []domain.BonusTransaction
	for _, tx := range f.transactionsOfType(domain.BonusManual) {
		if tx.AppointmentID != nil && *tx.AppointmentID == a.ID {
			refunds = append(refunds, tx)
		}
	}
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(300), refunds[0].Amount)
	assert.Equal(t, domain.BonusCompleted, refunds[0].Status)

	for _, tx := range f.store.Transactions() {
		assert.NotEqual(t, domain.BonusPending, tx.Status, "pending операции по отменённой записи аннулированы")
	}
	assert.Equal(t, int64(0), f.balance(t, referrerID))
	assert.Equal(t, 1, f.notifier.count())
}

func TestChangeStatus_CancelTwiceDoesNotRefundTwice(t *testing.T) {
	f := newFixture(t)
	a := f.bookWithBonuses(t, domain.AppointmentPending)
	in := ChangeStatusInput{AppointmentID: a.ID, Target: domain.AppointmentCancelled, Role: domain.RoleAdmin}

	_, err := f.svc.ChangeStatus(context.Background(), in)
	require.NoError(t, err)
	txCount := len(f.store.Transactions())

	got, err := f.svc.ChangeStatus(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.AppointmentCancelled, got.Status)
	assert.Len(t, f.store.Transactions(), txCount)
	assert.Equal(t, int64(500), f.balance(t, clientID))
	assert.Equal(t, 1, f.notifier.count(), "повторный переход не порождает событие")
}

func TestChangeStatus_CompleteEarnsPendingBonuses(t *testing.T) {
	f := newFixture(t)
	a := f.bookWithBonuses(t, domain.AppointmentConfirmed)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		AppointmentID: a.ID, Target: domain.AppointmentCompleted, Role: domain.RoleSpecialist,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300), f.balance(t, clientID), "500 - 300 + 100")
	assert.Equal(t, int64(50), f.balance(t, referrerID))

	spent := f.transactionsOfType(domain.BonusSpent)
	require.Len(t, spent, 1)
	assert.Equal(t, domain.BonusCompleted, spent[0].Status, "списание не трогается")

	user, _ := f.store.User(clientID)
	assert.Equal(t, int64(300), user.BonusBalance)
}

func TestChangeStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.AppointmentStatus
		to      domain.AppointmentStatus
		wantErr error
	}{
		{name: "pending -> confirmed", from: domain.AppointmentPending, to: domain.AppointmentConfirmed},
		{name: "pending -> completed", from: domain.AppointmentPending, to: domain.AppointmentCompleted, wantErr: domain.ErrInvalidTransition},
		{name: "confirmed -> pending", from: domain.AppointmentConfirmed, to: domain.AppointmentPending, wantErr: domain.ErrInvalidTransition},
		{name: "completed -> cancelled", from: domain.AppointmentCompleted, to: domain.AppointmentCancelled, wantErr: domain.ErrInvalidTransition},
		{name: "completed -> archived", from: domain.AppointmentCompleted, to: domain.AppointmentArchived},
		{name: "cancelled -> archived", from: domain.AppointmentCancelled, to: domain.AppointmentArchived},
		{name: "archived -> confirmed", from: domain.AppointmentArchived, to: domain.AppointmentConfirmed, wantErr: domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.createAppointment(t, tt.from, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), "10:00", "11:00")

			got, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
				AppointmentID: a.ID, Target: tt.to, Role: domain.RoleAdmin,
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				stored, getErr := f.svc.GetByID(context.Background(), a.ID)
				require.NoError(t, getErr)
				assert.Equal(t, tt.from, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
		})
	}
}

func TestChangeStatus_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{AppointmentID: 1, Target: "done", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ChangeStatus(context.Background(), ChangeStatusInput{Target: domain.AppointmentCancelled, Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ChangeStatus(context.Background(), ChangeStatusInput{AppointmentID: 404, Target: domain.AppointmentCancelled, Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatus_RollbackOnLedgerFailure(t *testing.T) {
	f := newFixture(t)
	a := f.bookWithBonuses(t, domain.AppointmentConfirmed)
	before := f.store.Transactions()

	f.store.FailOn("bonus.Create", errors.New("disk full"))

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		AppointmentID: a.ID, Target: domain.AppointmentCancelled, Role: domain.RoleAdmin,
	})
	require.Error(t, err)

	stored, err := f.svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentConfirmed, stored.Status, "статус откатан")
	assert.Equal(t, before, f.store.Transactions(), "журнал откатан")
	assert.Equal(t, 0, f.notifier.count())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	a := f.bookWithBonuses(t, domain.AppointmentCompleted)

	err := f.svc.Delete(context.Background(), a.ID)
	require.ErrorIs(t, err, ErrNotArchived)

	_, err = f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		AppointmentID: a.ID, Target: domain.AppointmentArchived, Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), a.ID))

	_, err = f.svc.GetByID(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	for _, tx := range f.store.Transactions() {
		assert.Nil(t, tx.AppointmentID, "операции журнала сохраняются без ссылки на запись")
	}
}

func TestCompleteFinished(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	finished := f.createAppointment(t, domain.AppointmentConfirmed, day, "09:00", "10:00")
	inProgress := f.createAppointment(t, domain.AppointmentConfirmed, day, "11:00", "12:00")
	awaiting := f.createAppointment(t, domain.AppointmentPending, day, "08:00", "09:00")

	_, err := f.ledger.CreateTransaction(context.Background(), bonusService.CreateTransactionInput{
		UserID: clientID, Amount: 100, Type: domain.BonusBooking, Status: domain.BonusPending, AppointmentID: ptr.Ptr(finished.ID),
	})
	require.NoError(t, err)

	now := time.Date(2025, 6, 2, 11, 30, 0, 0, time.UTC)
	result, err := f.svc.CompleteFinished(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 1, Completed: 1}, result)

	statuses := map[int64]domain.AppointmentStatus{}
	for _, a := range f.store.Appointments() {
		statuses[a.ID] = a.Status
	}
	assert.Equal(t, domain.AppointmentCompleted, statuses[finished.ID])
	assert.Equal(t, domain.AppointmentConfirmed, statuses[inProgress.ID])
	assert.Equal(t, domain.AppointmentPending, statuses[awaiting.ID])
	assert.Equal(t, int64(100), f.balance(t, clientID))

	result, err = f.svc.CompleteFinished(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, result)
}

func TestCompleteFinished_StuckAppointmentsDoNotBlockNewer(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	first := f.createAppointment(t, domain.AppointmentConfirmed, day, "08:00", "09:00")
	second := f.createAppointment(t, domain.AppointmentConfirmed, day, "09:00", "10:00")
	third := f.createAppointment(t, domain.AppointmentConfirmed, day, "10:00", "11:00")
	fourth := f.createAppointment(t, domain.AppointmentConfirmed, day, "11:00", "12:00")

	repo := &stuckRepository{
		AppointmentRepository: f.repo,
		stuck:                 map[int64]bool{first.ID: true, second.ID: true},
	}
	svc := NewService(repo, f.ledger, memstore.NewTxManager(f.store), f.notifier, metrics.Noop{}, logger.NewNop())
	svc.batchSize = 2

	now := time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	for run := 0; run < 2; run++ {
		result, err := svc.CompleteFinished(context.Background(), now)
		require.Error(t, err)
		assert.Equal(t, 2, result.Failed)
	}

	statuses := map[int64]domain.AppointmentStatus{}
	for _, a := range f.store.Appointments() {
		statuses[a.ID] = a.Status
	}
	assert.Equal(t, domain.AppointmentConfirmed, statuses[first.ID])
	assert.Equal(t, domain.AppointmentConfirmed, statuses[second.ID])
	assert.Equal(t, domain.AppointmentCompleted, statuses[third.ID])
	assert.Equal(t, domain.AppointmentCompleted, statuses[fourth.ID])
}

func TestCompleteFinished_Pages(t *testing.T) {
	f := newFixture(t)
	f.svc.batchSize = 2
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	hours := []types.TimeString{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00"}
	for i := 0; i < len(hours)-1; i++ {
		f.createAppointment(t, domain.AppointmentConfirmed, day, hours[i], hours[i+1])
	}

	result, err := f.svc.CompleteFinished(context.Background(), time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 5, Completed: 5}, result)
}
