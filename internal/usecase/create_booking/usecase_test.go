package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/promoservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	"github.com/m04kA/SMC-WellnessBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/metrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
	"github.com/m04kA/SMC-WellnessBooking/pkg/txmanager"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

const (
	specialistID int64 = 3
	serviceID    int64 = 5
	clientID     int64 = 10
	referrerID   int64 = 20
)

var (
	// воскресенье, запись на понедельник
	fixedNow    = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	bookingDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeCatalog struct {
	services map[int64]*catalogservice.Service
	err      error
}

func (c *fakeCatalog) GetService(_ context.Context, id int64) (*catalogservice.Service, error) {
	if c.err != nil {
		return nil, c.err
	}
	s, ok := c.services[id]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	copied := *s
	return &copied, nil
}

type fakePromo struct {
	promos map[string]*promoservice.Promo
}

func (p *fakePromo) ValidatePromo(_ context.Context, code string, _ int64) (*promoservice.Promo, error) {
	promo, ok := p.promos[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown code", promoservice.ErrPromoInvalid)
	}
	return promo, nil
}

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

type fixture struct {
	store    *memstore.Store
	ledger   *bonusService.Ledger
	catalog  *fakeCatalog
	notifier *recordingNotifier
	uc       *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	store.AddUser(referrerID, nil)
	store.AddUser(clientID, ptr.Ptr(referrerID))

	txManager := memstore.NewTxManager(store)
	scheduleRepo := memstore.NewScheduleRepository(store)
	_, err := scheduleRepo.Upsert(ctx, &domain.WorkSchedule{
		SpecialistID: specialistID,
		Enabled:      true,
		WorkDays: []domain.WorkDay{{
			Weekday: domain.Monday, Active: true, StartTime: "09:00", EndTime: "17:00",
			LunchBreaks: []domain.LunchBreak{{StartTime: "13:00", EndTime: "14:00", Enabled: true}},
		}},
	})
	require.NoError(t, err)

	ledger := bonusService.NewLedger(memstore.NewBonusRepository(store), txManager, metrics.Noop{}, logger.NewNop())
	catalog := &fakeCatalog{services: map[int64]*catalogservice.Service{
		serviceID: {
			ID: serviceID, Name: "Massage", DurationMinutes: 60, Price: decimal.NewFromInt(1000),
			BookingBonus: 50, SpecialistIDs: []int64{specialistID},
		},
	}}
	promo := &fakePromo{promos: map[string]*promoservice.Promo{
		"SPRING10": {Code: "SPRING10", DiscountType: "percent", DiscountValue: decimal.NewFromInt(10)},
	}}
	notifier := &recordingNotifier{}

	uc := NewUseCase(
		scheduleRepo,
		memstore.NewAppointmentRepository(store),
		catalog,
		promo,
		ledger,
		txManager,
		notifier,
		metrics.Noop{},
		Settings{MinNoticeMinutes: 60, AdvanceDays: 30, ReferralAmount: 200, Location: time.UTC},
		logger.NewNop(),
	)
	uc.timeProvider = fixedTime{now: fixedNow}

	return &fixture{store: store, ledger: ledger, catalog: catalog, notifier: notifier, uc: uc}
}

func (f *fixture) fund(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.ledger.CreateManualAdjustment(context.Background(), clientID, amount, "top up")
	require.NoError(t, err)
}

func request(start, end string) *Request {
	return &Request{
		SpecialistID: specialistID,
		ServiceID:    serviceID,
		Date:         bookingDate,
		StartTime:    typesOf(start),
		EndTime:      typesOf(end),
		UserID:       ptr.Ptr(clientID),
	}
}

func TestExecute_CreatesAppointmentWithLedgerEntries(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 500)

	req := request("10:00", "11:00")
	req.BonusSpend = 300
	req.PromoCode = ptr.Ptr("SPRING10")

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	a := resp.Appointment
	assert.Equal(t, domain.AppointmentConfirmed, a.Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(a.OriginalPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(a.DiscountAmount))
	assert.True(t, decimal.NewFromInt(600).Equal(a.Price), "1000 - 100 - 300, got %s", a.Price)
	assert.Equal(t, int64(300), a.BonusAmount)
	require.NotNil(t, a.PromoCode)
	assert.Equal(t, "SPRING10", *a.PromoCode)

	require.Len(t, resp.Transactions, 3)
	assert.Equal(t, domain.BonusSpent, resp.Transactions[0].Type)
	assert.Equal(t, domain.BonusCompleted, resp.Transactions[0].Status)
	assert.Equal(t, int64(-300), resp.Transactions[0].Amount)
	assert.Equal(t, domain.BonusBooking, resp.Transactions[1].Type)
	assert.Equal(t, domain.BonusPending, resp.Transactions[1].Status)
	assert.Equal(t, domain.BonusReferral, resp.Transactions[2].Type)
	assert.Equal(t, referrerID, resp.Transactions[2].UserID)
	for _, tx := range resp.Transactions {
		require.NotNil(t, tx.AppointmentID)
		assert.Equal(t, a.ID, *tx.AppointmentID)
	}

	balance, err := f.ledger.GetBalance(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	assert.Equal(t, []string{"3:2025-06-02"}, f.store.Locks())
	assert.Equal(t, 1, f.notifier.count())
}

func TestExecute_InsufficientBonusCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 500)
	txBefore := len(f.store.Transactions())

	req := request("10:00", "11:00")
	req.BonusSpend = 600

	_, err := f.uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrInsufficientBonus)
	assert.Empty(t, f.store.Appointments())
	assert.Len(t, f.store.Transactions(), txBefore)
	assert.Equal(t, 0, f.notifier.count())
}

func TestExecute_FailureMidwayRollsBackEverything(t *testing.T) {
	ops := []string{"bonus.Create", "bonus.SetCachedBalance", "appointment.CountActiveByUser"}

	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			f.fund(t, 500)
			txBefore := f.store.Transactions()

			req := request("10:00", "11:00")
			req.BonusSpend = 100

			f.store.FailOn(op, errors.New("connection reset"))
			_, err := f.uc.Execute(context.Background(), req)

			require.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, f.store.Appointments())
			assert.Equal(t, txBefore, f.store.Transactions())
			user, _ := f.store.User(clientID)
			assert.Equal(t, int64(500), user.BonusBalance)
		})
	}
}

func TestExecute_SlotAlreadyTaken(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), request("10:30", "11:30"))
	require.ErrorIs(t, err, domain.ErrSlotUnavailable)

	assert.Len(t, f.store.Appointments(), 1)
}

func TestExecute_ConcurrentBookingsOfSameSlot(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := request("10:00", "11:00")
			req.UserID = nil
			_, errs[i] = f.uc.Execute(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.Appointments(), 1)
}

func TestExecute_WindowChecks(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		date  time.Time
	}{
		{name: "обед", start: "12:30", end: "13:30", date: bookingDate},
		{name: "до начала рабочего дня", start: "08:00", end: "09:00", date: bookingDate},
		{name: "после конца рабочего дня", start: "16:30", end: "17:30", date: bookingDate},
		{name: "выходной", start: "10:00", end: "11:00", date: bookingDate.AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := request(tt.start, tt.end)
			req.Date = tt.date

			_, err := f.uc.Execute(context.Background(), req)

			require.ErrorIs(t, err, domain.ErrSlotUnavailable)
			assert.Empty(t, f.store.Appointments())
		})
	}
}

func TestExecute_NoSchedule(t *testing.T) {
	f := newFixture(t)
	f.catalog.services[serviceID].SpecialistIDs = append(f.catalog.services[serviceID].SpecialistIDs, 99)

	req := request("10:00", "11:00")
	req.SpecialistID = 99

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestExecute_PromoInvalidCreatesNothing(t *testing.T) {
	f := newFixture(t)
	req := request("10:00", "11:00")
	req.PromoCode = ptr.Ptr("EXPIRED")

	_, err := f.uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrPromoInvalid)
	assert.Empty(t, f.store.Appointments())
	assert.Empty(t, f.store.Transactions())
}

func TestExecute_RequiresApproval(t *testing.T) {
	f := newFixture(t)
	f.catalog.services[serviceID].RequiresApproval = true

	resp, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))

	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentPending, resp.Appointment.Status)
}

func TestExecute_ReferralOnlyForFirstAppointment(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))
	require.NoError(t, err)
	second, err := f.uc.Execute(context.Background(), request("14:00", "15:00"))
	require.NoError(t, err)

	countReferrals := func(txs []*domain.BonusTransaction) int {
		n := 0
		for _, tx := range txs {
			if tx.Type == domain.BonusReferral {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, countReferrals(first.Transactions))
	assert.Equal(t, 0, countReferrals(second.Transactions))
}

func TestExecute_Guest(t *testing.T) {
	f := newFixture(t)
	req := request("10:00", "11:00")
	req.UserID = nil

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, resp.Appointment.UserID)
	assert.Empty(t, resp.Transactions)

	req = request("11:00", "12:00")
	req.UserID = nil
	req.BonusSpend = 10
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrValidation)
	field, _ := domain.FieldOf(err)
	assert.Equal(t, "bonusSpend", field)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *Request)
		wantField string
	}{
		{name: "конец раньше начала", mutate: func(r *Request) { r.EndTime = "09:00" }, wantField: "endTime"},
		{name: "неверный формат", mutate: func(r *Request) { r.StartTime = "25:00" }, wantField: "startTime"},
		{name: "длительность не совпадает", mutate: func(r *Request) { r.EndTime = "11:30" }, wantField: "endTime"},
		{name: "специалист не оказывает услугу", mutate: func(r *Request) { r.SpecialistID = 4 }, wantField: "serviceId"},
		{name: "дата в прошлом", mutate: func(r *Request) { r.Date = fixedNow.AddDate(0, 0, -1) }, wantField: "date"},
		{name: "дальше горизонта", mutate: func(r *Request) { r.Date = fixedNow.AddDate(0, 0, 31) }, wantField: "date"},
		{name: "бонусов больше цены", mutate: func(r *Request) { r.BonusSpend = 1001 }, wantField: "bonusSpend"},
		{name: "отрицательные бонусы", mutate: func(r *Request) { r.BonusSpend = -1 }, wantField: "bonusSpend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := request("10:00", "11:00")
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)

			require.ErrorIs(t, err, domain.ErrValidation)
			field, ok := domain.FieldOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, field)
			assert.Empty(t, f.store.Appointments())
		})
	}
}

func TestExecute_MinNotice(t *testing.T) {
	f := newFixture(t)
	f.uc.timeProvider = fixedTime{now: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)}

	_, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))
	require.ErrorIs(t, err, ErrTooLateToBook)

	_, err = f.uc.Execute(context.Background(), request("10:30", "11:30"))
	require.NoError(t, err)
}

func TestExecute_UnknownServiceAndUser(t *testing.T) {
	f := newFixture(t)

	req := request("10:00", "11:00")
	req.ServiceID = 404
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req = request("10:00", "11:00")
	req.UserID = ptr.Ptr(int64(404))
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.store.Appointments())
}

type serializationTxManager struct{}

func (serializationTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fmt.Errorf("%w: could not serialize access", txmanager.ErrSerialization)
}

func TestExecute_SerializationFailureIsSlotUnavailable(t *testing.T) {
	f := newFixture(t)
	f.uc.txManager = serializationTxManager{}

	_, err := f.uc.Execute(context.Background(), request("10:00", "11:00"))

	require.ErrorIs(t, err, ErrSlotConflict)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func typesOf(s string) types.TimeString {
	return types.TimeString(s)
}
