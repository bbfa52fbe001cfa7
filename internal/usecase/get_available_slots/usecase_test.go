package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

const (
	specialistID int64 = 3
	serviceID    int64 = 5
)

var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeCatalog struct {
	err error
}

func (c fakeCatalog) GetService(_ context.Context, id int64) (*catalogservice.Service, error) {
	if c.err != nil {
		return nil, c.err
	}
	if id != serviceID {
		return nil, catalogservice.ErrServiceNotFound
	}
	return &catalogservice.Service{
		ID: serviceID, DurationMinutes: 60, Price: decimal.NewFromInt(1000), SpecialistIDs: []int64{specialistID},
	}, nil
}

func newUseCase(t *testing.T, now time.Time, catalog CatalogClient) (*UseCase, *memstore.Store) {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	schedules := memstore.NewScheduleRepository(store)
	_, err := schedules.Upsert(ctx, &domain.WorkSchedule{
		SpecialistID: specialistID,
		Enabled:      true,
		WorkDays: []domain.WorkDay{{
			Weekday: domain.Monday, Active: true, StartTime: "09:00", EndTime: "17:00",
			LunchBreaks: []domain.LunchBreak{{StartTime: "13:00", EndTime: "14:00", Enabled: true}},
		}},
	})
	require.NoError(t, err)

	appointments := memstore.NewAppointmentRepository(store)
	_, err = appointments.Create(ctx, &domain.Appointment{
		SpecialistID: specialistID, ServiceID: serviceID, Date: monday,
		StartTime: "10:00", EndTime: "11:00", Status: domain.AppointmentConfirmed,
	})
	require.NoError(t, err)

	uc := NewUseCase(schedules, appointments, catalog, memstore.NewTxManager(store),
		Settings{GranularityMinutes: 30, MinNoticeMinutes: 60, AdvanceDays: 14, Location: time.UTC},
		logger.NewNop())
	uc.timeProvider = fixedTime{now: now}

	return uc, store
}

func starts(slots []domain.Slot) []types.TimeString {
	result := make([]types.TimeString, 0, len(slots))
	for _, s := range slots {
		result = append(result, s.StartTime)
	}
	return result
}

func TestExecute_ComputesSlotsAroundBookingsAndLunch(t *testing.T) {
	uc, _ := newUseCase(t, monday.AddDate(0, 0, -1), fakeCatalog{})

	resp, err := uc.Execute(context.Background(), &Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, []types.TimeString{
		"09:00", "11:00", "11:30", "12:00", "14:00", "14:30", "15:00", "15:30", "16:00",
	}, starts(resp.Slots))
}

func TestExecute_SameDayRespectsNotice(t *testing.T) {
	uc, _ := newUseCase(t, monday.Add(11*time.Hour+10*time.Minute), fakeCatalog{})

	resp, err := uc.Execute(context.Background(), &Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{"14:00", "14:30", "15:00", "15:30", "16:00"}, starts(resp.Slots))
}

func TestExecute_EmptyResults(t *testing.T) {
	uc, _ := newUseCase(t, monday.AddDate(0, 0, -1), fakeCatalog{})

	tuesday, err := uc.Execute(context.Background(), &Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.NotNil(t, tuesday.Slots)
	assert.Empty(t, tuesday.Slots)
}

func TestExecute_ServiceNotOfferedBySpecialist(t *testing.T) {
	uc, _ := newUseCase(t, monday.AddDate(0, 0, -1), fakeCatalog{})

	_, err := uc.Execute(context.Background(), &Request{SpecialistID: 99, ServiceID: serviceID, Date: monday})

	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		catalog CatalogClient
		wantErr error
	}{
		{name: "нет специалиста", req: Request{ServiceID: serviceID, Date: monday}, catalog: fakeCatalog{}, wantErr: domain.ErrValidation},
		{name: "дата в прошлом", req: Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday.AddDate(0, 0, -2)}, catalog: fakeCatalog{}, wantErr: domain.ErrValidation},
		{name: "дальше горизонта", req: Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday.AddDate(0, 0, 20)}, catalog: fakeCatalog{}, wantErr: domain.ErrValidation},
		{name: "неизвестная услуга", req: Request{SpecialistID: specialistID, ServiceID: 404, Date: monday}, catalog: fakeCatalog{}, wantErr: domain.ErrNotFound},
		{name: "каталог недоступен", req: Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday}, catalog: fakeCatalog{err: errors.New("timeout")}, wantErr: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newUseCase(t, monday.AddDate(0, 0, -1), tt.catalog)
			req := tt.req

			_, err := uc.Execute(context.Background(), &req)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_RepositoryFailure(t *testing.T) {
	uc, store := newUseCase(t, monday.AddDate(0, 0, -1), fakeCatalog{})
	store.FailOn("appointment.GetBySpecialistWithFilter", errors.New("connection reset"))

	_, err := uc.Execute(context.Background(), &Request{SpecialistID: specialistID, ServiceID: serviceID, Date: monday})

	assert.ErrorIs(t, err, ErrInternal)
}
