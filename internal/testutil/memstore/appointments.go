package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/appointment"
)

// AppointmentRepository репозиторий записей в памяти
type AppointmentRepository struct {
	store *Store
}

// NewAppointmentRepository создает репозиторий записей
func NewAppointmentRepository(store *Store) *AppointmentRepository {
	return &AppointmentRepository{store: store}
}

func (r *AppointmentRepository) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.Create"); err != nil {
		return nil, err
	}

	// Аналог ограничения EXCLUDE в PostgreSQL
	if a.Status.BlocksSlot() {
		for _, other := range r.store.state.appointments {
			if other.SpecialistID == a.SpecialistID && other.IsActive() &&
				sameDay(other.Date, a.Date) && other.Overlaps(a.StartTime, a.EndTime) {
				return nil, fmt.Errorf("%w: conflicts with id=%d", appointmentRepo.ErrSlotTaken, other.ID)
			}
		}
	}

	a.ID = r.store.newID()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.store.state.appointments[a.ID] = *a

	copied := *a
	return &copied, nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.GetByID"); err != nil {
		return nil, err
	}

	a, ok := r.store.state.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *AppointmentRepository) GetBySpecialistWithFilter(_ context.Context, filter domain.SpecialistAppointmentsFilter) ([]*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.GetBySpecialistWithFilter"); err != nil {
		return nil, err
	}

	result := make([]*domain.Appointment, 0)
	for _, a := range r.store.state.appointments {
		if a.SpecialistID != filter.SpecialistID {
			continue
		}
		if filter.StartDate != nil && dayOf(a.Date).Before(dayOf(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && dayOf(a.Date).After(dayOf(*filter.EndDate)) {
			continue
		}
		if filter.Status != nil {
			if a.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeInactive && !a.IsActive() {
			continue
		}
		copied := a
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime.IsBefore(result[j].StartTime)
	})
	return result, nil
}

func (r *AppointmentRepository) LockSpecialistDate(ctx context.Context, specialistID int64, date time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !inTx(ctx) {
		return fmt.Errorf("%w: LockSpecialistDate requires a transaction", appointmentRepo.ErrLock)
	}
	if err := r.store.fail("appointment.LockSpecialistDate"); err != nil {
		return err
	}

	r.store.locks = append(r.store.locks, fmt.Sprintf("%d:%s", specialistID, date.Format(domain.DateFormat)))
	return nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, id int64, status domain.AppointmentStatus) error {
	return r.update("appointment.UpdateStatus", id, func(a *domain.Appointment) {
		a.Status = status
	})
}

func (r *AppointmentRepository) Cancel(_ context.Context, id int64, reason *string, by domain.Role) error {
	return r.update("appointment.Cancel", id, func(a *domain.Appointment) {
		now := time.Now()
		a.Status = domain.AppointmentCancelled
		a.CancellationReason = reason
		a.CancelledBy = &by
		a.CancelledAt = &now
	})
}

func (r *AppointmentRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.Delete"); err != nil {
		return err
	}
	if _, ok := r.store.state.appointments[id]; !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}

	delete(r.store.state.appointments, id)
	for txID, tx := range r.store.state.transactions {
		if tx.AppointmentID != nil && *tx.AppointmentID == id {
			tx.AppointmentID = nil
			r.store.state.transactions[txID] = tx
		}
	}
	return nil
}

func (r *AppointmentRepository) ListFinished(_ context.Context, now time.Time, afterID int64, limit uint64) ([]*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.ListFinished"); err != nil {
		return nil, err
	}

	result := make([]*domain.Appointment, 0)
	for _, a := range r.store.state.appointments {
		if a.ID > afterID && a.Status == domain.AppointmentConfirmed && !a.EndsAt(now.Location()).After(now) {
			copied := a
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if limit > 0 && uint64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *AppointmentRepository) CountActiveByUser(_ context.Context, userID int64) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("appointment.CountActiveByUser"); err != nil {
		return 0, err
	}

	count := 0
	for _, a := range r.store.state.appointments {
		if a.UserID != nil && *a.UserID == userID && a.Status != domain.AppointmentCancelled {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepository) update(op string, id int64, mutate func(a *domain.Appointment)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail(op); err != nil {
		return err
	}

	a, ok := r.store.state.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	mutate(&a)
	a.UpdatedAt = time.Now()
	r.store.state.appointments[id] = a
	return nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return dayOf(a).Equal(dayOf(b))
}
