package memstore

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/schedule"
)

// ScheduleRepository репозиторий расписаний в памяти
type ScheduleRepository struct {
	store *Store
}

// NewScheduleRepository создает репозиторий расписаний
func NewScheduleRepository(store *Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

func (r *ScheduleRepository) GetBySpecialistID(_ context.Context, specialistID int64) (*domain.WorkSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("schedule.GetBySpecialistID"); err != nil {
		return nil, err
	}

	s, ok := r.store.state.schedules[specialistID]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	clone := cloneSchedule(s)
	return &clone, nil
}

func (r *ScheduleRepository) Upsert(_ context.Context, schedule *domain.WorkSchedule) (*domain.WorkSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("schedule.Upsert"); err != nil {
		return nil, err
	}

	if existing, ok := r.store.state.schedules[schedule.SpecialistID]; ok {
		schedule.ID = existing.ID
		schedule.CreatedAt = existing.CreatedAt
	} else {
		schedule.ID = r.store.newID()
	}

	for i := range schedule.WorkDays {
		schedule.WorkDays[i].ID = r.store.newID()
		for j := range schedule.WorkDays[i].LunchBreaks {
			schedule.WorkDays[i].LunchBreaks[j].ID = r.store.newID()
		}
	}
	for i := range schedule.Vacations {
		schedule.Vacations[i].ID = r.store.newID()
	}

	r.store.state.schedules[schedule.SpecialistID] = cloneSchedule(*schedule)
	return schedule, nil
}
