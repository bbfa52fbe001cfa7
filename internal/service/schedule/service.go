package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/schedule"
)

// Service хранилище расписаний специалистов
type Service struct {
	repo      ScheduleRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(repo ScheduleRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// Get получает расписание специалиста
func (s *Service) Get(ctx context.Context, specialistID int64) (*domain.WorkSchedule, error) {
	if specialistID <= 0 {
		return nil, domain.NewValidationError("specialistId", "must be positive")
	}

	schedule, err := s.repo.GetBySpecialistID(ctx, specialistID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			s.logger.Warn("Get: schedule for specialist=%d not found", specialistID)
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("Get: repository error for specialist=%d: %v", specialistID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	return schedule, nil
}

// Upsert валидирует и целиком сохраняет расписание специалиста
// Некорректное расписание отклоняется до записи, корректное пишется одной транзакцией
func (s *Service) Upsert(ctx context.Context, specialistID int64, schedule *domain.WorkSchedule) (*domain.WorkSchedule, error) {
	schedule.SpecialistID = specialistID

	if err := schedule.Validate(); err != nil {
		s.logger.Warn("Upsert: invalid schedule for specialist=%d: %v", specialistID, err)
		return nil, err
	}

	var saved *domain.WorkSchedule
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.repo.Upsert(ctx, schedule)
		return err
	})
	if err != nil {
		s.logger.Error("Upsert: failed to save schedule for specialist=%d: %v", specialistID, err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Upsert: saved schedule id=%d for specialist=%d (workDays=%d, vacations=%d, enabled=%t)",
		saved.ID, specialistID, len(saved.WorkDays), len(saved.Vacations), saved.Enabled)

	return saved, nil
}
