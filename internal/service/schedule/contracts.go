package schedule

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetBySpecialistID(ctx context.Context, specialistID int64) (*domain.WorkSchedule, error)
	Upsert(ctx context.Context, schedule *domain.WorkSchedule) (*domain.WorkSchedule, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
