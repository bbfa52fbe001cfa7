package upsert_schedule

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

type ScheduleService interface {
	Upsert(ctx context.Context, specialistID int64, schedule *domain.WorkSchedule) (*domain.WorkSchedule, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
