package get_schedule

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

type ScheduleService interface {
	Get(ctx context.Context, specialistID int64) (*domain.WorkSchedule, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
