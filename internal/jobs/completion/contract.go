package completion

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/service/appointments"
)

// AppointmentCompleter завершает подтверждённые записи, время которых прошло
type AppointmentCompleter interface {
	CompleteFinished(ctx context.Context, now time.Time) (appointments.SweepResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
