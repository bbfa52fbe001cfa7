package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error
	Cancel(ctx context.Context, id int64, reason *string, by domain.Role) error
	Delete(ctx context.Context, id int64) error
	ListFinished(ctx context.Context, now time.Time, afterID int64, limit uint64) ([]*domain.Appointment, error)
}

// BonusLedger операции бонусного журнала, которые синхронизируются со статусом записи
type BonusLedger interface {
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*domain.BonusTransaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status domain.BonusTransactionStatus) (*domain.BonusTransaction, error)
	Refund(ctx context.Context, userID, amount, appointmentID int64, description string) (*domain.BonusTransaction, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier получатель событий о смене статуса
type Notifier interface {
	Dispatch(event notification.Event)
}

// MetricsRecorder бизнес-метрики переходов
type MetricsRecorder interface {
	IncAppointmentTransition(to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
