package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/promoservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetBySpecialistID(ctx context.Context, specialistID int64) (*domain.WorkSchedule, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	GetBySpecialistWithFilter(ctx context.Context, filter domain.SpecialistAppointmentsFilter) ([]*domain.Appointment, error)
	LockSpecialistDate(ctx context.Context, specialistID int64, date time.Time) error
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
}

// CatalogClient интерфейс клиента каталога услуг (с кешем или без)
type CatalogClient interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// PromoClient интерфейс клиента проверки промокодов
type PromoClient interface {
	ValidatePromo(ctx context.Context, code string, serviceID int64) (*promoservice.Promo, error)
}

// BonusLedger операции бонусного журнала, нужные при записи
type BonusLedger interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	CreateTransaction(ctx context.Context, in bonusService.CreateTransactionInput) (*domain.BonusTransaction, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier получатель событий о новых записях
type Notifier interface {
	Dispatch(event notification.Event)
}

// MetricsRecorder бизнес-метрики бронирования
type MetricsRecorder interface {
	IncBooking(result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
