package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// AppointmentStatus статус записи
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentArchived  AppointmentStatus = "archived"
)

// appointmentTransitions допустимые переходы статусов записи
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
	AppointmentCompleted: {AppointmentArchived},
	AppointmentCancelled: {AppointmentArchived},
}

// InactiveAppointmentStatuses статусы, которые не занимают время специалиста
var InactiveAppointmentStatuses = []AppointmentStatus{
	AppointmentCancelled,
	AppointmentArchived,
}

// ParseAppointmentStatus нормализует и валидирует статус
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled, AppointmentArchived:
		return status, nil
	default:
		return "", NewValidationError("status", fmt.Sprintf("unknown appointment status %q", s))
	}
}

// CanTransitionTo проверяет переход по машине состояний
func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// BlocksSlot возвращает true, если запись в этом статусе занимает время специалиста
func (s AppointmentStatus) BlocksSlot() bool {
	return s != AppointmentCancelled && s != AppointmentArchived
}

// Appointment запись клиента к специалисту
type Appointment struct {
	ID           int64
	SpecialistID int64
	ServiceID    int64
	UserID       *int64 // nil - гостевая запись
	Date         time.Time
	StartTime    types.TimeString
	EndTime      types.TimeString

	Price          decimal.Decimal // итоговая цена
	OriginalPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	BonusAmount    int64 // списанные бонусы

	Status    AppointmentStatus
	PromoCode *string
	Notes     *string

	CancellationReason *string
	CancelledBy        *Role
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive возвращает true, если запись занимает время специалиста
func (a *Appointment) IsActive() bool {
	return a.Status.BlocksSlot()
}

// Overlaps проверяет пересечение записи с интервалом [start, end)
func (a *Appointment) Overlaps(start, end types.TimeString) bool {
	return Overlaps(a.StartTime, a.EndTime, start, end)
}

// EndsAt момент окончания записи в часовом поясе loc
func (a *Appointment) EndsAt(loc *time.Location) time.Time {
	y, m, d := a.Date.Date()
	return a.EndTime.OnDate(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// SpecialistAppointmentsFilter фильтр записей специалиста
type SpecialistAppointmentsFilter struct {
	SpecialistID    int64
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *AppointmentStatus
	IncludeInactive bool // включать отменённые и архивные
}
