package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// EventType тип события о записи
type EventType string

const (
	EventAppointmentBooked        EventType = "appointment.booked"
	EventAppointmentStatusChanged EventType = "appointment.status_changed"
)

// Event событие для внешних каналов доставки (email, Telegram)
type Event struct {
	ID             string              `json:"id"`
	Type           EventType           `json:"type"`
	OccurredAt     time.Time           `json:"occurredAt"`
	Outcome        string              `json:"outcome"`
	PreviousStatus string              `json:"previousStatus,omitempty"`
	ActorRole      string              `json:"actorRole,omitempty"`
	Appointment    AppointmentSnapshot `json:"appointment"`
}

// AppointmentSnapshot состояние записи на момент события
type AppointmentSnapshot struct {
	ID           int64   `json:"id"`
	SpecialistID int64   `json:"specialistId"`
	ServiceID    int64   `json:"serviceId"`
	UserID       *int64  `json:"userId,omitempty"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Status       string  `json:"status"`
	Price        string  `json:"price"`
	BonusAmount  int64   `json:"bonusAmount"`
	PromoCode    *string `json:"promoCode,omitempty"`
}

// NewBookedEvent событие о новой записи, outcome - статус, с которым запись создана
func NewBookedEvent(a *domain.Appointment) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventAppointmentBooked,
		OccurredAt:  time.Now().UTC(),
		Outcome:     string(a.Status),
		Appointment: snapshotOf(a),
	}
}

// NewStatusChangedEvent событие о смене статуса записи
func NewStatusChangedEvent(a *domain.Appointment, from domain.AppointmentStatus, actor domain.Role) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           EventAppointmentStatusChanged,
		OccurredAt:     time.Now().UTC(),
		Outcome:        string(a.Status),
		PreviousStatus: string(from),
		ActorRole:      string(actor),
		Appointment:    snapshotOf(a),
	}
}

func snapshotOf(a *domain.Appointment) AppointmentSnapshot {
	return AppointmentSnapshot{
		ID:           a.ID,
		SpecialistID: a.SpecialistID,
		ServiceID:    a.ServiceID,
		UserID:       a.UserID,
		Date:         a.Date.Format(domain.DateFormat),
		StartTime:    a.StartTime.String(),
		EndTime:      a.EndTime.String(),
		Status:       string(a.Status),
		Price:        a.Price.StringFixed(2),
		BonusAmount:  a.BonusAmount,
		PromoCode:    a.PromoCode,
	}
}
