package get_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgAppointmentNotFound  = "запись не найдена"
	msgForbidden            = "нет доступа к этой записи"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments/{appointmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("GET /appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	appointment, err := h.service.GetByID(r.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("GET /appointments/{id} - Appointment not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgAppointmentNotFound)
			return
		}
		h.logger.Error("GET /appointments/{id} - Failed to get appointment: appointment_id=%d, error=%v", appointmentID, err)
		handlers.RespondInternalError(w)
		return
	}

	if !CanView(r, appointment) {
		userID, _ := middleware.GetUserID(r.Context())
		h.logger.Warn("GET /appointments/{id} - Forbidden: appointment_id=%d, user_id=%d", appointmentID, userID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	h.logger.Info("GET /appointments/{id} - Appointment retrieved: appointment_id=%d", appointmentID)
	handlers.RespondJSON(w, http.StatusOK, handlers.NewAppointmentResponse(appointment))
}

// CanView клиент видит свои записи, специалист записи к себе, администратор любые
func CanView(r *http.Request, a *domain.Appointment) bool {
	userID, _ := middleware.GetUserID(r.Context())
	switch middleware.GetRole(r.Context()) {
	case domain.RoleAdmin:
		return true
	case domain.RoleSpecialist:
		return a.SpecialistID == userID
	case domain.RoleClient:
		return a.UserID != nil && *a.UserID == userID
	default:
		return false
	}
}
