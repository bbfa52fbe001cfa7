package change_appointment_status

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/get_appointment"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/service/appointments"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidRequest       = "некорректный статус записи"
	msgAppointmentNotFound  = "запись не найдена"
	msgForbidden            = "недостаточно прав для изменения статуса записи"
	msgInvalidTransition    = "переход в этот статус недопустим"
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

// Handle PATCH /api/v1/appointments/{appointmentId}/status
// Клиент может только отменить свою запись, специалист и администратор выполняют любые переходы
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req ChangeStatusRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid request body: %v", err)
		if errors.Is(err, domain.ErrValidation) {
			handlers.RespondValidationError(w, err, msgInvalidRequest)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	target, err := domain.ParseAppointmentStatus(req.Status)
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid status: %v", err)
		handlers.RespondValidationError(w, err, msgInvalidRequest)
		return
	}

	// Проверка прав до ядра: ядро только фиксирует роль инициатора
	current, err := h.service.GetByID(r.Context(), appointmentID)
	if err != nil {
		h.respondServiceError(w, appointmentID, err)
		return
	}

	role := middleware.GetRole(r.Context())
	if !get_appointment.CanView(r, current) || (role == domain.RoleClient && target != domain.AppointmentCancelled) {
		userID, _ := middleware.GetUserID(r.Context())
		h.logger.Warn("PATCH /appointments/{id}/status - Forbidden: appointment_id=%d, user_id=%d, role=%s, target=%s",
			appointmentID, userID, role, target)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	updated, err := h.service.ChangeStatus(r.Context(), appointments.ChangeStatusInput{
		AppointmentID: appointmentID,
		Target:        target,
		Role:          role,
		Reason:        req.Reason,
	})
	if err != nil {
		h.respondServiceError(w, appointmentID, err)
		return
	}

	h.logger.Info("PATCH /appointments/{id}/status - Status changed: appointment_id=%d, status=%s, role=%s",
		appointmentID, updated.Status, role)
	handlers.RespondJSON(w, http.StatusOK, handlers.NewAppointmentResponse(updated))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, appointmentID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.logger.Warn("PATCH /appointments/{id}/status - Appointment not found: appointment_id=%d", appointmentID)
		handlers.RespondNotFound(w, msgAppointmentNotFound)

	case errors.Is(err, domain.ErrInvalidTransition):
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid transition: appointment_id=%d, error=%v", appointmentID, err)
		handlers.RespondConflict(w, msgInvalidTransition)

	case errors.Is(err, domain.ErrValidation):
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid request: appointment_id=%d, error=%v", appointmentID, err)
		handlers.RespondValidationError(w, err, msgInvalidRequest)

	default:
		h.logger.Error("PATCH /appointments/{id}/status - Failed to change status: appointment_id=%d, error=%v", appointmentID, err)
		handlers.RespondInternalError(w)
	}
}
