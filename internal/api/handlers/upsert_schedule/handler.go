package upsert_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidSpecialistID = "некорректный ID специалиста"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidSchedule     = "некорректное расписание"
	msgForbidden           = "недостаточно прав для изменения расписания"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/specialists/{specialistId}/schedule
// Расписание заменяется целиком. Специалист меняет только своё расписание, администратор любое
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	specialistID, err := handlers.PathInt64(r, "specialistId")
	if err != nil {
		h.logger.Warn("PUT /specialists/{id}/schedule - Invalid specialist ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialistID)
		return
	}

	role := middleware.GetRole(r.Context())
	userID, _ := middleware.GetUserID(r.Context())
	if !role.CanManageSchedules() || (role == domain.RoleSpecialist && userID != specialistID) {
		h.logger.Warn("PUT /specialists/{id}/schedule - Forbidden: specialist_id=%d, user_id=%d, role=%s",
			specialistID, userID, role)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	var req handlers.ScheduleDTO
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("PUT /specialists/{id}/schedule - Invalid request body: %v", err)
		if errors.Is(err, domain.ErrValidation) {
			handlers.RespondValidationError(w, err, msgInvalidSchedule)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	schedule, err := req.ToDomain(specialistID)
	if err != nil {
		h.logger.Warn("PUT /specialists/{id}/schedule - Failed to parse schedule: %v", err)
		handlers.RespondValidationError(w, err, msgInvalidSchedule)
		return
	}

	saved, err := h.service.Upsert(r.Context(), specialistID, schedule)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.logger.Warn("PUT /specialists/{id}/schedule - Invalid schedule: specialist_id=%d, error=%v", specialistID, err)
			handlers.RespondValidationError(w, err, msgInvalidSchedule)
			return
		}
		h.logger.Error("PUT /specialists/{id}/schedule - Failed to save schedule: specialist_id=%d, error=%v", specialistID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /specialists/{id}/schedule - Schedule saved: specialist_id=%d, work_days=%d, vacations=%d",
		specialistID, len(saved.WorkDays), len(saved.Vacations))
	handlers.RespondJSON(w, http.StatusOK, handlers.NewScheduleDTO(saved))
}
