package get_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	scheduleService "github.com/m04kA/SMC-WellnessBooking/internal/service/schedule"
)

const (
	msgInvalidSpecialistID = "некорректный ID специалиста"
	msgScheduleNotFound    = "расписание специалиста не найдено"
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

// Handle GET /api/v1/specialists/{specialistId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	specialistID, err := handlers.PathInt64(r, "specialistId")
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/schedule - Invalid specialist ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialistID)
		return
	}

	schedule, err := h.service.Get(r.Context(), specialistID)
	if err != nil {
		if errors.Is(err, scheduleService.ErrScheduleNotFound) {
			h.logger.Warn("GET /specialists/{id}/schedule - Schedule not found: specialist_id=%d", specialistID)
			handlers.RespondNotFound(w, msgScheduleNotFound)
			return
		}
		h.logger.Error("GET /specialists/{id}/schedule - Failed to get schedule: specialist_id=%d, error=%v", specialistID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /specialists/{id}/schedule - Schedule retrieved: specialist_id=%d", specialistID)
	handlers.RespondJSON(w, http.StatusOK, handlers.NewScheduleDTO(schedule))
}
