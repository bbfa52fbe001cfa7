package invalidate_service_cache

import (
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidServiceID = "некорректный ID услуги"
	msgForbidden        = "сбрасывать кеш каталога может только администратор"
)

// Handler сбрасывает закешированную услугу после её изменения в каталоге
type Handler struct {
	cache  ServiceCache
	logger Logger
}

func NewHandler(cache ServiceCache, logger Logger) *Handler {
	return &Handler{
		cache:  cache,
		logger: logger,
	}
}

// Handle DELETE /api/v1/cache/services/{serviceId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	role := middleware.GetRole(r.Context())
	if role != domain.RoleAdmin {
		h.logger.Warn("DELETE /cache/services/{id} - Forbidden: role=%s", role)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("DELETE /cache/services/{id} - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	if err := h.cache.Invalidate(r.Context(), serviceID); err != nil {
		h.logger.Error("DELETE /cache/services/{id} - Failed to invalidate: service_id=%d, error=%v", serviceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /cache/services/{id} - Cache entry removed: service_id=%d", serviceID)
	handlers.RespondNoContent(w)
}
