package recalculate_bonus_balance

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidUserID = "некорректный ID пользователя"
	msgForbidden     = "пересчитывать баланс может только администратор"
	msgUserNotFound  = "пользователь не найден"
)

type Handler struct {
	ledger BonusLedger
	logger Logger
}

func NewHandler(ledger BonusLedger, logger Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

// Handle POST /api/v1/users/{userId}/bonus/recalculate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if middleware.GetRole(r.Context()) != domain.RoleAdmin {
		h.logger.Warn("POST /users/{id}/bonus/recalculate - Forbidden: role=%s", middleware.GetRole(r.Context()))
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	userID, err := handlers.PathInt64(r, "userId")
	if err != nil {
		h.logger.Warn("POST /users/{id}/bonus/recalculate - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	balance, err := h.ledger.RecalculateBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("POST /users/{id}/bonus/recalculate - User not found: user_id=%d", userID)
			handlers.RespondNotFound(w, msgUserNotFound)
			return
		}
		h.logger.Error("POST /users/{id}/bonus/recalculate - Failed to recalculate: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /users/{id}/bonus/recalculate - Balance recalculated: user_id=%d, balance=%d", userID, balance)
	handlers.RespondJSON(w, http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}
