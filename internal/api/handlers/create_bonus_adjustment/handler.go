package create_bonus_adjustment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidUserID      = "некорректный ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRequest     = "некорректная корректировка"
	msgForbidden          = "корректировать бонусы может только администратор"
	msgUserNotFound       = "пользователь не найден"
	msgInsufficientBonus  = "недостаточно бонусов на счёте"
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

// Handle POST /api/v1/users/{userId}/bonus/adjustments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if middleware.GetRole(r.Context()) != domain.RoleAdmin {
		h.logger.Warn("POST /users/{id}/bonus/adjustments - Forbidden: role=%s", middleware.GetRole(r.Context()))
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	userID, err := handlers.PathInt64(r, "userId")
	if err != nil {
		h.logger.Warn("POST /users/{id}/bonus/adjustments - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	var req CreateAdjustmentRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /users/{id}/bonus/adjustments - Invalid request body: %v", err)
		if errors.Is(err, domain.ErrValidation) {
			handlers.RespondValidationError(w, err, msgInvalidRequest)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	tx, err := h.ledger.CreateManualAdjustment(r.Context(), userID, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("POST /users/{id}/bonus/adjustments - User not found: user_id=%d", userID)
			handlers.RespondNotFound(w, msgUserNotFound)

		case errors.Is(err, domain.ErrInsufficientBonus):
			h.logger.Warn("POST /users/{id}/bonus/adjustments - Insufficient bonus: user_id=%d, amount=%d", userID, req.Amount)
			handlers.RespondConflict(w, msgInsufficientBonus)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("POST /users/{id}/bonus/adjustments - Invalid adjustment: %v", err)
			handlers.RespondValidationError(w, err, msgInvalidRequest)

		default:
			h.logger.Error("POST /users/{id}/bonus/adjustments - Failed to create adjustment: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /users/{id}/bonus/adjustments - Adjustment created: user_id=%d, transaction_id=%d, amount=%d",
		userID, tx.ID, tx.Amount)
	handlers.RespondJSON(w, http.StatusCreated, handlers.NewBonusTransactionsResponse([]*domain.BonusTransaction{tx})[0])
}
