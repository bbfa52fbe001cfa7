package get_bonus_account

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

const (
	msgInvalidUserID = "некорректный ID пользователя"
	msgUserNotFound  = "пользователь не найден"
	msgForbidden     = "нет доступа к бонусному счёту"
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

// Handle GET /api/v1/users/{userId}/bonus
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.PathInt64(r, "userId")
	if err != nil {
		h.logger.Warn("GET /users/{id}/bonus - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	currentUserID, _ := middleware.GetUserID(r.Context())
	if middleware.GetRole(r.Context()) != domain.RoleAdmin && currentUserID != userID {
		h.logger.Warn("GET /users/{id}/bonus - Forbidden: user_id=%d, current_user_id=%d", userID, currentUserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("GET /users/{id}/bonus - User not found: user_id=%d", userID)
			handlers.RespondNotFound(w, msgUserNotFound)
			return
		}
		h.logger.Error("GET /users/{id}/bonus - Failed to get account: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{id}/bonus - Account retrieved: user_id=%d, balance=%d, transactions=%d",
		userID, account.Balance, len(account.Transactions))
	handlers.RespondJSON(w, http.StatusOK, FromAccount(account))
}
