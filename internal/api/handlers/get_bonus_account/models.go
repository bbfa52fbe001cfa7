package get_bonus_account

import (
	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
)

// BonusAccountResponse HTTP response model
type BonusAccountResponse struct {
	UserID       int64                               `json:"userId"`
	Balance      int64                               `json:"balance"`
	Transactions []handlers.BonusTransactionResponse `json:"transactions"`
}

// FromAccount конвертирует бонусный счёт в HTTP модель
func FromAccount(account *bonusService.Account) *BonusAccountResponse {
	return &BonusAccountResponse{
		UserID:       account.UserID,
		Balance:      account.Balance,
		Transactions: handlers.NewBonusTransactionsResponse(account.Transactions),
	}
}
