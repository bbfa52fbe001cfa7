package bonus

import "github.com/m04kA/SMC-WellnessBooking/internal/domain"

// CreateTransactionInput параметры новой операции журнала
type CreateTransactionInput struct {
	UserID        int64
	Amount        int64
	Type          domain.BonusTransactionType
	Status        domain.BonusTransactionStatus
	AppointmentID *int64
	Description   string
}

// Account баланс пользователя вместе с журналом
type Account struct {
	UserID       int64
	Balance      int64
	Transactions []*domain.BonusTransaction
}
