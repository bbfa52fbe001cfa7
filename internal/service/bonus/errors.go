package bonus

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

var (
	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = fmt.Errorf("%w: user", domain.ErrNotFound)

	// ErrTransactionNotFound возвращается, когда операция журнала не найдена
	ErrTransactionNotFound = fmt.Errorf("%w: bonus transaction", domain.ErrNotFound)

	// ErrRefundExceedsSpent возвращается, когда возврат по записи превысил бы списанное по ней
	ErrRefundExceedsSpent = fmt.Errorf("%w: refund exceeds spent amount", domain.ErrInvalidTransition)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bonus.ledger: internal error")
)
