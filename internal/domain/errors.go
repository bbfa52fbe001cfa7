package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра бронирования
// Use cases и сервисы возвращают ошибки, для которых errors.Is срабатывает на одну из них
var (
	ErrValidation        = errors.New("validation error")
	ErrSlotUnavailable   = errors.New("slot is unavailable")
	ErrInsufficientBonus = errors.New("insufficient bonus balance")
	ErrPromoInvalid      = errors.New("promo code is invalid")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
)

// ValidationError ошибка валидации с указанием поля
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError создает ошибку валидации поля
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FieldOf возвращает имя поля из ValidationError, если ошибка его содержит
func FieldOf(err error) (string, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Field, true
	}
	return "", false
}
