package promoservice

import "errors"

var (
	// ErrPromoInvalid возвращается, когда промокод не существует, истёк или не подходит к услуге
	ErrPromoInvalid = errors.New("promo code is invalid")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("promoservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("promoservice client: invalid response")
)
