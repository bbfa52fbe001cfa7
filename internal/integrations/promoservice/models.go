package promoservice

import "github.com/shopspring/decimal"

// ValidateRequest тело запроса проверки промокода
type ValidateRequest struct {
	Code      string `json:"code"`
	ServiceID int64  `json:"service_id"`
}

// Promo результат успешной проверки
type Promo struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"` // percent | fixed
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// ErrorResponse модель ошибки от PromoService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
