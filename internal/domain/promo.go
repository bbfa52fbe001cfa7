package domain

import "github.com/shopspring/decimal"

// DiscountType тип скидки промокода
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Promo результат проверки промокода внешним сервисом
type Promo struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Discount сумма скидки для цены, не больше самой цены и не меньше нуля
func (p *Promo) Discount(price decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch p.DiscountType {
	case DiscountPercent:
		discount = price.Mul(p.DiscountValue).Div(hundred).Round(2)
	case DiscountFixed:
		discount = p.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(price) {
		return price
	}
	return discount
}
