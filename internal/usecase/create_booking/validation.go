package create_booking

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SpecialistID <= 0 {
		return domain.NewValidationError("specialistId", "must be positive")
	}

	if req.ServiceID <= 0 {
		return domain.NewValidationError("serviceId", "must be positive")
	}

	if req.Date.IsZero() {
		return domain.NewValidationError("date", "is required")
	}

	if err := req.StartTime.Validate(); err != nil {
		return domain.NewValidationError("startTime", "must be HH:MM")
	}

	if err := req.EndTime.Validate(); err != nil {
		return domain.NewValidationError("endTime", "must be HH:MM")
	}

	if !req.StartTime.IsBefore(req.EndTime) {
		return domain.NewValidationError("endTime", "must be after startTime")
	}

	if req.UserID != nil && *req.UserID <= 0 {
		return domain.NewValidationError("userId", "must be positive")
	}

	if req.BonusSpend < 0 {
		return domain.NewValidationError("bonusSpend", "must not be negative")
	}

	// Гость не может тратить бонусы: у него нет журнала
	if req.UserID == nil && req.BonusSpend > 0 {
		return domain.NewValidationError("bonusSpend", "guests cannot spend bonus")
	}

	if req.PromoCode != nil && strings.TrimSpace(*req.PromoCode) == "" {
		return domain.NewValidationError("promoCode", "must not be empty")
	}

	if req.OriginalPrice != nil && req.OriginalPrice.IsNegative() {
		return domain.NewValidationError("originalPrice", "must not be negative")
	}

	if req.Notes != nil && len([]rune(*req.Notes)) > domain.MaxNotesLength {
		return domain.NewValidationError("notes", fmt.Sprintf("must be at most %d characters", domain.MaxNotesLength))
	}

	return nil
}

// validateService проверяет, что специалист оказывает услугу и интервал равен её длительности
func validateService(req *Request, service *catalogservice.Service) error {
	if !service.OfferedBy(req.SpecialistID) {
		return domain.NewValidationError("serviceId",
			fmt.Sprintf("service %d is not offered by specialist %d", service.ID, req.SpecialistID))
	}

	duration := req.EndTime.Minutes() - req.StartTime.Minutes()
	if duration != service.DurationMinutes {
		return domain.NewValidationError("endTime",
			fmt.Sprintf("window is %d minutes, service takes %d", duration, service.DurationMinutes))
	}

	return nil
}

// calculatePrice считает итоговую цену: исходная - скидка по промокоду - бонусы
// Бонусами нельзя оплатить больше, чем цена после скидки
func calculatePrice(req *Request, service *catalogservice.Service, promo *domain.Promo) (priceBreakdown, error) {
	original := service.Price
	if req.OriginalPrice != nil && req.OriginalPrice.IsPositive() {
		original = *req.OriginalPrice
	}

	discount := decimal.Zero
	if promo != nil {
		discount = promo.Discount(original)
	}

	afterDiscount := original.Sub(discount)
	bonus := decimal.NewFromInt(req.BonusSpend)
	if bonus.GreaterThan(afterDiscount) {
		return priceBreakdown{}, domain.NewValidationError("bonusSpend",
			fmt.Sprintf("bonus %d exceeds price %s", req.BonusSpend, afterDiscount.StringFixed(2)))
	}

	return priceBreakdown{
		original: original,
		discount: discount,
		bonus:    req.BonusSpend,
		final:    afterDiscount.Sub(bonus),
	}, nil
}
