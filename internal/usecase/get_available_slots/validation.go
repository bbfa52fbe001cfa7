package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/availability"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
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

	return nil
}

// validateDate проверяет, что дата не в прошлом и не дальше горизонта записи
func validateDate(date, now time.Time, advanceDays int) error {
	if availability.IsDateInPast(date, now) {
		return domain.NewValidationError("date", "must not be in the past")
	}

	if !availability.WithinHorizon(date, now, advanceDays) {
		return domain.NewValidationError("date", fmt.Sprintf("can only book %d days in advance", advanceDays))
	}

	return nil
}
