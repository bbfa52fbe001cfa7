package catalogservice

import "github.com/shopspring/decimal"

// Service услуга из каталога центра
type Service struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	DurationMinutes  int             `json:"duration_minutes"`
	Price            decimal.Decimal `json:"price"`
	RequiresApproval bool            `json:"requires_approval"` // запись ждёт подтверждения администратора
	BookingBonus     int64           `json:"booking_bonus"`     // бонусы за завершённую запись
	SpecialistIDs    []int64         `json:"specialist_ids"`
}

// OfferedBy проверяет, что специалист оказывает услугу
func (s *Service) OfferedBy(specialistID int64) bool {
	for _, id := range s.SpecialistIDs {
		if id == specialistID {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
