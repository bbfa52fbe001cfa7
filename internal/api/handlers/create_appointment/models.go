package create_appointment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	createBooking "github.com/m04kA/SMC-WellnessBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	SpecialistID  int64            `json:"specialistId" validate:"required,gt=0"`
	ServiceID     int64            `json:"serviceId" validate:"required,gt=0"`
	Date          string           `json:"date" validate:"required"`      // "2025-10-15"
	StartTime     string           `json:"startTime" validate:"required"` // "10:00"
	EndTime       string           `json:"endTime" validate:"required"`   // "11:00"
	UserID        *int64           `json:"userId,omitempty" validate:"omitempty,gt=0"`
	PromoCode     *string          `json:"promoCode,omitempty" validate:"omitempty,max=64"`
	BonusSpend    int64            `json:"bonusSpend" validate:"gte=0"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreateAppointmentResponse HTTP response model
type CreateAppointmentResponse struct {
	Appointment  handlers.AppointmentResponse        `json:"appointment"`
	Transactions []handlers.BonusTransactionResponse `json:"transactions"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
// userID - клиент, от имени которого создаётся запись, nil для гостя
func (r *CreateAppointmentRequest) ToUseCaseRequest(userID *int64) (*createBooking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, domain.NewValidationError("date", "must be YYYY-MM-DD")
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, domain.NewValidationError("startTime", "must be HH:MM")
	}

	endTime, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, domain.NewValidationError("endTime", "must be HH:MM")
	}

	return &createBooking.Request{
		SpecialistID:  r.SpecialistID,
		ServiceID:     r.ServiceID,
		Date:          date,
		StartTime:     startTime,
		EndTime:       endTime,
		UserID:        userID,
		PromoCode:     r.PromoCode,
		BonusSpend:    r.BonusSpend,
		OriginalPrice: r.OriginalPrice,
		Notes:         r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createBooking.Response) *CreateAppointmentResponse {
	return &CreateAppointmentResponse{
		Appointment:  handlers.NewAppointmentResponse(resp.Appointment),
		Transactions: handlers.NewBonusTransactionsResponse(resp.Transactions),
	}
}
