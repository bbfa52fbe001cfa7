package handlers

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// Общие DTO ответов, которые отдают несколько маршрутов

// AppointmentResponse запись клиента
type AppointmentResponse struct {
	ID                 int64   `json:"id"`
	SpecialistID       int64   `json:"specialistId"`
	ServiceID          int64   `json:"serviceId"`
	UserID             *int64  `json:"userId,omitempty"`
	Date               string  `json:"date"`
	StartTime          string  `json:"startTime"`
	EndTime            string  `json:"endTime"`
	Status             string  `json:"status"`
	Price              string  `json:"price"`
	OriginalPrice      string  `json:"originalPrice"`
	DiscountAmount     string  `json:"discountAmount"`
	BonusAmount        int64   `json:"bonusAmount"`
	PromoCode          *string `json:"promoCode,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledBy        *string `json:"cancelledBy,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// NewAppointmentResponse конвертирует доменную запись в DTO
func NewAppointmentResponse(a *domain.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                 a.ID,
		SpecialistID:       a.SpecialistID,
		ServiceID:          a.ServiceID,
		UserID:             a.UserID,
		Date:               a.Date.Format(domain.DateFormat),
		StartTime:          a.StartTime.String(),
		EndTime:            a.EndTime.String(),
		Status:             string(a.Status),
		Price:              a.Price.StringFixed(2),
		OriginalPrice:      a.OriginalPrice.StringFixed(2),
		DiscountAmount:     a.DiscountAmount.StringFixed(2),
		BonusAmount:        a.BonusAmount,
		PromoCode:          a.PromoCode,
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          a.UpdatedAt.Format(time.RFC3339),
	}
	if a.CancelledBy != nil {
		by := string(*a.CancelledBy)
		resp.CancelledBy = &by
	}
	if a.CancelledAt != nil {
		at := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &at
	}
	return resp
}

// BonusTransactionResponse операция бонусного журнала
type BonusTransactionResponse struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"userId"`
	Amount        int64  `json:"amount"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	AppointmentID *int64 `json:"appointmentId,omitempty"`
	Description   string `json:"description"`
	CreatedAt     string `json:"createdAt"`
}

// NewBonusTransactionsResponse конвертирует операции журнала в DTO
func NewBonusTransactionsResponse(txs []*domain.BonusTransaction) []BonusTransactionResponse {
	result := make([]BonusTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		result = append(result, BonusTransactionResponse{
			ID:            tx.ID,
			UserID:        tx.UserID,
			Amount:        tx.Amount,
			Type:          string(tx.Type),
			Status:        string(tx.Status),
			AppointmentID: tx.AppointmentID,
			Description:   tx.Description,
			CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return result
}

// ScheduleDTO расписание специалиста. Дни недели по ISO 8601: 1=понедельник ... 7=воскресенье
type ScheduleDTO struct {
	SpecialistID int64         `json:"specialistId"`
	Enabled      bool          `json:"enabled"`
	WorkDays     []WorkDayDTO  `json:"workDays" validate:"dive"`
	Vacations    []VacationDTO `json:"vacations" validate:"dive"`
}

type WorkDayDTO struct {
	Weekday     int             `json:"weekday" validate:"min=1,max=7"`
	Active      bool            `json:"active"`
	StartTime   string          `json:"startTime" validate:"required"`
	EndTime     string          `json:"endTime" validate:"required"`
	LunchBreaks []LunchBreakDTO `json:"lunchBreaks" validate:"dive"`
}

type LunchBreakDTO struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Enabled   bool   `json:"enabled"`
}

type VacationDTO struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Enabled   bool   `json:"enabled"`
}

// NewScheduleDTO конвертирует доменное расписание, дни недели переводятся в ISO
func NewScheduleDTO(s *domain.WorkSchedule) ScheduleDTO {
	dto := ScheduleDTO{
		SpecialistID: s.SpecialistID,
		Enabled:      s.Enabled,
		WorkDays:     make([]WorkDayDTO, 0, len(s.WorkDays)),
		Vacations:    make([]VacationDTO, 0, len(s.Vacations)),
	}
	for _, day := range s.WorkDays {
		dayDTO := WorkDayDTO{
			Weekday:     day.Weekday.ISO(),
			Active:      day.Active,
			StartTime:   day.StartTime.String(),
			EndTime:     day.EndTime.String(),
			LunchBreaks: make([]LunchBreakDTO, 0, len(day.LunchBreaks)),
		}
		for _, lunch := range day.LunchBreaks {
			dayDTO.LunchBreaks = append(dayDTO.LunchBreaks, LunchBreakDTO{
				StartTime: lunch.StartTime.String(),
				EndTime:   lunch.EndTime.String(),
				Enabled:   lunch.Enabled,
			})
		}
		dto.WorkDays = append(dto.WorkDays, dayDTO)
	}
	for _, v := range s.Vacations {
		dto.Vacations = append(dto.Vacations, VacationDTO{
			StartDate: v.StartDate.Format(domain.DateFormat),
			EndDate:   v.EndDate.Format(domain.DateFormat),
			Enabled:   v.Enabled,
		})
	}
	return dto
}

// ToDomain конвертирует DTO в доменное расписание
// Ошибки формата возвращаются как *domain.ValidationError с путём к полю
func (d ScheduleDTO) ToDomain(specialistID int64) (*domain.WorkSchedule, error) {
	schedule := &domain.WorkSchedule{
		SpecialistID: specialistID,
		Enabled:      d.Enabled,
		WorkDays:     make([]domain.WorkDay, 0, len(d.WorkDays)),
		Vacations:    make([]domain.Vacation, 0, len(d.Vacations)),
	}

	for i, dayDTO := range d.WorkDays {
		field := fmt.Sprintf("workDays[%d]", i)
		weekday, err := domain.WeekdayFromISO(dayDTO.Weekday)
		if err != nil {
			return nil, domain.NewValidationError(field+".weekday", "must be in range 1..7")
		}

		day := domain.WorkDay{
			Weekday:     weekday,
			Active:      dayDTO.Active,
			StartTime:   types.TimeString(dayDTO.StartTime),
			EndTime:     types.TimeString(dayDTO.EndTime),
			LunchBreaks: make([]domain.LunchBreak, 0, len(dayDTO.LunchBreaks)),
		}
		for _, lunch := range dayDTO.LunchBreaks {
			day.LunchBreaks = append(day.LunchBreaks, domain.LunchBreak{
				StartTime: types.TimeString(lunch.StartTime),
				EndTime:   types.TimeString(lunch.EndTime),
				Enabled:   lunch.Enabled,
			})
		}
		schedule.WorkDays = append(schedule.WorkDays, day)
	}

	for i, v := range d.Vacations {
		field := fmt.Sprintf("vacations[%d]", i)
		start, err := time.Parse(domain.DateFormat, v.StartDate)
		if err != nil {
			return nil, domain.NewValidationError(field+".startDate", "must be YYYY-MM-DD")
		}
		end, err := time.Parse(domain.DateFormat, v.EndDate)
		if err != nil {
			return nil, domain.NewValidationError(field+".endDate", "must be YYYY-MM-DD")
		}
		schedule.Vacations = append(schedule.Vacations, domain.Vacation{
			StartDate: start,
			EndDate:   end,
			Enabled:   v.Enabled,
		})
	}

	return schedule, nil
}
