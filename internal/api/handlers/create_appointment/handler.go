package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	createBooking "github.com/m04kA/SMC-WellnessBooking/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRequest     = "некорректные параметры записи"
	msgForbiddenUser      = "нельзя создать запись от имени другого пользователя"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgTooLateToBook      = "слишком поздно для записи на этот слот"
	msgServiceNotFound    = "услуга не найдена"
	msgUserNotFound       = "пользователь не найден"
	msgInsufficientBonus  = "недостаточно бонусов на счёте"
	msgPromoInvalid       = "промокод недействителен"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
// Анонимный запрос создаёт гостевую запись. Сотрудник может записать клиента, указав userId
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		if errors.Is(err, domain.ErrValidation) {
			handlers.RespondValidationError(w, err, msgInvalidRequest)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	userID, ok := h.resolveUser(r, req.UserID)
	if !ok {
		h.logger.Warn("POST /appointments - Forbidden: role=%s, requested_user_id=%v",
			middleware.GetRole(r.Context()), req.UserID)
		handlers.RespondForbidden(w, msgForbiddenUser)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondValidationError(w, err, msgInvalidRequest)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /appointments - Too late to book: specialist_id=%d, date=%s, start=%s",
				req.SpecialistID, req.Date, req.StartTime)
			handlers.RespondConflict(w, msgTooLateToBook)

		case errors.Is(err, domain.ErrSlotUnavailable):
			h.logger.Warn("POST /appointments - Slot not available: specialist_id=%d, date=%s, start=%s, error=%v",
				req.SpecialistID, req.Date, req.StartTime, err)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /appointments - Service not found: service_id=%d", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrUserNotFound):
			h.logger.Warn("POST /appointments - User not found: user_id=%v", userID)
			handlers.RespondNotFound(w, msgUserNotFound)

		case errors.Is(err, domain.ErrInsufficientBonus):
			h.logger.Warn("POST /appointments - Insufficient bonus: user_id=%v, bonus_spend=%d", userID, req.BonusSpend)
			handlers.RespondConflict(w, msgInsufficientBonus)

		case errors.Is(err, domain.ErrPromoInvalid):
			h.logger.Warn("POST /appointments - Promo invalid: service_id=%d", req.ServiceID)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgPromoInvalid)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("POST /appointments - Invalid request: %v", err)
			handlers.RespondValidationError(w, err, msgInvalidRequest)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: specialist_id=%d, service_id=%d, error=%v",
				req.SpecialistID, req.ServiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, specialist_id=%d, status=%s",
		result.Appointment.ID, result.Appointment.SpecialistID, result.Appointment.Status)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

// resolveUser определяет клиента записи по роли инициатора
func (h *Handler) resolveUser(r *http.Request, requested *int64) (*int64, bool) {
	role := middleware.GetRole(r.Context())
	switch {
	case role == domain.RoleAdmin || role == domain.RoleSpecialist:
		return requested, true
	case role == domain.RoleGuest:
		return nil, requested == nil
	default:
		userID, _ := middleware.GetUserID(r.Context())
		if requested != nil && *requested != userID {
			return nil, false
		}
		return &userID, true
	}
}
