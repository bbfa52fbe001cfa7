package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/availability"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/promoservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
	"github.com/m04kA/SMC-WellnessBooking/pkg/txmanager"
)

// Результаты бронирования для метрик
const (
	resultSuccess           = "success"
	resultValidation        = "validation_error"
	resultSlotUnavailable   = "slot_unavailable"
	resultInsufficientBonus = "insufficient_bonus"
	resultPromoInvalid      = "promo_invalid"
	resultNotFound          = "not_found"
	resultError             = "error"
)

// UseCase use case для создания записи
type UseCase struct {
	scheduleRepo    ScheduleRepository
	appointmentRepo AppointmentRepository
	catalogClient   CatalogClient
	promoClient     PromoClient
	ledger          BonusLedger
	txManager       TransactionManager
	notifier        Notifier
	metrics         MetricsRecorder
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	scheduleRepo ScheduleRepository,
	appointmentRepo AppointmentRepository,
	catalogClient CatalogClient,
	promoClient PromoClient,
	ledger BonusLedger,
	txManager TransactionManager,
	notifier Notifier,
	metrics MetricsRecorder,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
		catalogClient:   catalogClient,
		promoClient:     promoClient,
		ledger:          ledger,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания записи
//
// Запись и все операции бонусного журнала создаются одной сериализуемой транзакцией.
// Внутри неё берётся advisory блокировка (специалист, дата) и заново проверяется,
// что интервал свободен. При любой ошибке не остаётся ни записи, ни операций журнала
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	resp, err := uc.execute(ctx, req)
	uc.metrics.IncBooking(resultOf(err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: specialist=%d, service=%d, date=%s, window=%s-%s, user=%s, bonusSpend=%d",
		req.SpecialistID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime,
		userLabel(req.UserID), req.BonusSpend)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем дату относительно текущего времени центра
	now := uc.now()

	if availability.IsDateInPast(req.Date, now) {
		uc.logger.Warn("CreateBooking: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, domain.NewValidationError("date", "must not be in the past")
	}

	if !availability.WithinHorizon(req.Date, now, uc.settings.AdvanceDays) {
		uc.logger.Warn("CreateBooking: date %s is beyond %d days horizon", req.Date.Format(domain.DateFormat), uc.settings.AdvanceDays)
		return nil, domain.NewValidationError("date", fmt.Sprintf("can only book %d days in advance", uc.settings.AdvanceDays))
	}

	if !availability.StartsInTime(req.Date, req.StartTime, now, uc.settings.MinNoticeMinutes) {
		uc.logger.Warn("CreateBooking: start %s violates %d minutes notice", req.StartTime, uc.settings.MinNoticeMinutes)
		return nil, fmt.Errorf("%w: at least %d minutes in advance", ErrTooLateToBook, uc.settings.MinNoticeMinutes)
	}

	// 3. Получаем услугу
	service, err := uc.catalogClient.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, req.ServiceID)
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 4. Специалист оказывает услугу, интервал равен её длительности
	if err := validateService(req, service); err != nil {
		uc.logger.Warn("CreateBooking: service id=%d does not match request: %v", req.ServiceID, err)
		return nil, err
	}

	// 5. Проверяем промокод. Отклонённый промокод прерывает запись до любых изменений
	promo, err := uc.validatePromo(ctx, req)
	if err != nil {
		return nil, err
	}

	// 6. Считаем цену
	price, err := calculatePrice(req, service, promo)
	if err != nil {
		uc.logger.Warn("CreateBooking: price calculation failed: %v", err)
		return nil, err
	}

	var resp *Response

	// 7. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var err error
		resp, err = uc.book(txCtx, req, service, promo, price)
		return err
	})
	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.logger.Warn("CreateBooking: concurrent booking for specialist=%d on %s: %v",
				req.SpecialistID, req.Date.Format(domain.DateFormat), err)
			return nil, fmt.Errorf("%w: %v", ErrSlotConflict, err)
		}
		return nil, err
	}

	uc.logger.Info("CreateBooking: created appointment id=%d status=%s price=%s (original=%s, discount=%s, bonus=%d)",
		resp.Appointment.ID, resp.Appointment.Status, price.final.StringFixed(2),
		price.original.StringFixed(2), price.discount.StringFixed(2), price.bonus)

	// 8. Уведомление отправляется после фиксации и не влияет на результат
	uc.notifier.Dispatch(notification.NewBookedEvent(resp.Appointment))

	return resp, nil
}

// book шаги записи внутри транзакции
func (uc *UseCase) book(
	ctx context.Context,
	req *Request,
	service *catalogservice.Service,
	promo *domain.Promo,
	price priceBreakdown,
) (*Response, error) {
	// 7.1. Сериализуем записи к специалисту на дату
	if err := uc.appointmentRepo.LockSpecialistDate(ctx, req.SpecialistID, req.Date); err != nil {
		uc.logger.Error("CreateBooking: failed to lock specialist=%d date=%s: %v",
			req.SpecialistID, req.Date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: failed to lock specialist date: %w", ErrInternal, err)
	}

	// 7.2. Расписание и живые записи на дату
	schedule, err := uc.scheduleRepo.GetBySpecialistID(ctx, req.SpecialistID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Warn("CreateBooking: specialist=%d has no schedule", req.SpecialistID)
			return nil, ErrNoSchedule
		}
		uc.logger.Error("CreateBooking: failed to get schedule for specialist=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: failed to get schedule: %w", ErrInternal, err)
	}

	appointments, err := uc.appointmentRepo.GetBySpecialistWithFilter(ctx, domain.SpecialistAppointmentsFilter{
		SpecialistID: req.SpecialistID,
		StartDate:    &req.Date,
		EndDate:      &req.Date,
	})
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to get appointments: %w", ErrInternal, err)
	}

	// 7.3. Повторная проверка интервала по свежим данным
	if err := availability.CheckWindow(schedule, req.Date, req.StartTime, req.EndTime, appointments); err != nil {
		uc.logger.Warn("CreateBooking: window %s-%s is not available: %v", req.StartTime, req.EndTime, err)
		return nil, err
	}

	// 7.4. Клиент и его баланс. Списание - жёсткое условие записи
	var user *domain.User
	if req.UserID != nil {
		user, err = uc.ledger.GetUser(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				uc.logger.Warn("CreateBooking: user id=%d not found", *req.UserID)
				return nil, fmt.Errorf("%w: id=%d", ErrUserNotFound, *req.UserID)
			}
			return nil, err
		}
	}

	if price.bonus > 0 {
		balance, err := uc.ledger.GetBalance(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if balance < price.bonus {
			uc.logger.Warn("CreateBooking: user=%d has %d bonus, requested %d", user.ID, balance, price.bonus)
			return nil, fmt.Errorf("%w: balance=%d requested=%d", domain.ErrInsufficientBonus, balance, price.bonus)
		}
	}

	// 7.5. Создаём запись
	status := domain.AppointmentConfirmed
	if service.RequiresApproval {
		status = domain.AppointmentPending
	}

	appointment := &domain.Appointment{
		SpecialistID:   req.SpecialistID,
		ServiceID:      req.ServiceID,
		UserID:         req.UserID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Price:          price.final,
		OriginalPrice:  price.original,
		DiscountAmount: price.discount,
		BonusAmount:    price.bonus,
		Status:         status,
		Notes:          req.Notes,
	}
	if promo != nil {
		appointment.PromoCode = ptr.Ptr(promo.Code)
	}

	created, err := uc.appointmentRepo.Create(ctx, appointment)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrSlotTaken) {
			uc.logger.Warn("CreateBooking: slot taken on insert: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrSlotConflict, err)
		}
		uc.logger.Error("CreateBooking: failed to create appointment: %v", err)
		return nil, fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
	}

	resp := &Response{Appointment: created, Transactions: make([]*domain.BonusTransaction, 0, 3)}
	if user == nil {
		return resp, nil
	}

	// 7.6. Бонусные операции
	inputs := make([]bonusService.CreateTransactionInput, 0, 3)

	if price.bonus > 0 {
		inputs = append(inputs, bonusService.CreateTransactionInput{
			UserID:        user.ID,
			Amount:        -price.bonus,
			Type:          domain.BonusSpent,
			Status:        domain.BonusCompleted,
			AppointmentID: ptr.Ptr(created.ID),
			Description:   fmt.Sprintf("spent on appointment #%d", created.ID),
		})
	}

	if service.BookingBonus > 0 {
		inputs = append(inputs, bonusService.CreateTransactionInput{
			UserID:        user.ID,
			Amount:        service.BookingBonus,
			Type:          domain.BonusBooking,
			Status:        domain.BonusPending,
			AppointmentID: ptr.Ptr(created.ID),
			Description:   fmt.Sprintf("bonus for appointment #%d", created.ID),
		})
	}

	referral, err := uc.referralInput(ctx, user, created.ID)
	if err != nil {
		return nil, err
	}
	if referral != nil {
		inputs = append(inputs, *referral)
	}

	for _, in := range inputs {
		tx, err := uc.ledger.CreateTransaction(ctx, in)
		if err != nil {
			return nil, err
		}
		resp.Transactions = append(resp.Transactions, tx)
	}

	return resp, nil
}

// referralInput реферальный бонус пригласившему за первую живую запись приглашённого
func (uc *UseCase) referralInput(ctx context.Context, user *domain.User, appointmentID int64) (*bonusService.CreateTransactionInput, error) {
	if user.ReferredBy == nil || uc.settings.ReferralAmount <= 0 {
		return nil, nil
	}

	count, err := uc.appointmentRepo.CountActiveByUser(ctx, user.ID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to count appointments of user=%d: %v", user.ID, err)
		return nil, fmt.Errorf("%w: failed to count appointments: %w", ErrInternal, err)
	}

	// Только что созданная запись уже учтена
	if count != 1 {
		return nil, nil
	}

	return &bonusService.CreateTransactionInput{
		UserID:        *user.ReferredBy,
		Amount:        uc.settings.ReferralAmount,
		Type:          domain.BonusReferral,
		Status:        domain.BonusPending,
		AppointmentID: ptr.Ptr(appointmentID),
		Description:   fmt.Sprintf("referral bonus for user #%d", user.ID),
	}, nil
}

func (uc *UseCase) validatePromo(ctx context.Context, req *Request) (*domain.Promo, error) {
	if req.PromoCode == nil {
		return nil, nil
	}

	code := strings.TrimSpace(*req.PromoCode)
	p, err := uc.promoClient.ValidatePromo(ctx, code, req.ServiceID)
	if err != nil {
		if errors.Is(err, promoservice.ErrPromoInvalid) {
			uc.logger.Warn("CreateBooking: promo %q rejected for service=%d: %v", code, req.ServiceID, err)
			return nil, fmt.Errorf("%w: %v", domain.ErrPromoInvalid, err)
		}
		uc.logger.Error("CreateBooking: failed to validate promo %q: %v", code, err)
		return nil, fmt.Errorf("%w: failed to validate promo: %v", ErrInternal, err)
	}

	return &domain.Promo{
		Code:          p.Code,
		DiscountType:  domain.DiscountType(p.DiscountType),
		DiscountValue: p.DiscountValue,
	}, nil
}

func (uc *UseCase) now() time.Time {
	now := uc.timeProvider.Now()
	if uc.settings.Location != nil {
		now = now.In(uc.settings.Location)
	}
	return now
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, domain.ErrValidation):
		return resultValidation
	case errors.Is(err, domain.ErrSlotUnavailable):
		return resultSlotUnavailable
	case errors.Is(err, domain.ErrInsufficientBonus):
		return resultInsufficientBonus
	case errors.Is(err, domain.ErrPromoInvalid):
		return resultPromoInvalid
	case errors.Is(err, domain.ErrNotFound):
		return resultNotFound
	default:
		return resultError
	}
}

func userLabel(userID *int64) string {
	if userID == nil {
		return "guest"
	}
	return fmt.Sprintf("%d", *userID)
}
