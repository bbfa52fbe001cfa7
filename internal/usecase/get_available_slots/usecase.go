package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/availability"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
)

// UseCase use case для получения доступных слотов для записи
type UseCase struct {
	scheduleRepo    ScheduleRepository
	appointmentRepo AppointmentRepository
	catalogClient   CatalogClient
	txManager       TransactionManager
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	scheduleRepo ScheduleRepository,
	appointmentRepo AppointmentRepository,
	catalogClient CatalogClient,
	txManager TransactionManager,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
		catalogClient:   catalogClient,
		txManager:       txManager,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения доступных слотов
// Блокировок не берёт: расписание и записи читаются из одного снимка read-only транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: specialist=%d, service=%d, date=%s",
		req.SpecialistID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	if uc.settings.Location != nil {
		now = now.In(uc.settings.Location)
	}

	// 3. Валидация даты
	if err := validateDate(req.Date, now, uc.settings.AdvanceDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	// 4. Получаем услугу, её длительность задаёт длину слота
	service, err := uc.catalogClient.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, req.ServiceID)
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if !service.OfferedBy(req.SpecialistID) {
		uc.logger.Warn("GetAvailableSlots: service id=%d is not offered by specialist=%d", req.ServiceID, req.SpecialistID)
		return nil, domain.NewValidationError("serviceId",
			fmt.Sprintf("service %d is not offered by specialist %d", req.ServiceID, req.SpecialistID))
	}

	resp := &Response{
		Date:            req.Date,
		SpecialistID:    req.SpecialistID,
		ServiceID:       req.ServiceID,
		DurationMinutes: service.DurationMinutes,
		Slots:           []domain.Slot{},
	}

	// 5. Расписание и записи на дату из одного снимка
	var (
		schedule     *domain.WorkSchedule
		appointments []*domain.Appointment
	)
	err = uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		schedule, err = uc.scheduleRepo.GetBySpecialistID(txCtx, req.SpecialistID)
		if err != nil {
			return err
		}

		appointments, err = uc.appointmentRepo.GetBySpecialistWithFilter(txCtx, domain.SpecialistAppointmentsFilter{
			SpecialistID: req.SpecialistID,
			StartDate:    &req.Date,
			EndDate:      &req.Date,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Info("GetAvailableSlots: specialist=%d has no schedule", req.SpecialistID)
			return resp, nil
		}
		uc.logger.Error("GetAvailableSlots: failed to load schedule and appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to load schedule and appointments: %v", ErrInternal, err)
	}

	// 6. Генерируем слоты и убираем те, что начинаются слишком скоро
	slots := availability.ComputeSlots(schedule, req.Date, service.DurationMinutes, appointments, uc.settings.GranularityMinutes)
	resp.Slots = availability.FilterByNotice(slots, req.Date, now, uc.settings.MinNoticeMinutes)

	uc.logger.Info("GetAvailableSlots: generated %d slots for specialist=%d, service=%d, date=%s",
		len(resp.Slots), req.SpecialistID, req.ServiceID, req.Date.Format(domain.DateFormat))

	return resp, nil
}
