package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
)

// finishedBatchSize размер страницы при выборке завершённых записей
const finishedBatchSize = 500

// Service жизненный цикл записи и синхронизация с бонусным журналом
//
// Каждый переход выполняется одной транзакцией вместе с изменениями журнала:
//   - -> completed: pending начисления (booking, referral) по записи проводятся
//   - -> cancelled: все pending операции по записи отменяются, проведённые списания возвращаются
//
// Повторный переход в текущий статус ничего не меняет
type Service struct {
	repo      AppointmentRepository
	ledger    BonusLedger
	txManager TransactionManager
	notifier  Notifier
	metrics   MetricsRecorder
	logger    Logger

	batchSize uint64
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	repo AppointmentRepository,
	ledger BonusLedger,
	txManager TransactionManager,
	notifier Notifier,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		txManager: txManager,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		batchSize: finishedBatchSize,
	}
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	appointment, err := s.getAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%d not found", id)
		} else {
			s.logger.Error("GetByID: repository error for appointment id=%d: %v", id, err)
		}
		return nil, err
	}
	return appointment, nil
}

// ChangeStatus переводит запись в новый статус и синхронизирует бонусный журнал
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) (*domain.Appointment, error) {
	if err := validateChangeStatus(in); err != nil {
		s.logger.Warn("ChangeStatus: invalid request for appointment id=%d: %v", in.AppointmentID, err)
		return nil, err
	}

	var (
		result  *domain.Appointment
		from    domain.AppointmentStatus
		changed bool
	)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// Строка записи блокируется до конца транзакции
		appointment, err := s.getAppointment(ctx, in.AppointmentID)
		if err != nil {
			return err
		}

		if appointment.Status == in.Target {
			result = appointment
			return nil
		}

		if !appointment.Status.CanTransitionTo(in.Target) {
			return fmt.Errorf("%w: appointment id=%d %s -> %s",
				domain.ErrInvalidTransition, appointment.ID, appointment.Status, in.Target)
		}

		from = appointment.Status

		switch in.Target {
		case domain.AppointmentCancelled:
			if err := s.repo.Cancel(ctx, appointment.ID, in.Reason, in.Role); err != nil {
				return s.repoError("cancel appointment", err)
			}
			if err := s.syncCancelled(ctx, appointment.ID); err != nil {
				return err
			}
			now := time.Now()
			role := in.Role
			appointment.CancellationReason = in.Reason
			appointment.CancelledBy = &role
			appointment.CancelledAt = &now
		case domain.AppointmentCompleted:
			if err := s.repo.UpdateStatus(ctx, appointment.ID, in.Target); err != nil {
				return s.repoError("update status", err)
			}
			if err := s.syncCompleted(ctx, appointment.ID); err != nil {
				return err
			}
		default:
			if err := s.repo.UpdateStatus(ctx, appointment.ID, in.Target); err != nil {
				return s.repoError("update status", err)
			}
		}

		appointment.Status = in.Target
		result = appointment
		changed = true
		return nil
	})
	if err != nil {
		s.logFailure("ChangeStatus", in.AppointmentID, err)
		return nil, err
	}

	if !changed {
		s.logger.Info("ChangeStatus: appointment id=%d already %s, nothing to do", in.AppointmentID, in.Target)
		return result, nil
	}

	s.metrics.IncAppointmentTransition(string(in.Target))
	s.notifier.Dispatch(notification.NewStatusChangedEvent(result, from, in.Role))
	s.logger.Info("ChangeStatus: appointment id=%d %s -> %s by %s", result.ID, from, in.Target, in.Role)

	return result, nil
}

// Delete физически удаляет архивную запись
// Операции журнала остаются, их связь с записью обнуляется
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		appointment, err := s.getAppointment(ctx, id)
		if err != nil {
			return err
		}

		if appointment.Status != domain.AppointmentArchived {
			return fmt.Errorf("%w: appointment id=%d is %s", ErrNotArchived, id, appointment.Status)
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return s.repoError("delete appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Delete", id, err)
		return err
	}

	s.logger.Info("Delete: appointment id=%d deleted", id)
	return nil
}

// CompleteFinished завершает подтверждённые записи, время окончания которых прошло
// Каждая запись завершается своей транзакцией, ошибка по одной записи не останавливает проход.
// Записи выбираются страницами по возрастанию id, поэтому зависшие на ошибке записи
// не загораживают более новые
func (s *Service) CompleteFinished(ctx context.Context, now time.Time) (SweepResult, error) {
	var (
		result  SweepResult
		errs    []error
		afterID int64
	)

	for {
		finished, err := s.repo.ListFinished(ctx, now, afterID, s.batchSize)
		if err != nil {
			s.logger.Error("CompleteFinished: failed to list finished appointments after id=%d: %v", afterID, err)
			errs = append(errs, fmt.Errorf("%w: CompleteFinished - repository error: %w", ErrInternal, err))
			break
		}
		result.Found += len(finished)

		for _, appointment := range finished {
			if ctx.Err() != nil {
				break
			}

			_, err := s.ChangeStatus(ctx, ChangeStatusInput{
				AppointmentID: appointment.ID,
				Target:        domain.AppointmentCompleted,
				Role:          domain.RoleSystem,
			})
			if err != nil {
				result.Failed++
				errs = append(errs, fmt.Errorf("appointment id=%d: %w", appointment.ID, err))
				continue
			}
			result.Completed++
		}

		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if len(finished) == 0 || uint64(len(finished)) < s.batchSize {
			break
		}
		afterID = finished[len(finished)-1].ID
	}

	if result.Found > 0 {
		s.logger.Info("CompleteFinished: found=%d completed=%d failed=%d", result.Found, result.Completed, result.Failed)
	}

	return result, errors.Join(errs...)
}

// syncCompleted проводит pending начисления по записи
func (s *Service) syncCompleted(ctx context.Context, appointmentID int64) error {
	txs, err := s.ledger.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if tx.Status != domain.BonusPending || !tx.IsEarnable() {
			continue
		}
		if _, err := s.ledger.UpdateTransactionStatus(ctx, tx.ID, domain.BonusCompleted); err != nil {
			return err
		}
	}
	return nil
}

// syncCancelled отменяет неполученные начисления и возвращает списанные бонусы
// Действует только на операции в незавершённом состоянии и на ещё не возвращённые списания
func (s *Service) syncCancelled(ctx context.Context, appointmentID int64) error {
	txs, err := s.ledger.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if tx.Status != domain.BonusPending {
			continue
		}
		if _, err := s.ledger.UpdateTransactionStatus(ctx, tx.ID, domain.BonusCancelled); err != nil {
			return err
		}
	}

	for _, tx := range txs {
		if tx.Type != domain.BonusSpent || tx.Status != domain.BonusCompleted || tx.Amount >= 0 {
			continue
		}

		description := fmt.Sprintf("refund for cancelled appointment #%d", appointmentID)
		_, err := s.ledger.Refund(ctx, tx.UserID, -tx.Amount, appointmentID, description)
		if err != nil {
			if errors.Is(err, bonusService.ErrRefundExceedsSpent) {
				s.logger.Warn("syncCancelled: spent transaction id=%d of appointment id=%d already refunded", tx.ID, appointmentID)
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Service) getAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrAppointmentNotFound, id)
		}
		return nil, s.repoError("get appointment", err)
	}
	return appointment, nil
}

func (s *Service) repoError(op string, err error) error {
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

func (s *Service) logFailure(op string, id int64, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidTransition):
		s.logger.Warn("%s: rejected for appointment id=%d: %v", op, id, err)
	default:
		s.logger.Error("%s: failed for appointment id=%d: %v", op, id, err)
	}
}

func validateChangeStatus(in ChangeStatusInput) error {
	if in.AppointmentID <= 0 {
		return domain.NewValidationError("appointmentId", "must be positive")
	}
	if _, err := domain.ParseAppointmentStatus(string(in.Target)); err != nil {
		return err
	}
	if _, err := domain.ParseRole(string(in.Role)); err != nil {
		return domain.NewValidationError("role", err.Error())
	}
	if in.Reason != nil && len([]rune(*in.Reason)) > domain.MaxCancellationReasonLength {
		return domain.NewValidationError("reason",
			fmt.Sprintf("must be at most %d characters", domain.MaxCancellationReasonLength))
	}
	return nil
}
