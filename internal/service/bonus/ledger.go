package bonus

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	bonusRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/bonus"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
)

// Ledger бонусный журнал пользователя
//
// Журнал только дополняется: операции не редактируются, меняется лишь статус pending -> completed|cancelled.
// Баланс - сумма проведённых (completed) операций, колонка users.bonus_balance - её кеш,
// пересчитываемый в той же транзакции при каждом изменении.
//
// Все изменения журнала одного пользователя сериализуются блокировкой строки пользователя.
// Порядок блокировок всегда: пользователь, затем его операции
type Ledger struct {
	repo      BonusRepository
	txManager TransactionManager
	metrics   MetricsRecorder
	logger    Logger
}

// NewLedger создает новый экземпляр бонусного журнала
func NewLedger(repo BonusRepository, txManager TransactionManager, metrics MetricsRecorder, logger Logger) *Ledger {
	return &Ledger{
		repo:      repo,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetBalance баланс пользователя, посчитанный по журналу
func (l *Ledger) GetBalance(ctx context.Context, userID int64) (int64, error) {
	if _, err := l.getUser(ctx, userID); err != nil {
		return 0, err
	}

	balance, err := l.repo.SumCompleted(ctx, userID)
	if err != nil {
		l.logger.Error("GetBalance: failed to sum transactions for user=%d: %v", userID, err)
		return 0, fmt.Errorf("%w: GetBalance - repository error: %w", ErrInternal, err)
	}

	return balance, nil
}

// GetAccount баланс вместе с историей операций
func (l *Ledger) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	balance, err := l.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs, err := l.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Account{UserID: userID, Balance: balance, Transactions: txs}, nil
}

// GetUser профиль пользователя, внутри транзакции строка пользователя блокируется
func (l *Ledger) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return l.getUser(ctx, userID)
}

// ListTransactions операции пользователя в порядке создания
func (l *Ledger) ListTransactions(ctx context.Context, userID int64) ([]*domain.BonusTransaction, error) {
	txs, err := l.repo.List(ctx, domain.BonusTransactionsFilter{UserID: ptr.Ptr(userID)})
	if err != nil {
		l.logger.Error("ListTransactions: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: ListTransactions - repository error: %w", ErrInternal, err)
	}
	return txs, nil
}

// ListByAppointment операции, связанные с записью (в том числе реферальные бонусы других пользователей)
func (l *Ledger) ListByAppointment(ctx context.Context, appointmentID int64) ([]*domain.BonusTransaction, error) {
	txs, err := l.repo.List(ctx, domain.BonusTransactionsFilter{AppointmentID: ptr.Ptr(appointmentID)})
	if err != nil {
		l.logger.Error("ListByAppointment: repository error for appointment=%d: %v", appointmentID, err)
		return nil, fmt.Errorf("%w: ListByAppointment - repository error: %w", ErrInternal, err)
	}
	return txs, nil
}

// CreateTransaction добавляет операцию и пересчитывает кеш баланса
// Проведённое списание не может увести баланс в минус
func (l *Ledger) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*domain.BonusTransaction, error) {
	if err := validateInput(in); err != nil {
		l.logger.Warn("CreateTransaction: invalid input for user=%d: %v", in.UserID, err)
		return nil, err
	}

	var created *domain.BonusTransaction
	err := l.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := l.lockUser(ctx, in.UserID); err != nil {
			return err
		}

		if in.Status == domain.BonusCompleted && in.Amount < 0 {
			if err := l.ensureCovered(ctx, in.UserID, in.Amount); err != nil {
				return err
			}
		}

		var err error
		created, err = l.repo.Create(ctx, &domain.BonusTransaction{
			UserID:        in.UserID,
			Amount:        in.Amount,
			Type:          in.Type,
			Status:        in.Status,
			AppointmentID: in.AppointmentID,
			Description:   in.Description,
		})
		if err != nil {
			return fmt.Errorf("%w: CreateTransaction - repository error: %w", ErrInternal, err)
		}

		_, err = l.recalculate(ctx, in.UserID)
		return err
	})
	if err != nil {
		l.logFailure("CreateTransaction", in.UserID, err)
		return nil, err
	}

	l.metrics.IncBonusTransaction(string(created.Type), string(created.Status))
	l.logger.Info("CreateTransaction: id=%d user=%d amount=%d type=%s status=%s",
		created.ID, created.UserID, created.Amount, created.Type, created.Status)

	return created, nil
}

// UpdateTransactionStatus переводит pending операцию в completed или cancelled
// Переход из конечного состояния отклоняется с domain.ErrInvalidTransition
func (l *Ledger) UpdateTransactionStatus(ctx context.Context, id int64, status domain.BonusTransactionStatus) (*domain.BonusTransaction, error) {
	// Сначала узнаём владельца: блокировка пользователя берётся раньше повторного чтения операции
	current, err := l.getTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *domain.BonusTransaction
	err = l.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := l.lockUser(ctx, current.UserID); err != nil {
			return err
		}

		tx, err := l.getTransaction(ctx, id)
		if err != nil {
			return err
		}

		if !tx.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: bonus transaction id=%d %s -> %s", domain.ErrInvalidTransition, id, tx.Status, status)
		}

		if status == domain.BonusCompleted && tx.Amount < 0 {
			if err := l.ensureCovered(ctx, tx.UserID, tx.Amount); err != nil {
				return err
			}
		}

		if err := l.repo.UpdateStatus(ctx, id, status); err != nil {
			return fmt.Errorf("%w: UpdateTransactionStatus - repository error: %w", ErrInternal, err)
		}
		tx.Status = status
		updated = tx

		_, err = l.recalculate(ctx, tx.UserID)
		return err
	})
	if err != nil {
		l.logFailure("UpdateTransactionStatus", current.UserID, err)
		return nil, err
	}

	l.metrics.IncBonusTransaction(string(updated.Type), string(updated.Status))
	l.logger.Info("UpdateTransactionStatus: id=%d user=%d -> %s", id, updated.UserID, status)

	return updated, nil
}

// Refund возвращает списанные по записи бонусы проведённой manual операцией
// Сумма возвратов по записи не может превысить сумму списаний по ней
func (l *Ledger) Refund(ctx context.Context, userID, amount, appointmentID int64, description string) (*domain.BonusTransaction, error) {
	if amount <= 0 {
		return nil, domain.NewValidationError("amount", "refund amount must be positive")
	}

	var refund *domain.BonusTransaction
	err := l.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := l.lockUser(ctx, userID); err != nil {
			return err
		}

		txs, err := l.repo.List(ctx, domain.BonusTransactionsFilter{
			UserID:        ptr.Ptr(userID),
			AppointmentID: ptr.Ptr(appointmentID),
			Statuses:      []domain.BonusTransactionStatus{domain.BonusCompleted},
		})
		if err != nil {
			return fmt.Errorf("%w: Refund - repository error: %w", ErrInternal, err)
		}

		spent, refunded := spentAndRefunded(txs)
		if refunded+amount > spent {
			return fmt.Errorf("%w: appointment=%d spent=%d refunded=%d requested=%d",
				ErrRefundExceedsSpent, appointmentID, spent, refunded, amount)
		}

		refund, err = l.CreateTransaction(ctx, CreateTransactionInput{
			UserID:        userID,
			Amount:        amount,
			Type:          domain.BonusManual,
			Status:        domain.BonusCompleted,
			AppointmentID: ptr.Ptr(appointmentID),
			Description:   description,
		})
		return err
	})
	if err != nil {
		l.logFailure("Refund", userID, err)
		return nil, err
	}

	return refund, nil
}

// CreateManualAdjustment ручная корректировка баланса администратором
func (l *Ledger) CreateManualAdjustment(ctx context.Context, userID, amount int64, description string) (*domain.BonusTransaction, error) {
	return l.CreateTransaction(ctx, CreateTransactionInput{
		UserID:      userID,
		Amount:      amount,
		Type:        domain.BonusManual,
		Status:      domain.BonusCompleted,
		Description: description,
	})
}

// RecalculateBalance пересчитывает кеш баланса по журналу
func (l *Ledger) RecalculateBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := l.txManager.Do(ctx, func(ctx context.Context) error {
		user, err := l.lockUser(ctx, userID)
		if err != nil {
			return err
		}

		balance, err = l.recalculate(ctx, userID)
		if err != nil {
			return err
		}

		if user.BonusBalance != balance {
			l.logger.Warn("RecalculateBalance: cached balance for user=%d was %d, journal sum is %d",
				userID, user.BonusBalance, balance)
		}
		return nil
	})
	if err != nil {
		l.logFailure("RecalculateBalance", userID, err)
		return 0, err
	}

	return balance, nil
}

// ensureCovered проверяет, что списание покрывается текущим балансом
// Вызывается только под блокировкой пользователя
func (l *Ledger) ensureCovered(ctx context.Context, userID, amount int64) error {
	balance, err := l.repo.SumCompleted(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: balance check - repository error: %w", ErrInternal, err)
	}
	if balance+amount < 0 {
		return fmt.Errorf("%w: user=%d balance=%d requested=%d", domain.ErrInsufficientBonus, userID, balance, -amount)
	}
	return nil
}

func (l *Ledger) recalculate(ctx context.Context, userID int64) (int64, error) {
	balance, err := l.repo.SumCompleted(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: recalculate - repository error: %w", ErrInternal, err)
	}
	if err := l.repo.SetCachedBalance(ctx, userID, balance); err != nil {
		return 0, fmt.Errorf("%w: recalculate - repository error: %w", ErrInternal, err)
	}
	return balance, nil
}

func (l *Ledger) lockUser(ctx context.Context, userID int64) (*domain.User, error) {
	return l.getUser(ctx, userID)
}

func (l *Ledger) getUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := l.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, bonusRepo.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("%w: get user - repository error: %w", ErrInternal, err)
	}
	return user, nil
}

func (l *Ledger) getTransaction(ctx context.Context, id int64) (*domain.BonusTransaction, error) {
	tx, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bonusRepo.ErrTransactionNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("%w: get transaction - repository error: %w", ErrInternal, err)
	}
	return tx, nil
}

func (l *Ledger) logFailure(op string, userID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientBonus),
		errors.Is(err, domain.ErrInvalidTransition):
		l.logger.Warn("%s: rejected for user=%d: %v", op, userID, err)
	default:
		l.logger.Error("%s: failed for user=%d: %v", op, userID, err)
	}
}

// spentAndRefunded сумма списаний по записи и сумма уже сделанных возвратов
func spentAndRefunded(txs []*domain.BonusTransaction) (spent, refunded int64) {
	for _, tx := range txs {
		if tx.Status != domain.BonusCompleted {
			continue
		}
		switch {
		case tx.Type == domain.BonusSpent && tx.Amount < 0:
			spent += -tx.Amount
		case tx.Type == domain.BonusManual && tx.Amount > 0:
			refunded += tx.Amount
		}
	}
	return spent, refunded
}

func validateInput(in CreateTransactionInput) error {
	if in.UserID <= 0 {
		return domain.NewValidationError("userId", "must be positive")
	}
	if in.Amount == 0 {
		return domain.NewValidationError("amount", "must not be zero")
	}
	if _, err := domain.ParseBonusTransactionType(string(in.Type)); err != nil {
		return err
	}
	if _, err := domain.ParseBonusTransactionStatus(string(in.Status)); err != nil {
		return err
	}
	if len([]rune(in.Description)) > domain.MaxDescriptionLength {
		return domain.NewValidationError("description", fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLength))
	}

	switch in.Type {
	case domain.BonusManual:
		if in.Status != domain.BonusCompleted {
			return domain.NewValidationError("status", "manual transactions are created completed")
		}
	case domain.BonusSpent:
		if in.Amount > 0 {
			return domain.NewValidationError("amount", "spent amount must be negative")
		}
	case domain.BonusBooking, domain.BonusReferral:
		if in.Amount < 0 {
			return domain.NewValidationError("amount", "earned amount must be positive")
		}
	}

	return nil
}
