package bonus

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// BonusRepository интерфейс репозитория бонусного журнала
type BonusRepository interface {
	Create(ctx context.Context, tx *domain.BonusTransaction) (*domain.BonusTransaction, error)
	GetByID(ctx context.Context, id int64) (*domain.BonusTransaction, error)
	List(ctx context.Context, filter domain.BonusTransactionsFilter) ([]*domain.BonusTransaction, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BonusTransactionStatus) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	SumCompleted(ctx context.Context, userID int64) (int64, error)
	SetCachedBalance(ctx context.Context, userID int64, balance int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счётчики бонусных операций
type MetricsRecorder interface {
	IncBonusTransaction(txType, status string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
