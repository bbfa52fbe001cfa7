package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-WellnessBooking/pkg/dbmetrics"
)

var (
	// ErrSerialization конкурентная транзакция изменила те же данные (40001, 40P01)
	// Вызывающая сторона решает, повторять ли операцию
	ErrSerialization = errors.New("txmanager: serialization failure")

	// ErrTransaction ошибка открытия или фиксации транзакции
	ErrTransaction = errors.New("txmanager: transaction error")
)

// SQLSTATE коды PostgreSQL, при которых транзакция проиграла гонку
const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
)

// TransactionManager unit of work поверх database/sql
// Транзакция передаётся репозиториям через context (dbmetrics.WithTx)
type TransactionManager struct {
	db dbmetrics.DBExecutor
}

// NewTransactionManager принимает *sql.DB или *dbmetrics.DB
func NewTransactionManager(db dbmetrics.DBExecutor) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения (согласованный снимок)
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	// Вложенный вызов присоединяется к внешней транзакции
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := dbmetrics.BeginTx(ctx, m.db, opts)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", classify(err), rbErr)
		}
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: commit: %v", ErrSerialization, err)
		}
		return fmt.Errorf("%w: commit: %v", ErrTransaction, err)
	}

	return nil
}

// classify помечает ошибку как ErrSerialization, если её причина - конфликт транзакций
func classify(err error) error {
	if isSerializationFailure(err) && !errors.Is(err, ErrSerialization) {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
	}
	return false
}
