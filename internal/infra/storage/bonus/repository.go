package bonus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"user_id",
	"amount",
	"type",
	"status",
	"appointment_id",
	"description",
	"created_at",
	"updated_at",
}

// Repository репозиторий бонусного журнала и кешированного баланса
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бонусов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет операцию в журнал
func (r *Repository) Create(ctx context.Context, tx *domain.BonusTransaction) (*domain.BonusTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bonus_transactions").
		Columns("user_id", "amount", "type", "status", "appointment_id", "description").
		Values(tx.UserID, tx.Amount, tx.Type, tx.Status, tx.AppointmentID, tx.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return tx, nil
}

// GetByID получает операцию по ID, внутри транзакции строка блокируется
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.BonusTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("bonus_transactions").
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	tx, err := scanTransaction(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan transaction: %w", ErrScanRow, err)
	}

	return tx, nil
}

// List возвращает операции по фильтру в порядке создания
func (r *Repository) List(ctx context.Context, filter domain.BonusTransactionsFilter) ([]*domain.BonusTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).From("bonus_transactions")

	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.AppointmentID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"appointment_id": *filter.AppointmentID})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"type": types})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statuses})
	}

	query, args, err := selectBuilder.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	txs := make([]*domain.BonusTransaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %w", ErrScanRow, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return txs, nil
}

// UpdateStatus меняет статус операции
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BonusTransactionStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bonus_transactions").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// GetUser получает бонусный профиль пользователя
// Внутри транзакции строка пользователя блокируется (FOR UPDATE):
// так все изменения журнала одного пользователя выполняются по очереди
func (r *Repository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "referred_by", "bonus_balance").
		From("users").
		Where(squirrel.Eq{"id": userID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetUser - build select query: %v", ErrBuildQuery, err)
	}

	var (
		user       domain.User
		referredBy sql.NullInt64
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(&user.ID, &referredBy, &user.BonusBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetUser - scan user: %w", ErrScanRow, err)
	}

	if referredBy.Valid {
		user.ReferredBy = &referredBy.Int64
	}

	return &user, nil
}

// SumCompleted сумма проведённых операций пользователя
func (r *Repository) SumCompleted(ctx context.Context, userID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(amount), 0)").
		From("bonus_transactions").
		Where(squirrel.Eq{"user_id": userID, "status": domain.BonusCompleted}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SumCompleted - build select query: %v", ErrBuildQuery, err)
	}

	var sum int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: SumCompleted - scan sum: %w", ErrScanRow, err)
	}

	return sum, nil
}

// SetCachedBalance сохраняет пересчитанный баланс в профиле пользователя
func (r *Repository) SetCachedBalance(ctx context.Context, userID int64, balance int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("users").
		Set("bonus_balance", balance).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetCachedBalance - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetCachedBalance - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetCachedBalance - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (*domain.BonusTransaction, error) {
	var (
		tx            domain.BonusTransaction
		appointmentID sql.NullInt64
	)

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Type,
		&tx.Status,
		&appointmentID,
		&tx.Description,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if appointmentID.Valid {
		tx.AppointmentID = &appointmentID.Int64
	}

	return &tx, nil
}
