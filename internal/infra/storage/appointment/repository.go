package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/psqlbuilder"
)

// exclusionViolation код ошибки PostgreSQL для EXCLUDE ограничения
const exclusionViolation = "23P01"

// timestampLayout формат локального времени центра для сравнения с appointment_date + end_time
const timestampLayout = "2006-01-02 15:04:05"

var columns = []string{
	"id",
	"specialist_id",
	"service_id",
	"user_id",
	"appointment_date",
	"start_time",
	"end_time",
	"price",
	"original_price",
	"discount_amount",
	"bonus_amount",
	"status",
	"promo_code",
	"notes",
	"cancellation_reason",
	"cancelled_by",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей к специалистам
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись
// Пересечение с живой записью того же специалиста отсекается ограничением EXCLUDE
// и возвращается как ErrSlotTaken
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"specialist_id",
			"service_id",
			"user_id",
			"appointment_date",
			"start_time",
			"end_time",
			"price",
			"original_price",
			"discount_amount",
			"bonus_amount",
			"status",
			"promo_code",
			"notes",
		).
		Values(
			a.SpecialistID,
			a.ServiceID,
			a.UserID,
			a.Date.Format(domain.DateFormat),
			a.StartTime,
			a.EndTime,
			a.Price,
			a.OriginalPrice,
			a.DiscountAmount,
			a.BonusAmount,
			a.Status,
			a.PromoCode,
			a.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == exclusionViolation {
			return nil, fmt.Errorf("%w: specialist=%d date=%s %s-%s",
				ErrSlotTaken, a.SpecialistID, a.Date.Format(domain.DateFormat), a.StartTime, a.EndTime)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return a, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы переходы статусов одной записи шли по очереди
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("appointments").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	return a, nil
}

// GetBySpecialistWithFilter получает записи специалиста с фильтрацией по периоду и статусу
func (r *Repository) GetBySpecialistWithFilter(ctx context.Context, filter domain.SpecialistAppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("appointments").
		Where(squirrel.Eq{"specialist_id": filter.SpecialistID})

	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"appointment_date": filter.StartDate.Format(domain.DateFormat)})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"appointment_date": filter.EndDate.Format(domain.DateFormat)})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		inactive := make([]string, len(domain.InactiveAppointmentStatuses))
		for i, s := range domain.InactiveAppointmentStatuses {
			inactive[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": inactive})
	}

	selectBuilder = selectBuilder.OrderBy("appointment_date ASC", "start_time ASC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistWithFilter - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// LockSpecialistDate берёт транзакционный advisory lock на пару (специалист, дата)
// Все бронирования одного специалиста на одну дату выполняются строго по очереди.
// Коллизия ключей только сериализует лишние запросы, на корректность не влияет
func (r *Repository) LockSpecialistDate(ctx context.Context, specialistID int64, date time.Time) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return fmt.Errorf("%w: LockSpecialistDate requires a transaction", ErrLock)
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	y, m, d := date.Date()
	dayKey := int32(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", int32(specialistID), dayKey); err != nil {
		return fmt.Errorf("%w: specialist=%d date=%s: %w", ErrLock, specialistID, date.Format(domain.DateFormat), err)
	}

	return nil
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "UpdateStatus", query, args)
}

// Cancel отменяет запись, фиксируя причину и роль инициатора
func (r *Repository) Cancel(ctx context.Context, id int64, reason *string, by domain.Role) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("status", domain.AppointmentCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_by", string(by)).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Cancel", query, args)
}

// Delete физически удаляет запись
// Бонусные операции остаются в журнале, ссылка на запись обнуляется (ON DELETE SET NULL)
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Delete", query, args)
}

// ListFinished возвращает подтверждённые записи с id больше afterID, время окончания которых уже прошло
// now приводится к часовому поясу центра: даты и время записей хранятся в нём
func (r *Repository) ListFinished(ctx context.Context, now time.Time, afterID int64, limit uint64) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("appointments").
		Where(squirrel.Eq{"status": domain.AppointmentConfirmed}).
		Where("appointment_date + end_time <= ?::timestamp", now.Format(timestampLayout)).
		Where(squirrel.Gt{"id": afterID}).
		OrderBy("id ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListFinished - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListFinished - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// CountActiveByUser количество неотменённых записей пользователя
func (r *Repository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("appointments").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"status": domain.AppointmentCancelled}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByUser - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByUser - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

func (r *Repository) execAffectingOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row scanner) (*domain.Appointment, error) {
	var (
		a           domain.Appointment
		userID      sql.NullInt64
		promoCode   sql.NullString
		notes       sql.NullString
		reason      sql.NullString
		cancelledBy sql.NullString
		cancelledAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.SpecialistID,
		&a.ServiceID,
		&userID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Price,
		&a.OriginalPrice,
		&a.DiscountAmount,
		&a.BonusAmount,
		&a.Status,
		&promoCode,
		&notes,
		&reason,
		&cancelledBy,
		&cancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		a.UserID = &userID.Int64
	}
	if promoCode.Valid {
		a.PromoCode = &promoCode.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	if reason.Valid {
		a.CancellationReason = &reason.String
	}
	if cancelledBy.Valid {
		role := domain.Role(cancelledBy.String)
		a.CancelledBy = &role
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}

	return &a, nil
}

func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %w", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %w", ErrScanRow, err)
	}

	return appointments, nil
}
