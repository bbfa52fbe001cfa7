package schedule

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

// Repository репозиторий расписаний специалистов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetBySpecialistID получает расписание специалиста вместе с рабочими днями, перерывами и отпусками
func (r *Repository) GetBySpecialistID(ctx context.Context, specialistID int64) (*domain.WorkSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "specialist_id", "enabled", "created_at", "updated_at").
		From("work_schedules").
		Where(squirrel.Eq{"specialist_id": specialistID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistID - build select query: %v", ErrBuildQuery, err)
	}

	var schedule domain.WorkSchedule
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&schedule.ID,
		&schedule.SpecialistID,
		&schedule.Enabled,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistID - scan schedule: %w", ErrScanRow, err)
	}

	schedule.WorkDays, err = r.getWorkDays(ctx, executor, schedule.ID)
	if err != nil {
		return nil, err
	}

	schedule.Vacations, err = r.getVacations(ctx, executor, schedule.ID)
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}

// Upsert создает или полностью заменяет расписание специалиста
// Вложенные рабочие дни, перерывы и отпуска пересоздаются, поэтому метод
// нужно вызывать внутри транзакции (txmanager), иначе возможна частичная запись
func (r *Repository) Upsert(ctx context.Context, schedule *domain.WorkSchedule) (*domain.WorkSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("work_schedules").
		Columns("specialist_id", "enabled").
		Values(schedule.SpecialistID, schedule.Enabled).
		Suffix("ON CONFLICT (specialist_id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW() " +
			"RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}

	// Перерывы удаляются каскадно вместе с рабочими днями
	for _, table := range []string{"work_days", "vacations"} {
		query, args, err := psqlbuilder.Delete(table).
			Where(squirrel.Eq{"schedule_id": schedule.ID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Upsert - build delete %s query: %v", ErrBuildQuery, table, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: Upsert - delete %s: %w", ErrExecQuery, table, err)
		}
	}

	for i := range schedule.WorkDays {
		if err := r.insertWorkDay(ctx, executor, schedule.ID, &schedule.WorkDays[i]); err != nil {
			return nil, err
		}
	}

	for i := range schedule.Vacations {
		vacation := &schedule.Vacations[i]

		query, args, err := psqlbuilder.Insert("vacations").
			Columns("schedule_id", "start_date", "end_date", "enabled").
			Values(schedule.ID, vacation.StartDate, vacation.EndDate, vacation.Enabled).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Upsert - build vacation insert: %v", ErrBuildQuery, err)
		}
		if err := executor.QueryRowContext(ctx, query, args...).Scan(&vacation.ID); err != nil {
			return nil, fmt.Errorf("%w: Upsert - insert vacation: %w", ErrExecQuery, err)
		}
	}

	return schedule, nil
}

func (r *Repository) insertWorkDay(ctx context.Context, executor DBExecutor, scheduleID int64, day *domain.WorkDay) error {
	query, args, err := psqlbuilder.Insert("work_days").
		Columns("schedule_id", "weekday", "active", "start_time", "end_time").
		Values(scheduleID, int(day.Weekday), day.Active, day.StartTime, day.EndTime).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertWorkDay - build insert query: %v", ErrBuildQuery, err)
	}
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&day.ID); err != nil {
		return fmt.Errorf("%w: insertWorkDay - execute insert: %w", ErrExecQuery, err)
	}

	for i := range day.LunchBreaks {
		lunch := &day.LunchBreaks[i]

		query, args, err := psqlbuilder.Insert("lunch_breaks").
			Columns("work_day_id", "start_time", "end_time", "enabled").
			Values(day.ID, lunch.StartTime, lunch.EndTime, lunch.Enabled).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: insertWorkDay - build lunch break insert: %v", ErrBuildQuery, err)
		}
		if err := executor.QueryRowContext(ctx, query, args...).Scan(&lunch.ID); err != nil {
			return fmt.Errorf("%w: insertWorkDay - insert lunch break: %w", ErrExecQuery, err)
		}
	}

	return nil
}

func (r *Repository) getWorkDays(ctx context.Context, executor DBExecutor, scheduleID int64) ([]domain.WorkDay, error) {
	query, args, err := psqlbuilder.Select("id", "weekday", "active", "start_time", "end_time").
		From("work_days").
		Where(squirrel.Eq{"schedule_id": scheduleID}).
		OrderBy("weekday ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]domain.WorkDay, 0, 7)
	index := make(map[int64]int)
	for rows.Next() {
		var day domain.WorkDay
		var weekday int
		if err := rows.Scan(&day.ID, &weekday, &day.Active, &day.StartTime, &day.EndTime); err != nil {
			return nil, fmt.Errorf("%w: getWorkDays - scan row: %w", ErrScanRow, err)
		}
		day.Weekday = domain.Weekday(weekday)
		day.LunchBreaks = []domain.LunchBreak{}
		index[day.ID] = len(days)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - rows error: %w", ErrScanRow, err)
	}

	if len(days) == 0 {
		return days, nil
	}

	ids := make([]int64, 0, len(days))
	for _, d := range days {
		ids = append(ids, d.ID)
	}

	query, args, err = psqlbuilder.Select("id", "work_day_id", "start_time", "end_time", "enabled").
		From("lunch_breaks").
		Where(squirrel.Eq{"work_day_id": ids}).
		OrderBy("work_day_id ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - build lunch breaks query: %v", ErrBuildQuery, err)
	}

	lunchRows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - execute lunch breaks query: %w", ErrExecQuery, err)
	}
	defer lunchRows.Close()

	for lunchRows.Next() {
		var lunch domain.LunchBreak
		var workDayID int64
		if err := lunchRows.Scan(&lunch.ID, &workDayID, &lunch.StartTime, &lunch.EndTime, &lunch.Enabled); err != nil {
			return nil, fmt.Errorf("%w: getWorkDays - scan lunch break: %w", ErrScanRow, err)
		}
		if i, ok := index[workDayID]; ok {
			days[i].LunchBreaks = append(days[i].LunchBreaks, lunch)
		}
	}
	if err := lunchRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getWorkDays - lunch rows error: %w", ErrScanRow, err)
	}

	return days, nil
}

func (r *Repository) getVacations(ctx context.Context, executor DBExecutor, scheduleID int64) ([]domain.Vacation, error) {
	query, args, err := psqlbuilder.Select("id", "start_date", "end_date", "enabled").
		From("vacations").
		Where(squirrel.Eq{"schedule_id": scheduleID}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getVacations - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getVacations - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	vacations := make([]domain.Vacation, 0)
	for rows.Next() {
		var v domain.Vacation
		if err := rows.Scan(&v.ID, &v.StartDate, &v.EndDate, &v.Enabled); err != nil {
			return nil, fmt.Errorf("%w: getVacations - scan row: %w", ErrScanRow, err)
		}
		vacations = append(vacations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getVacations - rows error: %w", ErrScanRow, err)
	}

	return vacations, nil
}
