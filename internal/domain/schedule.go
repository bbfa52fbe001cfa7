package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// WorkSchedule расписание специалиста. Одно на специалиста, не удаляется, только выключается
type WorkSchedule struct {
	ID           int64
	SpecialistID int64
	Enabled      bool
	WorkDays     []WorkDay
	Vacations    []Vacation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkDay рабочий день недели
type WorkDay struct {
	ID          int64
	Weekday     Weekday
	Active      bool
	StartTime   types.TimeString
	EndTime     types.TimeString
	LunchBreaks []LunchBreak
}

// LunchBreak перерыв внутри рабочего дня
type LunchBreak struct {
	ID        int64
	StartTime types.TimeString
	EndTime   types.TimeString
	Enabled   bool
}

// Vacation отпуск, даты включительно. Пересекающиеся отпуска допустимы
type Vacation struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
	Enabled   bool
}

// WorkDayFor возвращает рабочий день, соответствующий дню недели даты
func (s *WorkSchedule) WorkDayFor(date time.Time) (*WorkDay, bool) {
	weekday := WeekdayOf(date)
	for i := range s.WorkDays {
		if s.WorkDays[i].Weekday == weekday {
			return &s.WorkDays[i], true
		}
	}
	return nil, false
}

// IsOnVacation возвращает true, если дата попадает в любой включённый отпуск
func (s *WorkSchedule) IsOnVacation(date time.Time) bool {
	for _, v := range s.Vacations {
		if v.Enabled && v.Covers(date) {
			return true
		}
	}
	return false
}

// Covers проверяет, что дата внутри [StartDate, EndDate] (сравниваются только даты)
func (v Vacation) Covers(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(v.StartDate)) && !d.After(dateOnly(v.EndDate))
}

// Validate проверяет расписание перед сохранением
// Возвращает *ValidationError с путём к первому некорректному полю
func (s *WorkSchedule) Validate() error {
	if s.SpecialistID <= 0 {
		return NewValidationError("specialistId", "must be positive")
	}

	seen := make(map[Weekday]bool, len(s.WorkDays))
	for i, day := range s.WorkDays {
		field := fmt.Sprintf("workDays[%d]", i)

		if !day.Weekday.IsValid() {
			return NewValidationError(field+".weekday", fmt.Sprintf("must be in range 0..6, got %d", int(day.Weekday)))
		}
		if seen[day.Weekday] {
			return NewValidationError(field+".weekday", fmt.Sprintf("duplicate weekday %s", day.Weekday))
		}
		seen[day.Weekday] = true

		if err := validateRange(field, day.StartTime, day.EndTime); err != nil {
			return err
		}

		for j, lunch := range day.LunchBreaks {
			lunchField := fmt.Sprintf("%s.lunchBreaks[%d]", field, j)
			if err := validateRange(lunchField, lunch.StartTime, lunch.EndTime); err != nil {
				return err
			}
		}
	}

	for i, v := range s.Vacations {
		field := fmt.Sprintf("vacations[%d]", i)
		if v.StartDate.IsZero() {
			return NewValidationError(field+".startDate", "is required")
		}
		if v.EndDate.IsZero() {
			return NewValidationError(field+".endDate", "is required")
		}
		if dateOnly(v.EndDate).Before(dateOnly(v.StartDate)) {
			return NewValidationError(field+".endDate", "must not be before startDate")
		}
	}

	return nil
}

func validateRange(field string, start, end types.TimeString) error {
	if err := start.Validate(); err != nil {
		return NewValidationError(field+".startTime", "must be HH:MM")
	}
	if err := end.Validate(); err != nil {
		return NewValidationError(field+".endTime", "must be HH:MM")
	}
	if !start.IsBefore(end) {
		return NewValidationError(field+".endTime", "must be after startTime")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
