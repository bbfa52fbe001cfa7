package availability

import (
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// FilterByNotice убирает слоты, до начала которых осталось меньше minNoticeMinutes
// Для дат после сегодняшней слоты возвращаются без изменений, для прошедших дат - пустой список
func FilterByNotice(slots []domain.Slot, date, now time.Time, minNoticeMinutes int) []domain.Slot {
	if IsDateInPast(date, now) {
		return []domain.Slot{}
	}
	if !sameDay(date, now) {
		return slots
	}

	minAllowed := types.NewTimeString(now).Minutes() + minNoticeMinutes

	result := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.StartTime.Minutes() >= minAllowed {
			result = append(result, slot)
		}
	}
	return result
}

// StartsInTime проверяет, что начало записи соблюдает минимальный срок уведомления
func StartsInTime(date time.Time, start types.TimeString, now time.Time, minNoticeMinutes int) bool {
	if IsDateInPast(date, now) {
		return false
	}
	if !sameDay(date, now) {
		return true
	}
	return start.Minutes() >= types.NewTimeString(now).Minutes()+minNoticeMinutes
}

// WithinHorizon проверяет, что дата не дальше advanceDays от сегодняшнего дня (0 - без ограничения)
func WithinHorizon(date, now time.Time, advanceDays int) bool {
	if advanceDays <= 0 {
		return true
	}
	maxDate := truncateDay(now).AddDate(0, 0, advanceDays)
	return !truncateDay(date).After(maxDate)
}

// IsDateInPast дата раньше сегодняшнего дня
func IsDateInPast(date, now time.Time) bool {
	return truncateDay(date).Before(truncateDay(now))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
