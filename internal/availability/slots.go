package availability

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// interval занятый полуинтервал в минутах от начала суток
type interval struct {
	start int
	end   int
}

// ComputeSlots генерирует свободные слоты длительностью durationMinutes на дату
// Слоты идут с начала рабочего дня с шагом granularityMinutes и отбрасываются,
// если выходят за конец рабочего дня или пересекаются с перерывом или живой записью
//
// Функция чистая: одни и те же входные данные дают один и тот же результат.
// Отсутствие доступности (выходной, отпуск, выключенное расписание) - пустой список, не ошибка
func ComputeSlots(
	schedule *domain.WorkSchedule,
	date time.Time,
	durationMinutes int,
	appointments []*domain.Appointment,
	granularityMinutes int,
) []domain.Slot {
	slots := make([]domain.Slot, 0)

	if durationMinutes <= 0 {
		return slots
	}
	if granularityMinutes <= 0 {
		granularityMinutes = domain.DefaultSlotGranularityMinutes
	}

	day, err := resolveWorkDay(schedule, date)
	if err != nil {
		return slots
	}

	dayStart := day.StartTime.Minutes()
	dayEnd := day.EndTime.Minutes()
	if dayStart < 0 || dayEnd < 0 {
		return slots
	}

	blocked := blockedIntervals(day, date, appointments)

	for t := dayStart; t+durationMinutes <= dayEnd; t += granularityMinutes {
		candidate := interval{start: t, end: t + durationMinutes}
		if overlapsAny(candidate, blocked) {
			continue
		}

		start, errStart := types.FromMinutes(candidate.start)
		end, errEnd := types.FromMinutes(candidate.end)
		if errStart != nil || errEnd != nil {
			break
		}
		slots = append(slots, domain.Slot{StartTime: start, EndTime: end})
	}

	return slots
}

// CheckWindow проверяет, что интервал [start, end) на дату можно забронировать прямо сейчас
// Повторяет все проверки ComputeSlots, но без привязки к сетке слотов
func CheckWindow(
	schedule *domain.WorkSchedule,
	date time.Time,
	start, end types.TimeString,
	appointments []*domain.Appointment,
) error {
	startMin, endMin := start.Minutes(), end.Minutes()
	if startMin < 0 || endMin < 0 || startMin >= endMin {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow, start, end)
	}

	day, err := resolveWorkDay(schedule, date)
	if err != nil {
		return err
	}

	if startMin < day.StartTime.Minutes() || endMin > day.EndTime.Minutes() {
		return fmt.Errorf("%w: working hours %s-%s", ErrOutsideWorkingHours, day.StartTime, day.EndTime)
	}

	window := interval{start: startMin, end: endMin}

	for _, lunch := range day.LunchBreaks {
		if !lunch.Enabled {
			continue
		}
		if overlaps(window, interval{start: lunch.StartTime.Minutes(), end: lunch.EndTime.Minutes()}) {
			return fmt.Errorf("%w: %s-%s", ErrLunchBreak, lunch.StartTime, lunch.EndTime)
		}
	}

	for _, a := range appointments {
		if !a.IsActive() || !sameDay(a.Date, date) {
			continue
		}
		if overlaps(window, interval{start: a.StartTime.Minutes(), end: a.EndTime.Minutes()}) {
			return fmt.Errorf("%w: appointment id=%d %s-%s", ErrAlreadyBooked, a.ID, a.StartTime, a.EndTime)
		}
	}

	return nil
}

// resolveWorkDay находит рабочий день для даты с учетом флага расписания и отпусков
func resolveWorkDay(schedule *domain.WorkSchedule, date time.Time) (*domain.WorkDay, error) {
	if schedule == nil || !schedule.Enabled {
		return nil, ErrScheduleDisabled
	}

	day, ok := schedule.WorkDayFor(date)
	if !ok || !day.Active {
		return nil, ErrDayOff
	}

	if schedule.IsOnVacation(date) {
		return nil, ErrOnVacation
	}

	return day, nil
}

func blockedIntervals(day *domain.WorkDay, date time.Time, appointments []*domain.Appointment) []interval {
	blocked := make([]interval, 0, len(day.LunchBreaks)+len(appointments))

	for _, lunch := range day.LunchBreaks {
		if !lunch.Enabled {
			continue
		}
		blocked = append(blocked, interval{start: lunch.StartTime.Minutes(), end: lunch.EndTime.Minutes()})
	}

	for _, a := range appointments {
		// Записи других дат могут прийти из широкого фильтра, их пропускаем
		if !a.IsActive() || !sameDay(a.Date, date) {
			continue
		}
		blocked = append(blocked, interval{start: a.StartTime.Minutes(), end: a.EndTime.Minutes()})
	}

	return blocked
}

func overlapsAny(candidate interval, blocked []interval) bool {
	for _, b := range blocked {
		if overlaps(candidate, b) {
			return true
		}
	}
	return false
}

// overlaps граничащие интервалы не пересекаются: 10:00-11:00 и 11:00-12:00 совместимы
func overlaps(a, b interval) bool {
	return a.start < b.end && a.end > b.start
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
