package domain

import (
	"fmt"
	"time"
)

// Weekday день недели во внутреннем представлении: 0=понедельник ... 6=воскресенье
// Внешние представления (time.Weekday с 0=воскресенье, ISO 8601 с 1..7)
// конвертируются только на границах
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayOf возвращает день недели даты
func WeekdayOf(date time.Time) Weekday {
	return Weekday((int(date.Weekday()) + 6) % 7)
}

// WeekdayFromISO конвертирует ISO 8601 (1=понедельник ... 7=воскресенье)
func WeekdayFromISO(n int) (Weekday, error) {
	if n < 1 || n > 7 {
		return 0, fmt.Errorf("%w: iso weekday %d out of range 1..7", ErrValidation, n)
	}
	return Weekday(n - 1), nil
}

// ISO возвращает номер дня по ISO 8601
func (w Weekday) ISO() int {
	return int(w) + 1
}

// IsValid проверяет, что значение в диапазоне 0..6
func (w Weekday) IsValid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}
