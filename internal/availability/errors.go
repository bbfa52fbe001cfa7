package availability

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// Причины, по которым интервал нельзя забронировать
// Все они оборачивают domain.ErrSlotUnavailable
var (
	ErrScheduleDisabled    = fmt.Errorf("%w: schedule is disabled", domain.ErrSlotUnavailable)
	ErrDayOff              = fmt.Errorf("%w: specialist does not work on this day", domain.ErrSlotUnavailable)
	ErrOnVacation          = fmt.Errorf("%w: specialist is on vacation", domain.ErrSlotUnavailable)
	ErrOutsideWorkingHours = fmt.Errorf("%w: outside working hours", domain.ErrSlotUnavailable)
	ErrLunchBreak          = fmt.Errorf("%w: overlaps lunch break", domain.ErrSlotUnavailable)
	ErrAlreadyBooked       = fmt.Errorf("%w: overlaps existing appointment", domain.ErrSlotUnavailable)
)

// ErrInvalidWindow интервал задан некорректно
var ErrInvalidWindow = errors.New("availability: invalid time window")
