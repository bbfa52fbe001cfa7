package schedule

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

var (
	// ErrScheduleNotFound возвращается, когда у специалиста нет расписания
	ErrScheduleNotFound = fmt.Errorf("%w: schedule", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule.service: internal error")
)
