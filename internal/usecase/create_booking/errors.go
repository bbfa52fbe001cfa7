package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена в каталоге
	ErrServiceNotFound = fmt.Errorf("%w: service", domain.ErrNotFound)

	// ErrUserNotFound возвращается, когда клиент не зарегистрирован
	ErrUserNotFound = fmt.Errorf("%w: user", domain.ErrNotFound)

	// ErrNoSchedule у специалиста нет расписания, записаться нельзя
	ErrNoSchedule = fmt.Errorf("%w: specialist has no schedule", domain.ErrSlotUnavailable)

	// ErrTooLateToBook до начала записи осталось меньше минимального срока
	ErrTooLateToBook = fmt.Errorf("%w: too late to book this slot", domain.ErrSlotUnavailable)

	// ErrSlotConflict слот занят параллельной записью
	ErrSlotConflict = fmt.Errorf("%w: slot was taken by a concurrent booking", domain.ErrSlotUnavailable)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
