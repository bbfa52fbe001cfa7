package appointments

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = fmt.Errorf("%w: appointment", domain.ErrNotFound)

	// ErrNotArchived удалить можно только архивную запись
	ErrNotArchived = fmt.Errorf("%w: only archived appointments can be deleted", domain.ErrInvalidTransition)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("appointments service: internal error")
)
