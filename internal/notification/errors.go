package notification

import "errors"

var (
	// ErrMarshal событие не удалось сериализовать
	ErrMarshal = errors.New("notification: failed to marshal event")

	// ErrPublish событие не доставлено брокеру
	ErrPublish = errors.New("notification: failed to publish event")

	// ErrClosed диспетчер уже остановлен
	ErrClosed = errors.New("notification: dispatcher is closed")
)
