package notification

import "context"

// Publisher доставляет событие во внешний канал (Kafka, лог)
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// MetricsRecorder счётчик потерянных событий
type MetricsRecorder interface {
	IncNotificationDropped()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
