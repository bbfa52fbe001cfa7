package notification

import "context"

// LogPublisher пишет события в лог, используется когда брокер не настроен
type LogPublisher struct {
	logger Logger
}

// NewLogPublisher создает издателя в лог
func NewLogPublisher(logger Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info("Notification: %s id=%s appointment=%d outcome=%s",
		event.Type, event.ID, event.Appointment.ID, event.Outcome)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
