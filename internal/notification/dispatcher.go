package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	defaultQueueSize = 256
	publishTimeout   = 5 * time.Second
)

// Dispatcher асинхронно передаёт события издателю
//
// Dispatch никогда не блокирует вызывающего: при переполнении очереди событие
// отбрасывается и учитывается в метрике. Ошибки доставки только логируются,
// на результат бронирования или смены статуса они не влияют
type Dispatcher struct {
	publisher Publisher
	metrics   MetricsRecorder
	logger    Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewDispatcher создает диспетчер и запускает воркер доставки
func NewDispatcher(publisher Publisher, queueSize int, metrics MetricsRecorder, logger Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}

	go d.run()

	return d
}

// Dispatch ставит событие в очередь
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher is closed")
		return
	}

	select {
	case d.queue <- event:
	default:
		d.drop(event, "queue is full")
	}
}

// Close прекращает приём событий и ждёт доставки уже поставленных в очередь
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return fmt.Errorf("%w: drain interrupted: %v", ErrClosed, ctx.Err())
	}

	return d.publisher.Close()
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("Dispatcher: failed to publish event id=%s type=%s appointment=%d: %v",
				event.ID, event.Type, event.Appointment.ID, err)
		}
		cancel()
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	d.metrics.IncNotificationDropped()
	d.logger.Warn("Dispatcher: dropped event id=%s type=%s appointment=%d: %s",
		event.ID, event.Type, event.Appointment.ID, reason)
}
