package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []Event
	release chan struct{}
	fail    error
	closed  bool
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.fail
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type dropCounter struct {
	dropped atomic.Int64
}

func (c *dropCounter) IncNotificationDropped() {
	c.dropped.Add(1)
}

func testAppointment(id int64) *domain.Appointment {
	return &domain.Appointment{
		ID:           id,
		SpecialistID: 3,
		ServiceID:    5,
		UserID:       ptr.Ptr(int64(10)),
		Date:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       domain.AppointmentConfirmed,
		Price:        decimal.NewFromInt(1500),
		BonusAmount:  100,
	}
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, 10, &dropCounter{}, logger.NewNop())

	d.Dispatch(NewBookedEvent(testAppointment(1)))
	d.Dispatch(NewStatusChangedEvent(testAppointment(2), domain.AppointmentPending, domain.RoleAdmin))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, EventAppointmentBooked, events[0].Type)
	assert.Equal(t, EventAppointmentStatusChanged, events[1].Type)
	assert.Equal(t, "pending", events[1].PreviousStatus)
	assert.True(t, pub.closed)
}

func TestDispatcher_DropsWhenQueueIsFull(t *testing.T) {
	pub := &recordingPublisher{release: make(chan struct{})}
	counter := &dropCounter{}
	d := NewDispatcher(pub, 1, counter, logger.NewNop())

	start := time.Now()
	for i := int64(1); i <= 5; i++ {
		d.Dispatch(NewBookedEvent(testAppointment(i)))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "Dispatch не блокирует")

	// Воркер держит одно событие, ещё одно в очереди, остальные отброшены
	assert.GreaterOrEqual(t, counter.dropped.Load(), int64(3))

	close(pub.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, int64(5), int64(len(pub.published()))+counter.dropped.Load())
}

func TestDispatcher_PublishErrorDoesNotStopWorker(t *testing.T) {
	pub := &recordingPublisher{fail: errors.New("broker down")}
	d := NewDispatcher(pub, 10, &dropCounter{}, logger.NewNop())

	d.Dispatch(NewBookedEvent(testAppointment(1)))
	d.Dispatch(NewBookedEvent(testAppointment(2)))

	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, pub.published(), 2)
}

func TestDispatcher_DispatchAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	counter := &dropCounter{}
	d := NewDispatcher(pub, 10, counter, logger.NewNop())
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(NewBookedEvent(testAppointment(1)))

	assert.Equal(t, int64(1), counter.dropped.Load())
	assert.ErrorIs(t, d.Close(context.Background()), ErrClosed)
}

func TestToMessage(t *testing.T) {
	event := NewBookedEvent(testAppointment(42))

	msg, err := toMessage(event)
	require.NoError(t, err)

	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "appointment.booked", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "2025-06-02", decoded.Appointment.Date)
	assert.Equal(t, "1500.00", decoded.Appointment.Price)
	assert.Equal(t, "confirmed", decoded.Outcome)
}
