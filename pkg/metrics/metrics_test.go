package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_BusinessCounters(t *testing.T) {
	m := NewWithRegistry("wellness", prometheus.NewRegistry())

	m.IncBooking("created")
	m.IncBooking("created")
	m.IncBooking("slot_unavailable")
	m.IncBonusTransaction("spent", "completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("wellness", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("wellness", "slot_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BonusTransactionsTotal.WithLabelValues("wellness", "spent", "completed")))
}

func TestNoop_ImplementsRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.IncBooking("created")
	r.IncNotificationDropped()
}
