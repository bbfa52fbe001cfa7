package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder бизнес-метрики, которые пишут use cases и сервисы
// Реализуется *Metrics и Noop
type Recorder interface {
	IncBooking(result string)
	IncAppointmentTransition(to string)
	IncBonusTransaction(txType, status string)
	IncNotificationDropped()
}

// Metrics набор метрик сервиса
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrors      *prometheus.CounterVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	BookingsTotal               *prometheus.CounterVec
	AppointmentTransitionsTotal *prometheus.CounterVec
	BonusTransactionsTotal      *prometheus.CounterVec
	NotificationsDroppedTotal   *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry создает метрики в указанном реестре (используется в тестах)
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),

		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of open connections in the pool",
		}, []string{"service"}),

		DBInUseConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdleConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by result",
		}, []string{"service", "result"}),

		AppointmentTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Applied appointment status transitions by target status",
		}, []string{"service", "to"}),

		BonusTransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonus_transactions_total",
			Help: "Bonus ledger writes by type and status",
		}, []string{"service", "type", "status"}),

		NotificationsDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notification events dropped because the queue was full or the sink failed",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.BookingsTotal,
		m.AppointmentTransitionsTotal,
		m.BonusTransactionsTotal,
		m.NotificationsDroppedTotal,
	)

	return m
}

func (m *Metrics) IncBooking(result string) {
	m.BookingsTotal.WithLabelValues(m.serviceName, result).Inc()
}

func (m *Metrics) IncAppointmentTransition(to string) {
	m.AppointmentTransitionsTotal.WithLabelValues(m.serviceName, to).Inc()
}

func (m *Metrics) IncBonusTransaction(txType, status string) {
	m.BonusTransactionsTotal.WithLabelValues(m.serviceName, txType, status).Inc()
}

func (m *Metrics) IncNotificationDropped() {
	m.NotificationsDroppedTotal.WithLabelValues(m.serviceName).Inc()
}

// Noop используется, когда метрики выключены
type Noop struct{}

func (Noop) IncBooking(string)                  {}
func (Noop) IncAppointmentTransition(string)    {}
func (Noop) IncBonusTransaction(string, string) {}
func (Noop) IncNotificationDropped()            {}
