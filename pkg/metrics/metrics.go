package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
// Все методы безопасно вызывать на nil (метрики выключены)
type Metrics struct {
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	dbQueryDuration      *prometheus.HistogramVec
	dbOpenConnections    prometheus.Gauge
	dbInUseConnections   prometheus.Gauge
	dbIdleConnections    prometheus.Gauge
	dbWaitCount          prometheus.Gauge
	bookingsCreated      prometheus.Counter
	reservationConflicts prometheus.Counter
	depositOutcomes      *prometheus.CounterVec
	pollAttempts         *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в переданном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "path"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: labels,
		}, []string{"operation"}),
		dbOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_open_connections", Help: "Open database connections", ConstLabels: labels,
		}),
		dbInUseConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_in_use_connections", Help: "Database connections in use", ConstLabels: labels,
		}),
		dbIdleConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_idle_connections", Help: "Idle database connections", ConstLabels: labels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_wait_count", Help: "Total number of connections waited for", ConstLabels: labels,
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total", Help: "Bookings created", ConstLabels: labels,
		}),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservation_conflicts_total", Help: "Reservation attempts rejected by an overlapping window", ConstLabels: labels,
		}),
		depositOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_outcomes_total", Help: "Applied deposit outcomes", ConstLabels: labels,
		}, []string{"status"}),
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_poll_attempts_total", Help: "Payment status polls by result", ConstLabels: labels,
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.dbQueryDuration,
		m.dbOpenConnections,
		m.dbInUseConnections,
		m.dbIdleConnections,
		m.dbWaitCount,
		m.bookingsCreated,
		m.reservationConflicts,
		m.depositOutcomes,
		m.pollAttempts,
	)

	return m
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConnections.Set(float64(open))
	m.dbInUseConnections.Set(float64(inUse))
	m.dbIdleConnections.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

func (m *Metrics) IncBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *Metrics) IncReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

func (m *Metrics) IncDepositOutcome(status string) {
	if m == nil {
		return
	}
	m.depositOutcomes.WithLabelValues(status).Inc()
}

func (m *Metrics) IncPollAttempt(result string) {
	if m == nil {
		return
	}
	m.pollAttempts.WithLabelValues(result).Inc()
}
