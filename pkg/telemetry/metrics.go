package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the symposium server.
type Metrics struct {
	config MetricsConfig

	// Admission metrics
	admissionsTotal prometheus.Counter
	lookupFailures  prometheus.Counter

	// Transition metrics
	transitionsTotal *prometheus.CounterVec
	eatGrantsTotal   prometheus.Counter
	acquireWait      *prometheus.HistogramVec
	mealDuration     prometheus.Histogram

	// Event metrics
	eventsPublished prometheus.Counter
	eventsDropped   prometheus.Counter

	// Session metrics
	sessionMessages *prometheus.CounterVec
	sessionDuration prometheus.Histogram

	// Error metrics
	errorsByCode *prometheus.CounterVec

	// Table state metrics
	philosophersSeated prometheus.Gauge
	philosophersEating prometheus.Gauge
	philosophersHungry prometheus.Gauge
	gatePermits        prometheus.Gauge
	gateAvailable      prometheus.Gauge
	activeConnections  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Admission metrics
		admissionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admissions_total",
				Help:      "Total number of philosophers admitted to the table",
			},
		),
		lookupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_failures_total",
				Help:      "Total number of updates naming an unknown philosopher",
			},
		),

		// Transition metrics
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of state transitions by target state",
			},
			[]string{"state"},
		),
		eatGrantsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "eat_grants_total",
				Help:      "Total number of hungry philosophers granted permission to eat",
			},
		),
		acquireWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "acquire_wait_seconds",
				Help:      "Time spent waiting for the gate or a chopstick",
				Buckets:   buckets,
			},
			[]string{"resource"},
		),
		mealDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "meal_duration_seconds",
				Help:      "Time a philosopher spends eating before thinking again",
				Buckets:   buckets,
			},
		),

		// Event metrics
		eventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of telemetry events published",
			},
		),
		eventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Total number of telemetry events dropped on a full buffer",
			},
		),

		// Session metrics
		sessionMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_messages_total",
				Help:      "Total number of protocol messages processed by type",
			},
			[]string{"type"},
		),
		sessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "Lifetime of client sessions in seconds",
				Buckets:   []float64{0.1, 1, 10, 60, 300, 1800, 3600},
			},
		),

		// Error metrics
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		// Table state metrics
		philosophersSeated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "philosophers_seated",
				Help:      "Current number of philosophers at the table",
			},
		),
		philosophersEating: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "philosophers_eating",
				Help:      "Current number of philosophers eating",
			},
		),
		philosophersHungry: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "philosophers_hungry",
				Help:      "Current number of philosophers waiting to eat",
			},
		),
		gatePermits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gate_permits",
				Help:      "Current capacity of the dining gate",
			},
		),
		gateAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gate_permits_available",
				Help:      "Gate permits not currently held by an eater",
			},
		),
		activeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_connections",
				Help:      "Current number of open client sessions",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.admissionsTotal,
		m.lookupFailures,
		m.transitionsTotal,
		m.eatGrantsTotal,
		m.acquireWait,
		m.mealDuration,
		m.eventsPublished,
		m.eventsDropped,
		m.sessionMessages,
		m.sessionDuration,
		m.errorsByCode,
		m.philosophersSeated,
		m.philosophersEating,
		m.philosophersHungry,
		m.gatePermits,
		m.gateAvailable,
		m.activeConnections,
	)

	return m, nil
}

// Admission Metrics

// RecordAdmission records a philosopher joining the table.
func (m *Metrics) RecordAdmission(seated, gateCapacity int) {
	if m.admissionsTotal == nil {
		return
	}
	m.admissionsTotal.Inc()
	m.philosophersSeated.Set(float64(seated))
	m.gatePermits.Set(float64(gateCapacity))
}

// RecordLookupFailure records an update that named an unknown philosopher.
func (m *Metrics) RecordLookupFailure() {
	if m.lookupFailures == nil {
		return
	}
	m.lookupFailures.Inc()
}

// Transition Metrics

// RecordTransition records a state transition to the given state.
func (m *Metrics) RecordTransition(state string) {
	if m.transitionsTotal == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(state).Inc()
}

// RecordEatGrant records a hungry philosopher being granted permission to eat.
func (m *Metrics) RecordEatGrant() {
	if m.eatGrantsTotal == nil {
		return
	}
	m.eatGrantsTotal.Inc()
}

// RecordAcquireWait records the time spent blocked on the gate or a chopstick.
// Resource is one of "gate", "left_chopstick" or "right_chopstick".
func (m *Metrics) RecordAcquireWait(resource string, duration time.Duration) {
	if m.acquireWait == nil {
		return
	}
	m.acquireWait.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordMealDuration records how long a philosopher spent eating.
func (m *Metrics) RecordMealDuration(duration time.Duration) {
	if m.mealDuration == nil {
		return
	}
	m.mealDuration.Observe(duration.Seconds())
}

// Event Metrics

// RecordEventPublished increments the published event counter.
func (m *Metrics) RecordEventPublished() {
	if m.eventsPublished == nil {
		return
	}
	m.eventsPublished.Inc()
}

// RecordEventDropped increments the dropped event counter.
func (m *Metrics) RecordEventDropped() {
	if m.eventsDropped == nil {
		return
	}
	m.eventsDropped.Inc()
}

// Session Metrics

// RecordSessionMessage records a processed protocol message.
func (m *Metrics) RecordSessionMessage(messageType string) {
	if m.sessionMessages == nil {
		return
	}
	m.sessionMessages.WithLabelValues(messageType).Inc()
}

// ObserveSessionDuration records the lifetime of a closed session.
func (m *Metrics) ObserveSessionDuration(duration time.Duration) {
	if m.sessionDuration == nil {
		return
	}
	m.sessionDuration.Observe(duration.Seconds())
}

// Error Metrics

// RecordError records an error by its code.
func (m *Metrics) RecordError(code string) {
	if m.errorsByCode == nil {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Table State Metrics

// IncEating increments the gauge of philosophers currently eating.
func (m *Metrics) IncEating() {
	if m.philosophersEating == nil {
		return
	}
	m.philosophersEating.Inc()
}

// DecEating decrements the gauge of philosophers currently eating.
func (m *Metrics) DecEating() {
	if m.philosophersEating == nil {
		return
	}
	m.philosophersEating.Dec()
}

// IncHungry increments the gauge of philosophers waiting to eat.
func (m *Metrics) IncHungry() {
	if m.philosophersHungry == nil {
		return
	}
	m.philosophersHungry.Inc()
}

// DecHungry decrements the gauge of philosophers waiting to eat.
func (m *Metrics) DecHungry() {
	if m.philosophersHungry == nil {
		return
	}
	m.philosophersHungry.Dec()
}

// SetGateAvailable sets the number of gate permits not currently held.
func (m *Metrics) SetGateAvailable(available int) {
	if m.gateAvailable == nil {
		return
	}
	m.gateAvailable.Set(float64(available))
}

// IncActiveConnections increments the open session gauge.
func (m *Metrics) IncActiveConnections() {
	if m.activeConnections == nil {
		return
	}
	m.activeConnections.Inc()
}

// DecActiveConnections decrements the open session gauge.
func (m *Metrics) DecActiveConnections() {
	if m.activeConnections == nil {
		return
	}
	m.activeConnections.Dec()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
