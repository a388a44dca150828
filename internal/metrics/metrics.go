// Package metrics provides Prometheus metrics for the study engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	SessionsTotal    *prometheus.CounterVec
	SessionDuration  *prometheus.HistogramVec
	BetsTotal        *prometheus.CounterVec
	StaminaConsumed  *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	SweptSessions    prometheus.Counter
	DaysFinalized    *prometheus.CounterVec
	PenaltiesCreated prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starlog_sessions_total",
				Help: "Total number of study sessions by terminal status.",
			},
			[]string{"status"},
		),
		SessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "starlog_session_focus_seconds",
				Help:    "Actual focus time of finished sessions.",
				Buckets: []float64{300, 900, 1800, 3600, 7200, 10800, 14400},
			},
			[]string{"status"},
		),
		BetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starlog_bets_total",
				Help: "Total bet judgments by result.",
			},
			[]string{"result"},
		),
		StaminaConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starlog_stamina_consumed_total",
				Help: "Total stamina points consumed by interruption reason.",
			},
			[]string{"reason"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "starlog_active_sessions",
				Help: "Number of sessions currently ACTIVE or PAUSED.",
			},
		),
		SweptSessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "starlog_swept_sessions_total",
				Help: "Stale sessions force-abandoned by the sweeper.",
			},
		),
		DaysFinalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starlog_days_finalized_total",
				Help: "Study days finalized by star classification.",
			},
			[]string{"star"},
		),
		PenaltiesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "starlog_penalties_created_total",
				Help: "Penalty records created for lost bets.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starlog_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SessionsTotal)
	reg.MustRegister(m.SessionDuration)
	reg.MustRegister(m.BetsTotal)
	reg.MustRegister(m.StaminaConsumed)
	reg.MustRegister(m.ActiveSessions)
	reg.MustRegister(m.SweptSessions)
	reg.MustRegister(m.DaysFinalized)
	reg.MustRegister(m.PenaltiesCreated)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSessionFinished increments the session counter and records its focus time.
func (m *Metrics) RecordSessionFinished(status string, focusSeconds float64) {
	m.SessionsTotal.WithLabelValues(status).Inc()
	m.SessionDuration.WithLabelValues(status).Observe(focusSeconds)
}

// RecordBet increments the bet counter.
func (m *Metrics) RecordBet(result string) {
	m.BetsTotal.WithLabelValues(result).Inc()
}

// RecordStamina adds consumed stamina points for a reason.
func (m *Metrics) RecordStamina(reason string, points float64) {
	m.StaminaConsumed.WithLabelValues(reason).Add(points)
}

// RecordDayFinalized increments the finalized-day counter.
func (m *Metrics) RecordDayFinalized(star string) {
	m.DaysFinalized.WithLabelValues(star).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
