// Package metrics exposes the Prometheus counters of the booking backend.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels carry no session or user ids.
type Metrics struct {
	bookingOutcomes *prometheus.CounterVec
	stepAttempts    *prometheus.CounterVec
	detachedFailed  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	linksReconciled prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		bookingOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aroti_booking_outcomes_total",
			Help: "Booking runs reaching a terminal state, by result kind.",
		}, []string{"kind"}),
		stepAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aroti_booking_step_attempts_total",
			Help: "Attempts made per orchestration step.",
		}, []string{"step"}),
		detachedFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aroti_detached_step_failures_total",
			Help: "Fire-and-forget steps that exhausted their retries.",
		}, []string{"step"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aroti_cache_lookups_total",
			Help: "Cache-aside lookups, by key family and result (hit, miss, error).",
		}, []string{"family", "result"}),
		linksReconciled: f.NewCounter(prometheus.CounterOpts{
			Name: "aroti_meeting_links_reconciled_total",
			Help: "Meeting links attached to pending sessions by the reconciliation task.",
		}),
	}
}

// BookingOutcome counts a terminal run; kind is "completed" for success.
func (m *Metrics) BookingOutcome(kind string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(kind).Inc()
}

func (m *Metrics) StepAttempt(step string) {
	if m == nil {
		return
	}
	m.stepAttempts.WithLabelValues(step).Inc()
}

func (m *Metrics) DetachedFailure(step string) {
	if m == nil {
		return
	}
	m.detachedFailed.WithLabelValues(step).Inc()
}

func (m *Metrics) CacheLookup(family, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(family, result).Inc()
}

func (m *Metrics) LinksReconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.linksReconciled.Add(float64(n))
}
