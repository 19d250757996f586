package state

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts remote traffic of the sync engine. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	persist   *prometheus.CounterVec
	pushes    *prometheus.CounterVec
	sanitized prometheus.Counter
	rejected  prometheus.Counter
	inFlight  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		persist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripsync",
			Name:      "remote_writes_total",
			Help:      "Remote upserts and deletes by operation and result. Queued writes replaced by a newer one count as superseded.",
		}, []string{"op", "result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripsync",
			Name:      "feed_pushes_total",
			Help:      "Change-feed pushes by outcome.",
		}, []string{"outcome"}),
		sanitized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripsync",
			Name:      "sanitized_activities_total",
			Help:      "Malformed activities dropped at ingress.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripsync",
			Name:      "rejected_reorders_total",
			Help:      "Manual reorders refused by the strict reorder guard.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tripsync",
			Name:      "remote_calls_in_flight",
			Help:      "Remote calls currently outstanding.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.persist, m.pushes, m.sanitized, m.rejected, m.inFlight)
	}
	return m
}

func (m *Metrics) persistResult(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.persist.WithLabelValues(op, result).Inc()
}

func (m *Metrics) superseded(op string) {
	if m == nil {
		return
	}
	m.persist.WithLabelValues(op, "superseded").Inc()
}

func (m *Metrics) push(outcome string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) dropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.sanitized.Add(float64(n))
}

func (m *Metrics) orderRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) syncStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) syncFinished() {
	if m != nil {
		m.inFlight.Dec()
	}
}
