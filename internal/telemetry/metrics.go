package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics exposes counters/histograms for call dispatches.
type DispatchMetrics struct {
	dispatchTotal *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
}

// NewDispatchMetrics registers dispatch metrics on reg, or on the default
// registerer when reg is nil.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "calls",
			Name:      "dispatch_total",
			Help:      "Total call dispatch attempts by entry point and outcome",
		}, []string{"source", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relay",
			Subsystem: "calls",
			Name:      "remote_latency_seconds",
			Help:      "Latency of the remote create-call request",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 20, 30},
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dispatchTotal, m.remoteLatency)
	return m
}

func (m *DispatchMetrics) ObserveDispatch(source, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(source, outcome).Inc()
}

func (m *DispatchMetrics) ObserveRemoteLatency(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.remoteLatency.WithLabelValues(outcome).Observe(d.Seconds())
}
