package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDispatchMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.ObserveDispatch("webhook", "success")
	m.ObserveDispatch("webhook", "success")
	m.ObserveDispatch("funnel", "unauthorized")
	m.ObserveRemoteLatency("success", 300*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("webhook", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("funnel", "unauthorized")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.remoteLatency))
}

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveDispatch("debug", "success")
	m.ObserveRemoteLatency("success", time.Second)
}
