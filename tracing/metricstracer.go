package tracing

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsTracer counts transits in Prometheus counters.
type MetricsTracer struct {
	transits  *prometheus.CounterVec
	decisions *prometheus.CounterVec
	bytes     *prometheus.CounterVec
}

// NewMetricsTracer creates the counters and registers them with reg.
func NewMetricsTracer(reg prometheus.Registerer) *MetricsTracer {
	t := &MetricsTracer{
		transits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethersim",
			Name:      "transits_total",
			Help:      "Packet and link events observed, by device and kind.",
		}, []string{"device", "kind"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethersim",
			Name:      "switch_decisions_total",
			Help:      "Forwarding decisions taken by switches.",
		}, []string{"device", "decision"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethersim",
			Name:      "delivered_bytes_total",
			Help:      "Payload bytes delivered to devices.",
		}, []string{"device"}),
	}

	reg.MustRegister(t.transits, t.decisions, t.bytes)

	return t
}

// Trace updates the counters.
func (t *MetricsTracer) Trace(tr Transit) {
	t.transits.WithLabelValues(tr.Device, string(tr.Kind)).Inc()

	switch tr.Kind {
	case KindForward:
		decision, _, _ := strings.Cut(tr.Detail, " ")
		t.decisions.WithLabelValues(tr.Device, decision).Inc()
	case KindDeliver:
		t.bytes.WithLabelValues(tr.Device).Add(float64(tr.Size))
	}
}
