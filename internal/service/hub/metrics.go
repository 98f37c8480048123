// internal/service/hub/metrics.go

package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates hub instrumentation. A nil *Metrics disables
// collection entirely.
type Metrics struct {
	Connected  prometheus.Gauge
	Events     *prometheus.CounterVec
	Broadcasts *prometheus.CounterVec
	Dropped    prometheus.Counter
	Rejected   prometheus.Counter
}

// NewMetrics registers the hub collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hershield_connected_clients",
			Help: "Number of currently attached WebSocket connections.",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hershield_events_received_total",
			Help: "Inbound events accepted for dispatch, by kind.",
		}, []string{"kind"}),
		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hershield_broadcasts_total",
			Help: "Outbound broadcasts issued, by addressing mode and kind.",
		}, []string{"mode", "kind"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "hershield_frames_dropped_total",
			Help: "Outbound frames dropped because a recipient's send buffer was full.",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "hershield_frames_rejected_total",
			Help: "Inbound frames rejected as malformed before dispatch.",
		}),
	}
}
