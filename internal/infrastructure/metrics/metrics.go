package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics defines our Prometheus metrics
type Metrics struct {
	RoomsLive       prometheus.Gauge
	ClientsAttached prometheus.Gauge
	MessagesSent    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RoomsLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relaychat_rooms_live",
			Help: "Number of rooms currently in the registry.",
		}),
		ClientsAttached: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relaychat_clients_attached",
			Help: "Number of websocket clients currently attached to a room.",
		}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relaychat_messages_broadcast_total",
			Help: "Messages fanned out to room members, by kind.",
		}, []string{"kind"}),
	}
}
