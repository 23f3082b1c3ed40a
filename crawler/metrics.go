package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// Metrics counts dispatch outcomes per topic.
type Metrics struct {
	processed *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		processed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_events_processed_total",
			Help: "Outbox events processed by the crawler, by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}
}

func (m *Metrics) observe(topic string, outcome outbox.Outcome) {
	m.processed.WithLabelValues(topic, string(outcome)).Inc()
}
