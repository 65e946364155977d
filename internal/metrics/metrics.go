// Package metrics exposes Prometheus counters for webhook traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmacy_bot"

type Webhook struct {
	Updates *prometheus.CounterVec
	Latency *prometheus.HistogramVec
}

// NewWebhook registers the webhook collectors on reg.
func NewWebhook(reg prometheus.Registerer) (*Webhook, error) {
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "updates_total",
		Help:      "Webhook deliveries by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "update_duration_ms",
		Help:      "Time from receiving a delivery to answering it, in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"outcome"})

	for _, c := range []prometheus.Collector{updates, latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &Webhook{Updates: updates, Latency: latency}, nil
}

// Update records one delivery.
func (w *Webhook) Update(outcome string, d time.Duration) {
	w.Updates.WithLabelValues(outcome).Inc()
	w.Latency.WithLabelValues(outcome).Observe(float64(d) / float64(time.Millisecond))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
