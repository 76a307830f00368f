package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatcher's Prometheus collectors.
type Metrics struct {
	Enqueued         *prometheus.CounterVec
	Completed        *prometheus.CounterVec
	Pending          prometheus.Gauge
	DeliveryDuration *prometheus.HistogramVec
	Faults           prometheus.Counter
}

// NewMetrics creates the dispatcher collectors and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Enqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifyd_notifications_enqueued_total",
				Help: "Number of notifications accepted for delivery",
			},
			[]string{"channel", "priority"},
		),
		Completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifyd_notifications_completed_total",
				Help: "Number of notifications that reached a terminal status",
			},
			[]string{"channel", "status"},
		),
		Pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "notifyd_notifications_pending",
				Help: "Number of notifications waiting in the dispatch queue",
			},
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notifyd_delivery_duration_seconds",
				Help:    "Histogram of delivery channel send durations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
		Faults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notifyd_drain_faults_total",
				Help: "Number of infrastructural faults reported by the drain loop",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Enqueued, m.Completed, m.Pending, m.DeliveryDuration, m.Faults)
	}
	return m
}
