package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waitline/waitline/internal/notify"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	QueueJoins          prometheus.Counter
	QueueLeaves         prometheus.Counter
	AlertsFired         prometheus.Counter
	EstimatedWait       prometheus.Histogram
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	DispatchLatency     *prometheus.HistogramVec
	DispatchDepthUrgent prometheus.Gauge
	DispatchDepthNormal prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer.
// Using a custom registry (instead of prometheus.DefaultRegisterer)
// keeps tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_joins_total",
			Help: "Total number of successful queue joins.",
		}),
		QueueLeaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_leaves_total",
			Help: "Total number of voluntary queue departures.",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proximity_alerts_fired_total",
			Help: "Total number of proximity alerts that fired.",
		}),
		EstimatedWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "estimated_wait_minutes",
			Help:    "Distribution of wait estimates handed out at join time.",
			Buckets: []float64{0, 5, 10, 15, 30, 60, 120},
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications handed to the delivery collaborator.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total notifications the delivery collaborator rejected.",
		}, []string{"channel"}),
		DispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_dispatch_seconds",
			Help:    "Latency from dequeue to collaborator ack.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		DispatchDepthUrgent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_depth_urgent",
			Help: "Current number of events in the urgent dispatch tier.",
		}),
		DispatchDepthNormal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_depth_normal",
			Help: "Current number of events in the normal dispatch tier.",
		}),
	}

	reg.MustRegister(
		m.QueueJoins,
		m.QueueLeaves,
		m.AlertsFired,
		m.EstimatedWait,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.DispatchLatency,
		m.DispatchDepthUrgent,
		m.DispatchDepthNormal,
	)

	return m
}

// WorkerHooks returns the metric callbacks expected by worker.MetricHooks.
// Centralises the prometheus observation calls so worker.go stays import-free.
func (m *Metrics) WorkerHooks() (
	onSent func(notify.Channel, time.Duration),
	onFailed func(notify.Channel),
) {
	onSent = func(ch notify.Channel, latency time.Duration) {
		m.NotificationsSent.WithLabelValues(string(ch)).Inc()
		m.DispatchLatency.WithLabelValues(string(ch)).Observe(latency.Seconds())
	}
	onFailed = func(ch notify.Channel) {
		m.NotificationsFailed.WithLabelValues(string(ch)).Inc()
	}
	return
}
