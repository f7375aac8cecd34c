package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"queue-hires/internal/domain"
)

// Metrics groups the instruments of one run. The job is short-lived, so the
// registry is pushed to a Pushgateway at the end instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	EmployeesFetched prometheus.Gauge
	QueueItemsAdded  *prometheus.CounterVec
	QueueItemsFailed *prometheus.CounterVec
	SubmitLatency    *prometheus.HistogramVec
	RunsTotal        *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
}

// New registers all instruments on reg. Tests pass their own registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,

		EmployeesFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_hires_employees_fetched",
			Help: "Number of employees returned by the source in the last run.",
		}),
		QueueItemsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_hires_items_added_total",
			Help: "Queue items accepted by Orchestrator.",
		}, []string{"priority"}),
		QueueItemsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_hires_items_failed_total",
			Help: "Queue items rejected by Orchestrator or lost in transport.",
		}, []string{"priority"}),
		SubmitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queue_hires_submit_seconds",
			Help:    "Latency of a single AddQueueItem call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"priority"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_hires_runs_total",
			Help: "Handler invocations by response status code.",
		}, []string{"status"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_hires_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	reg.MustRegister(
		m.EmployeesFetched,
		m.QueueItemsAdded,
		m.QueueItemsFailed,
		m.SubmitLatency,
		m.RunsTotal,
		m.LastRunTimestamp,
	)
	return m
}

func (m *Metrics) ObserveSubmit(p domain.Priority, latency time.Duration, err error) {
	if m == nil {
		return
	}
	m.SubmitLatency.WithLabelValues(string(p)).Observe(latency.Seconds())
	if err != nil {
		m.QueueItemsFailed.WithLabelValues(string(p)).Inc()
		return
	}
	m.QueueItemsAdded.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) ObserveFetched(n int) {
	if m == nil {
		return
	}
	m.EmployeesFetched.Set(float64(n))
}

func (m *Metrics) ObserveRun(status string, finished time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// Push sends the registry to the Pushgateway at url under job, grouped by instance.
func (m *Metrics) Push(ctx context.Context, url, job, instance string) error {
	pusher := push.New(url, job).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	return pusher.PushContext(ctx)
}
