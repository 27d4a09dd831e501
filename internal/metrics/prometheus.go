package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clickstream_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clickstream_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Simulation metrics
	EventsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_events_generated_total",
			Help: "Total number of synthesized events",
		},
		[]string{"event_type"},
	)

	TransitionDowngrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_transition_downgrades_total",
			Help: "Transitions that degraded to page_view because the cart was empty",
		},
		[]string{"requested"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_sessions_started_total",
			Help: "Sessions started, by whether the user was new",
		},
		[]string{"user"}, // user: new|returning
	)

	// Publisher metrics
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_events_published_total",
			Help: "Events accepted by a sink",
		},
		[]string{"sink"},
	)

	PublishErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_publish_errors_total",
			Help: "Failed publish calls",
		},
		[]string{"sink"},
	)

	PublishLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clickstream_publish_latency_seconds",
			Help:    "Latency of one publish call per sink",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"sink"},
	)

	PublishBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_publish_bytes_total",
			Help: "Encoded bytes handed to a sink",
		},
		[]string{"sink"},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickstream_events_dropped_total",
			Help: "Events a sink could not accept",
		},
		[]string{"sink", "reason"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			EventsGenerated,
			TransitionDowngrades,
			SessionsStarted,
			EventsPublished,
			PublishErrors,
			PublishLatency,
			PublishBytes,
			EventsDropped,
		)
	})
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPublish records one publish call of a sink
func RecordPublish(sink string, count int, bytes int, latency time.Duration, err error) {
	PublishLatency.WithLabelValues(sink).Observe(latency.Seconds())
	if count > 0 {
		EventsPublished.WithLabelValues(sink).Add(float64(count))
	}
	if bytes > 0 {
		PublishBytes.WithLabelValues(sink).Add(float64(bytes))
	}
	if err != nil {
		PublishErrors.WithLabelValues(sink).Inc()
	}
}
