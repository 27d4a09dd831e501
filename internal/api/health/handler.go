package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"clickstream/internal/workers"
	"clickstream/pkg/logger"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// SinkChecker reports per-sink connectivity, nil meaning healthy
type SinkChecker interface {
	Health(ctx context.Context) map[string]error
}

// WorkerReporter exposes the scheduler's view of its workers
type WorkerReporter interface {
	IsRunning() bool
	Health() map[string]workers.WorkerHealth
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	sinks       SinkChecker
	workers     WorkerReporter
	maxStale    time.Duration
	startTime   time.Time
	serviceName string
	version     string
	now         func() time.Time
}

// Config configures the handler. A worker is reported stale when it has not
// completed a run within MaxStale; zero disables the staleness check.
type Config struct {
	ServiceName string
	Version     string
	MaxStale    time.Duration
}

// New creates a new health check handler
func New(log *logger.Logger, sinks SinkChecker, workers WorkerReporter, cfg Config) *Handler {
	return &Handler{
		log:         log,
		sinks:       sinks,
		workers:     workers,
		maxStale:    cfg.MaxStale,
		startTime:   time.Now(),
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		now:         time.Now,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                          `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                          `json:"service"`
	Version   string                          `json:"version"`
	Uptime    string                          `json:"uptime"`
	Timestamp string                          `json:"timestamp"`
	Checks    map[string]ComponentHealth      `json:"checks"`
	Workers   map[string]workers.WorkerHealth `json:"workers,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// HandleReadiness requires every sink to answer and every worker to be running
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, healthy, total := h.collect(ctx)

	statusCode := http.StatusOK
	if healthy < total {
		status.Status = statusUnhealthy
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", status.Checks)
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed status; partial failure is reported as degraded
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, healthy, total := h.collect(ctx)

	statusCode := http.StatusOK
	switch {
	case total > 0 && healthy == 0:
		status.Status = statusUnhealthy
		statusCode = http.StatusServiceUnavailable
	case healthy < total:
		status.Status = statusDegraded
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) collect(ctx context.Context) (HealthStatus, int, int) {
	now := h.now()
	checks := make(map[string]ComponentHealth)
	healthy, total := 0, 0

	if h.sinks != nil {
		start := time.Now()
		results := h.sinks.Health(ctx)
		elapsed := time.Since(start).String()

		for name, err := range results {
			total++
			if err != nil {
				h.log.Errorw("Sink health check failed", "sink", name, "error", err)
				checks["sink:"+name] = ComponentHealth{Status: statusUnhealthy, ResponseTime: elapsed, Error: err.Error()}
				continue
			}
			healthy++
			checks["sink:"+name] = ComponentHealth{Status: statusHealthy, ResponseTime: elapsed}
		}
	}

	var workerHealth map[string]workers.WorkerHealth
	if h.workers != nil {
		total++
		if h.workers.IsRunning() {
			healthy++
			checks["scheduler"] = ComponentHealth{Status: statusHealthy}
		} else {
			checks["scheduler"] = ComponentHealth{Status: statusUnhealthy, Error: "not running"}
		}

		workerHealth = h.workers.Health()
		for name, wh := range workerHealth {
			total++
			if h.maxStale > 0 && wh.Stale(now, h.maxStale) {
				checks["worker:"+name] = ComponentHealth{Status: statusUnhealthy, Error: "no run within " + h.maxStale.String()}
				continue
			}
			healthy++
			checks["worker:"+name] = ComponentHealth{Status: statusHealthy}
		}
	}

	return HealthStatus{
		Status:    statusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    now.Sub(h.startTime).String(),
		Timestamp: now.Format(time.RFC3339),
		Checks:    checks,
		Workers:   workerHealth,
	}, healthy, total
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
