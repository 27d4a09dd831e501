package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/internal/workers"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

type staticSinks map[string]error

func (s staticSinks) Health(ctx context.Context) map[string]error { return s }

type staticWorkers struct {
	stopped bool
	health  map[string]workers.WorkerHealth
}

func (s staticWorkers) IsRunning() bool                         { return !s.stopped }
func (s staticWorkers) Health() map[string]workers.WorkerHealth { return s.health }

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(sinks SinkChecker, w WorkerReporter) *Handler {
	h := New(logger.Nop(), sinks, w, Config{ServiceName: "clickstream-generator", Version: "test", MaxStale: time.Minute})
	h.now = func() time.Time { return testNow }
	return h
}

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleLiveness(t *testing.T) {
	h := newTestHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	h := newTestHandler(
		staticSinks{"kafka": nil, "redis": nil},
		staticWorkers{health: map[string]workers.WorkerHealth{
			"clickstream_generator": {Enabled: true, LastRun: testNow.Add(-time.Second)},
		}},
	)

	code, status := serve(t, h.HandleReadiness)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusHealthy, status.Status)
	assert.Len(t, status.Checks, 4)
	assert.Equal(t, statusHealthy, status.Checks["scheduler"].Status)
	assert.Equal(t, statusHealthy, status.Checks["sink:kafka"].Status)
	assert.Contains(t, status.Workers, "clickstream_generator")
}

func TestHandleReadiness_SinkDown(t *testing.T) {
	h := newTestHandler(staticSinks{"kafka": nil, "redis": errors.New("connection refused")}, nil)

	code, status := serve(t, h.HandleReadiness)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, status.Status)
	assert.Equal(t, "connection refused", status.Checks["sink:redis"].Error)
}

func TestHandleReadiness_StaleWorker(t *testing.T) {
	h := newTestHandler(
		staticSinks{"kafka": nil},
		staticWorkers{health: map[string]workers.WorkerHealth{
			"clickstream_generator": {Enabled: true, LastRun: testNow.Add(-2 * time.Minute)},
		}},
	)

	code, status := serve(t, h.HandleReadiness)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, status.Checks["worker:clickstream_generator"].Status)
}

func TestHandleHealth_Degraded(t *testing.T) {
	h := newTestHandler(staticSinks{"kafka": nil, "postgres": errors.New("timeout")}, nil)

	code, status := serve(t, h.HandleHealth)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusDegraded, status.Status)
}

func TestHandleHealth_AllDown(t *testing.T) {
	h := newTestHandler(staticSinks{"kafka": errors.New("no brokers")}, nil)

	code, status := serve(t, h.HandleHealth)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, status.Status)
}

func TestHandleReadiness_SchedulerStopped(t *testing.T) {
	h := newTestHandler(staticSinks{"kafka": nil}, staticWorkers{stopped: true})

	code, status := serve(t, h.HandleReadiness)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not running", status.Checks["scheduler"].Error)
}
