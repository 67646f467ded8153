package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *series
	apiLatency    *histogramVec
	apiInflight   *series
	optimizerRuns *series
	optimizerTime *histogramVec
	graphLoads    *series
	workspaces    *series
	evictions     *series
	persistErrors *series
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

// Init builds the process metrics once. It returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		log.Info("metrics enabled")
	})
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: newCounter("po_api_requests_total", "Total API requests by method/route/status.", "method", "route", "status"),
		apiLatency: newHistogram(
			"po_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			"method", "route", "status",
		),
		apiInflight:   newGauge("po_api_inflight_requests", "In-flight API requests."),
		optimizerRuns: newCounter("po_optimizer_runs_total", "Optimization runs by outcome.", "status"),
		optimizerTime: newHistogram(
			"po_optimizer_run_duration_seconds",
			"Optimization run latency in seconds by outcome.",
			[]float64{1, 5, 15, 30, 60, 120, 300, 600},
			"status",
		),
		graphLoads:    newCounter("po_graph_loads_total", "Dependency graph loads by origin and outcome.", "origin", "status"),
		workspaces:    newGauge("po_workspaces_active", "Workspaces held in memory."),
		evictions:     newCounter("po_workspace_evictions_total", "Workspaces dropped from memory by reason.", "reason"),
		persistErrors: newCounter("po_persist_errors_total", "Failed best-effort writes by table.", "table"),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.optimizerRuns,
		m.optimizerTime,
		m.graphLoads,
		m.workspaces,
		m.evictions,
		m.persistErrors,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveOptimizerRun records one run; status is "succeeded" or "failed".
func (m *Metrics) ObserveOptimizerRun(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.optimizerRuns.Inc(status)
	m.optimizerTime.Observe(dur.Seconds(), status)
}

// IncGraphLoad counts a graph load; origin is "cache" or "source".
func (m *Metrics) IncGraphLoad(origin, status string) {
	if m == nil {
		return
	}
	m.graphLoads.Inc(origin, status)
}

func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}

// AddEvictions counts workspaces dropped from memory; reason is "idle" or
// "capacity".
func (m *Metrics) AddEvictions(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n), reason)
}

func (m *Metrics) IncPersistError(table string) {
	if m == nil {
		return
	}
	m.persistErrors.Inc(table)
}
