package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/catalog", "200", 20*time.Millisecond)
	m.ObserveAPI("GET", "/api/catalog", "200", 40*time.Millisecond)
	m.ObserveOptimizerRun("failed", 2*time.Second)
	m.IncGraphLoad("source", "ok")
	m.SetWorkspaces(3)
	m.AddEvictions("idle", 2)
	m.AddEvictions("capacity", 0)

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, `po_api_requests_total{method="GET",route="/api/catalog",status="200"} 2`)
	assert.Contains(t, out, `po_api_request_duration_seconds_bucket{method="GET",route="/api/catalog",status="200",le="0.025"} 1`)
	assert.Contains(t, out, `po_api_request_duration_seconds_bucket{method="GET",route="/api/catalog",status="200",le="+Inf"} 2`)
	assert.Contains(t, out, `po_optimizer_runs_total{status="failed"} 1`)
	assert.Contains(t, out, `po_graph_loads_total{origin="source",status="ok"} 1`)
	assert.Contains(t, out, "po_workspaces_active 3")
	assert.Contains(t, out, `po_workspace_evictions_total{reason="idle"} 2`)
	assert.NotContains(t, out, `reason="capacity"`)
	assert.Contains(t, out, "# TYPE po_api_inflight_requests gauge")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ObserveOptimizerRun("succeeded", time.Second)
	m.IncPersistError("workspace_snapshot")
	m.AddEvictions("idle", 1)

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route", "status"}, []string{`/a"b`})
	assert.Equal(t, `{route="/a\"b",status="unknown"}`, got)
	assert.True(t, strings.HasSuffix(withLe(got, "1"), `,le="1"}`))
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, parseHeaders(" a=1, b = 2 ,broken,=x"))
	assert.Nil(t, parseHeaders(""))
}
