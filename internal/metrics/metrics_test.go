package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDocument(t *testing.T) {
	m := New()
	m.RecordDocument("docs", "created")
	m.RecordDocument("docs", "created")
	m.RecordDocument("docs", "skipped")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("docs", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("docs", "skipped")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordDocument("docs", "created")
		m.RecordSync("group", time.Second)
		m.RecordRetry("update")
		m.RecordSchemaError("users.json")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordRetry("update")
	m.RecordSync("group", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `apidocs_store_retries_total{operation="update"} 1`)
	assert.Contains(t, body, "apidocs_sync_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}
