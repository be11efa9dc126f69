package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/hr-datahub/internal/platform/config"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(config.LogConfig{Level: "warn", Output: "stderr"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug must be disabled")
	assert.True(t, logger.Core().Enabled(1), "warn must be enabled")

	logger, err = NewLogger(config.LogConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0), "unknown level falls back to info")
}

func TestMetrics_ObserveSourceAndQuery(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, reg)

	m.ObserveSource("employee_master", "loaded", 4)
	m.ObserveSource("remuneration", "skipped", 0)
	m.ObserveQuery("performance", "ok", 20*time.Millisecond)
	m.ObserveQuery("", "rejected", time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, reg, "hrdb_ingest_sources_total", map[string]string{"table": "employee_master", "status": "loaded"}))
	assert.Equal(t, 4.0, counterValue(t, reg, "hrdb_ingest_rows_total", map[string]string{"table": "employee_master"}))
	assert.Equal(t, 0.0, counterValue(t, reg, "hrdb_ingest_rows_total", map[string]string{"table": "remuneration"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "hrdb_query_requests_total", map[string]string{"table": "unknown", "outcome": "rejected"}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hrdb_query_requests_total"))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveSource("employee_master", "loaded", 1)
	m.ObserveQuery("employee_master", "ok", time.Second)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			if len(metric.GetLabel()) != len(labels) {
				continue
			}
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}
