package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics は取り込みと検索のメトリクスです。
// ingest.Metrics と query.Metrics の両方を満たします。
type Metrics struct {
	gatherer     prometheus.Gatherer
	loadSources  *prometheus.CounterVec
	loadedRows   *prometheus.CounterVec
	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
}

// DefaultMetrics はプロセス既定のレジストリに登録されたメトリクスを返します。
var DefaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
})

// NewMetrics は reg にメトリクスを登録します。
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		loadSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdb",
			Subsystem: "ingest",
			Name:      "sources_total",
			Help:      "Number of source files processed broken down by table and status.",
		}, []string{"table", "status"}),
		loadedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdb",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Number of rows appended per table.",
		}, []string{"table"}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrdb",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total number of queries broken down by table and outcome.",
		}, []string{"table", "outcome"}),
		queryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrdb",
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "Latency distribution for queries.",
			Buckets: []float64{
				0.001, 0.002, 0.005,
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5,
			},
		}, []string{"table", "outcome"}),
	}
}

// ObserveSource は取り込み元 1 件の結果を記録します。
func (m *Metrics) ObserveSource(table, status string, rows int64) {
	if m == nil {
		return
	}
	m.loadSources.WithLabelValues(table, status).Inc()
	if rows > 0 {
		m.loadedRows.WithLabelValues(table).Add(float64(rows))
	}
}

// ObserveQuery は検索 1 件の結果を記録します。
func (m *Metrics) ObserveQuery(table, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.queries.WithLabelValues(table, outcome).Inc()
	m.queryLatency.WithLabelValues(table, outcome).Observe(elapsed.Seconds())
}

// Handler は /metrics 用の http.Handler を返します。
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
