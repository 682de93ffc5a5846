package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespaces used by the two processes.
const (
	NamespaceMarket = "market_feeder"
	NamespaceNews   = "news_feeder"
)

// Metrics holds all pipeline metrics for one process.
type Metrics struct {
	WritesTotal        *prometheus.CounterVec
	WriteErrorsTotal   *prometheus.CounterVec
	PointsWrittenTotal *prometheus.CounterVec
	LastWriteTimestamp *prometheus.GaugeVec
	ActiveSources      prometheus.Gauge
	ArticlesDeduped    *prometheus.CounterVec
	Uptime             prometheus.GaugeFunc
}

// New creates and registers all metrics under namespace.
// Uptime is measured from start.
func New(reg prometheus.Registerer, namespace string, start time.Time) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Batches committed to the sink.",
		}, []string{"source"}),

		WriteErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Batches the sink failed to commit.",
		}, []string{"source"}),

		PointsWrittenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_written_total",
			Help:      "Points committed to the sink.",
		}, []string{"source"}),

		LastWriteTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_write_timestamp",
			Help:      "Unix time of the last successful write.",
		}, []string{"source"}),

		ActiveSources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sources",
			Help:      "Sources currently running.",
		}),

		ArticlesDeduped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_deduped_total",
			Help:      "Articles suppressed as already seen.",
		}, []string{"source"}),

		Uptime: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since process start.",
		}, func() float64 {
			return time.Since(start).Seconds()
		}),
	}
}

// Deduped returns a counter for one news source.
func (m *Metrics) Deduped(source string) prometheus.Counter {
	return m.ArticlesDeduped.WithLabelValues(source)
}
