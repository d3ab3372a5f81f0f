package board

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	viewDate   = "date"
	viewStatus = "status"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the task view aggregator.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	SupersededTotal *prometheus.CounterVec
	QueryErrors     *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	DateObservers   prometheus.Gauge
}

// NewMetrics creates and registers the aggregator metrics once per process.
//
// Metrics:
//   - board_queries_total{view} - store queries issued for a view
//   - board_queries_superseded_total{view} - query results discarded as stale
//   - board_query_errors_total{view} - store queries that failed
//   - board_query_duration_seconds{view} - store query latency
//   - board_date_observers - current date view observers
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			QueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "board_queries_total",
					Help: "Total number of store queries issued by the task view aggregator",
				},
				[]string{"view"}, // "date" or "status"
			),
			SupersededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "board_queries_superseded_total",
					Help: "Total number of query results discarded because a newer request replaced them",
				},
				[]string{"view"},
			),
			QueryErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "board_query_errors_total",
					Help: "Total number of failed store queries",
				},
				[]string{"view"},
			),
			QueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "board_query_duration_seconds",
					Help:    "Duration of store queries in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"view"},
			),
			DateObservers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "board_date_observers",
					Help: "Current number of date view observers",
				},
			),
		}
	})
	return globalMetrics
}
