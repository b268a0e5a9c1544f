// Package metrics exports the pool's stats snapshot to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/guileen/respool/pool"
)

// Exporter is a prometheus.Collector that reads the pool's synchronous stats
// snapshot on every scrape. It holds no state of its own, so registering one
// exporter per pool is all the wiring required.
type Exporter struct {
	pool *pool.Pool

	connectionsTotal    *prometheus.Desc
	connectionsActive   *prometheus.Desc
	connectionsIdle     *prometheus.Desc
	pendingAcquisitions *prometheus.Desc
	queriesTotal        *prometheus.Desc
	queryErrorsTotal    *prometheus.Desc
	evictionsTotal      *prometheus.Desc
	acquireTimeouts     *prometheus.Desc
	avgResponseMs       *prometheus.Desc
	acquisitionMs       *prometheus.Desc
	utilizationPct      *prometheus.Desc
}

// NewExporter creates an exporter for the given pool. The pool name is
// attached as a constant label so multiple pools can share a registry.
func NewExporter(p *pool.Pool) *Exporter {
	labels := prometheus.Labels{"pool": p.Name()}
	return &Exporter{
		pool: p,
		connectionsTotal: prometheus.NewDesc("respool_connections_total",
			"Current number of pooled resources.", nil, labels),
		connectionsActive: prometheus.NewDesc("respool_connections_active",
			"Resources currently lent to callers.", nil, labels),
		connectionsIdle: prometheus.NewDesc("respool_connections_idle",
			"Resources currently idle in the pool.", nil, labels),
		pendingAcquisitions: prometheus.NewDesc("respool_pending_acquisitions",
			"Callers queued waiting for a resource.", nil, labels),
		queriesTotal: prometheus.NewDesc("respool_queries_total",
			"Successfully executed operations.", nil, labels),
		queryErrorsTotal: prometheus.NewDesc("respool_query_errors_total",
			"Failed operation executions.", nil, labels),
		evictionsTotal: prometheus.NewDesc("respool_evictions_total",
			"Resources evicted by the health checker.", nil, labels),
		acquireTimeouts: prometheus.NewDesc("respool_acquire_timeouts_total",
			"Acquisitions that timed out while queued.", nil, labels),
		avgResponseMs: prometheus.NewDesc("respool_avg_response_ms",
			"Exponential moving average of operation response time.", nil, labels),
		acquisitionMs: prometheus.NewDesc("respool_acquisition_ms",
			"Exponential moving average of acquisition latency.", nil, labels),
		utilizationPct: prometheus.NewDesc("respool_utilization_percent",
			"Active resources as a percentage of MaxConnections.", nil, labels),
	}
}

// Describe implements prometheus.Collector
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.connectionsTotal
	ch <- e.connectionsActive
	ch <- e.connectionsIdle
	ch <- e.pendingAcquisitions
	ch <- e.queriesTotal
	ch <- e.queryErrorsTotal
	ch <- e.evictionsTotal
	ch <- e.acquireTimeouts
	ch <- e.avgResponseMs
	ch <- e.acquisitionMs
	ch <- e.utilizationPct
}

// Collect implements prometheus.Collector
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	stats := e.pool.Stats()

	ch <- prometheus.MustNewConstMetric(e.connectionsTotal, prometheus.GaugeValue, float64(stats.TotalConnections))
	ch <- prometheus.MustNewConstMetric(e.connectionsActive, prometheus.GaugeValue, float64(stats.ActiveConnections))
	ch <- prometheus.MustNewConstMetric(e.connectionsIdle, prometheus.GaugeValue, float64(stats.IdleConnections))
	ch <- prometheus.MustNewConstMetric(e.pendingAcquisitions, prometheus.GaugeValue, float64(stats.PendingAcquisitions))
	ch <- prometheus.MustNewConstMetric(e.queriesTotal, prometheus.CounterValue, float64(stats.TotalQueries))
	ch <- prometheus.MustNewConstMetric(e.queryErrorsTotal, prometheus.CounterValue, float64(stats.QueryErrors))
	ch <- prometheus.MustNewConstMetric(e.evictionsTotal, prometheus.CounterValue, float64(stats.Evictions))
	ch <- prometheus.MustNewConstMetric(e.acquireTimeouts, prometheus.CounterValue, float64(stats.AcquireTimeouts))
	ch <- prometheus.MustNewConstMetric(e.avgResponseMs, prometheus.GaugeValue, stats.AvgResponseTimeMs)
	ch <- prometheus.MustNewConstMetric(e.acquisitionMs, prometheus.GaugeValue, stats.AcquisitionTimeMs)
	ch <- prometheus.MustNewConstMetric(e.utilizationPct, prometheus.GaugeValue, stats.UtilizationPct)
}

var _ prometheus.Collector = (*Exporter)(nil)
