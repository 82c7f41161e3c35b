package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics. Stats are read during each scrape.
type PoolCollector struct {
	pool *pgxpool.Pool

	acquireCount      *prometheus.Desc
	acquireDuration   *prometheus.Desc
	acquiredConns     *prometheus.Desc
	idleConns         *prometheus.Desc
	maxConns          *prometheus.Desc
	totalConns        *prometheus.Desc
	emptyAcquireCount *prometheus.Desc
}

func poolDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pgxpool", name), help, nil, nil)
}

// NewPoolCollector creates a collector for pool. A nil pool yields no samples,
// which is the case for the in-memory storage driver.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return &PoolCollector{
		pool:              pool,
		acquireCount:      poolDesc("acquire_count", "Cumulative count of successful connection acquires."),
		acquireDuration:   poolDesc("acquire_duration_seconds", "Cumulative time spent acquiring connections."),
		acquiredConns:     poolDesc("acquired_conns", "Number of currently acquired connections."),
		idleConns:         poolDesc("idle_conns", "Number of idle connections in the pool."),
		maxConns:          poolDesc("max_conns", "Maximum number of connections allowed."),
		totalConns:        poolDesc("total_conns", "Total number of connections in the pool."),
		emptyAcquireCount: poolDesc("empty_acquire_count", "Cumulative count of acquires from an empty pool."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.maxConns
	ch <- c.totalConns
	ch <- c.emptyAcquireCount
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()

	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, stat.AcquireDuration().Seconds())
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquireCount, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}
