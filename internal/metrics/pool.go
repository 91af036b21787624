package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	dbConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pozt_db_pool_connections",
			Help: "Database pool connections by state.",
		},
		[]string{"state"},
	)

	dbAcquires = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pozt_db_pool_acquire_total",
			Help: "Cumulative successful connection acquires reported by the pool.",
		},
	)
)

// PoolStats is a point-in-time view of a connection pool.
type PoolStats struct {
	Total        int32
	Idle         int32
	Acquired     int32
	AcquireCount int64
}

// PoolCollector samples pool statistics into gauges on a fixed interval.
type PoolCollector struct {
	sample   func() PoolStats
	interval time.Duration
	logger   *zap.Logger
}

func NewPoolCollector(sample func() PoolStats, interval time.Duration, logger *zap.Logger) *PoolCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PoolCollector{sample: sample, interval: interval, logger: logger}
}

// Collect records one sample.
func (c *PoolCollector) Collect() {
	s := c.sample()
	dbConns.WithLabelValues("total").Set(float64(s.Total))
	dbConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbAcquires.Set(float64(s.AcquireCount))
}

// Run samples until ctx is cancelled.
func (c *PoolCollector) Run(ctx context.Context) error {
	c.logger.Info("pool collector started", zap.Duration("interval", c.interval))
	c.Collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-ctx.Done():
			c.logger.Info("pool collector stopped")
			return nil
		}
	}
}
