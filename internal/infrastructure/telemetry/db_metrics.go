package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

var dbMetricsStartKey = queryStartKey{name: "db_metrics"}

// DBMetricsPlugin is a GORM plugin recording query counts, latencies and
// connection pool usage.
type DBMetricsPlugin struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetricsPlugin creates the plugin's instruments on meter
func NewDBMetricsPlugin(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetricsPlugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = def.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = def.PoolStatsInterval
	}

	p := &DBMetricsPlugin{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if p.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if p.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of connections in the pool", "{connection}"); err != nil {
		return nil, err
	}
	if p.queryTotal, err = NewCounter(meter, "db_query_total",
		"Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if p.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Total number of slow database queries", "{query}"); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "byom:db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	if err := gormHooks(db, "db_metrics", markStart(dbMetricsStartKey), p.record); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		p.sqlDB = sqlDB
	}
	p.logger.Info("Database metrics plugin initialized",
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold))
	return nil
}

func (p *DBMetricsPlugin) record(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	duration, _ := elapsedSince(db, dbMetricsStartKey)
	p.RecordQuery(ctx, operation, db.Statement.Table, duration)
}

// RecordQuery records one executed statement
func (p *DBMetricsPlugin) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	p.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	p.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))
	if duration > p.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		p.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// StartPoolStatsCollection samples connection pool statistics until Stop
// is called or ctx is done.
func (p *DBMetricsPlugin) StartPoolStatsCollection(ctx context.Context) {
	if p.sqlDB == nil {
		p.logger.Warn("Cannot start pool stats collection: plugin not initialized")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.config.PoolStatsInterval)
		defer ticker.Stop()
		p.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				p.collectPoolStats(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *DBMetricsPlugin) collectPoolStats(ctx context.Context) {
	stats := p.sqlDB.Stats()
	p.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	p.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	p.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	p.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool stats collection. Safe to call multiple times.
func (p *DBMetricsPlugin) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
	})
}
