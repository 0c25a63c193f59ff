package telemetry

import (
	"errors"
	"time"

	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound query variables in span statements
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingConfigFrom derives the database tracing settings
func DBTracingConfigFrom(cfg config.TelemetryConfig, dbSystem string) DBTracingConfig {
	out := DefaultDBTracingConfig()
	out.Enabled = cfg.Enabled && cfg.DBTraceEnabled
	out.LogFullSQL = cfg.DBLogFullSQL
	if dbSystem != "" {
		out.DBSystem = dbSystem
	}
	return out
}

var dbTracingStartKey = queryStartKey{name: "db_tracing"}

// DBTracingPlugin is a GORM plugin that wraps otelgorm and annotates its
// spans with rows affected, errors and slow query markers.
type DBTracingPlugin struct {
	config   DBTracingConfig
	logger   *zap.Logger
	provider trace.TracerProvider
}

// DBTracingOption configures a DBTracingPlugin
type DBTracingOption func(*DBTracingPlugin)

// WithDBTracerProvider overrides the global tracer provider
func WithDBTracerProvider(tp trace.TracerProvider) DBTracingOption {
	return func(p *DBTracingPlugin) {
		p.provider = tp
	}
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger, opts ...DBTracingOption) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	p := &DBTracingPlugin{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements gorm.Plugin
func (p *DBTracingPlugin) Name() string {
	return "byom:db_tracing"
}

// Initialize implements gorm.Plugin. A disabled plugin registers nothing.
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	// Our after hooks must be registered ahead of otelgorm's, which end the span.
	if err := gormHooks(db, "db_tracing", markStart(dbTracingStartKey), p.annotate); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.provider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) annotate(db *gorm.DB, operation string) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(
		attribute.String("db.operation", operation),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// not found maps to a domain error, not a failure
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	elapsed, ok := elapsedSince(db, dbTracingStartKey)
	if ok && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
