package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTestDB(t *testing.T, plugins ...gorm.Plugin) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	for _, p := range plugins {
		require.NoError(t, db.Use(p))
	}
	return db
}

func newRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, rec
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := telemetry.DBTracingConfigFrom(config.TelemetryConfig{
		Enabled:        true,
		DBTraceEnabled: true,
		DBLogFullSQL:   true,
	}, "sqlite")
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.LogFullSQL)
	assert.Equal(t, "sqlite", cfg.DBSystem)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)

	off := telemetry.DBTracingConfigFrom(config.TelemetryConfig{DBTraceEnabled: true}, "")
	assert.False(t, off.Enabled)
	assert.Equal(t, "postgresql", off.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	tp, rec := newRecorder(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{}, zap.NewNop(), telemetry.WithDBTracerProvider(tp))
	db := openTestDB(t, plugin)

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Empty(t, rec.Ended())
}

func TestDBTracingPlugin_RecordsSpans(t *testing.T) {
	tp, rec := newRecorder(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Hour,
		DBSystem:        "sqlite",
	}, zap.NewNop(), telemetry.WithDBTracerProvider(tp))
	db := openTestDB(t, plugin)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "hoodie"}).Error)
	var found tracedRow
	require.NoError(t, db.WithContext(ctx).First(&found, "name = ?", "hoodie").Error)
	parent.End()

	var dbSpans []sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() != "request" {
			dbSpans = append(dbSpans, s)
		}
	}
	require.Len(t, dbSpans, 2)

	attrs := map[string]any{}
	for _, kv := range dbSpans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "INSERT", attrs["db.operation"])
	assert.Equal(t, int64(1), attrs["db.rows_affected"])
	assert.Equal(t, "traced_rows", attrs["db.sql.table"])
	_, slow := attrs["db.slow_query"]
	assert.False(t, slow)
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	tp, rec := newRecorder(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBSystem:        "sqlite",
	}, zap.NewNop(), telemetry.WithDBTracerProvider(tp))
	db := openTestDB(t, plugin)

	var rows []tracedRow
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

	spans := rec.Ended()
	require.NotEmpty(t, spans)
	var sawEvent bool
	for _, s := range spans {
		for _, ev := range s.Events() {
			if ev.Name == "slow_query_warning" {
				sawEvent = true
			}
		}
	}
	assert.True(t, sawEvent)
}

func TestDBTracingPlugin_NotFoundIsNotAnError(t *testing.T) {
	tp, rec := newRecorder(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Hour,
	}, zap.NewNop(), telemetry.WithDBTracerProvider(tp))
	db := openTestDB(t, plugin)

	var row tracedRow
	err := db.WithContext(context.Background()).First(&row, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	for _, s := range rec.Ended() {
		assert.Empty(t, s.Events(), "no error event expected on %s", s.Name())
	}
}
