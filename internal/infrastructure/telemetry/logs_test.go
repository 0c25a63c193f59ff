package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.ForceFlush(ctx))
	assert.NoError(t, provider.Shutdown(ctx))

	core := provider.ZapCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel), "disabled export yields a no-op core")
}

func TestNewLoggerProvider_EnabledWithoutCollector(t *testing.T) {
	ctx := context.Background()
	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "byom-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	defer provider.Shutdown(ctx)

	assert.True(t, provider.IsEnabled())

	core := provider.ZapCore(zapcore.WarnLevel)
	_, filtered := core.(*levelFilterCore)
	assert.True(t, filtered)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core)

	logger.Info("dropped")
	logger.Warn("kept")
	logger.With(zap.String("design_id", "d-1")).Error("kept with field")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "d-1", entries[1].ContextMap()["design_id"])

	_, stillFiltered := core.With(nil).(*levelFilterCore)
	assert.True(t, stillFiltered)
}
