package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/merch/byom/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T, provider telemetry.DesignStatusProvider) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:          mp.Meter("byom-test"),
		Logger:         zap.NewNop(),
		StatusProvider: provider,
	})
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestNewBusinessMetrics_NoopMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordDesignCreated(ctx, "hoodie")
	bm.RecordQuote(ctx, "policy", decimal.NewFromInt(25))
	bm.RecordStage(ctx, "upload", time.Millisecond, nil)
}

func TestBusinessMetrics_Counters(t *testing.T) {
	bm, reader := newTestMetrics(t, nil)
	ctx := context.Background()

	bm.RecordDesignCreated(ctx, "tshirt")
	bm.RecordDesignCreated(ctx, "hat")
	bm.RecordDesignTransition(ctx, "pending_approval")
	bm.RecordDesignTransition(ctx, "approved")
	bm.RecordDesignTransition(ctx, "rejected")
	bm.RecordQuote(ctx, "policy", decimal.RequireFromString("32.50"))

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["byom_designs_created_total"]))
	assert.Equal(t, int64(3), sumOf(t, metrics["byom_design_transitions_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["byom_price_quotes_total"]))

	hist, ok := metrics["byom_price_quote_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 32.5, hist.DataPoints[0].Sum, 0.0001)
}

func TestBusinessMetrics_RecordStage(t *testing.T) {
	bm, reader := newTestMetrics(t, nil)
	ctx := context.Background()

	bm.RecordStage(ctx, "upload", 20*time.Millisecond, nil)
	bm.RecordStage(ctx, "submit", 5*time.Millisecond, errors.New("boom"))

	hist, ok := collect(t, reader)["byom_submission_stage_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2, "one series per stage and outcome")
}

type fakeStatusProvider struct {
	mu     sync.Mutex
	calls  int
	counts map[string]int64
	err    error
}

func (p *fakeStatusProvider) CountByStatus(ctx context.Context) (map[string]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.counts, p.err
}

func (p *fakeStatusProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	provider := &fakeStatusProvider{counts: map[string]int64{"pending_approval": 4, "approved": 9}}
	bm, reader := newTestMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bm.StartPeriodicCollection(ctx, time.Hour)
	defer bm.Stop()

	require.Eventually(t, func() bool { return provider.Calls() >= 1 }, time.Second, 5*time.Millisecond)

	gauge, ok := collect(t, reader)["byom_designs_by_status"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	values := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		status, _ := dp.Attributes.Value(telemetry.AttrStatus)
		values[status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"pending_approval": 4, "approved": 9}, values)
}

func TestBusinessMetrics_StopTwice(t *testing.T) {
	bm, _ := newTestMetrics(t, nil)
	bm.Stop()
	bm.Stop()
}
