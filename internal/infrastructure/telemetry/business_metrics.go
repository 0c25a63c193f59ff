package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records the customization workflow: designs created,
// status transitions, price quotes, pipeline stages and the review queue
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	designsCreated    *Counter
	designTransitions *Counter
	quotesTotal       *Counter
	quoteAmount       *Histogram
	stageDuration     *Histogram

	designsByStatus *Gauge
	editorSessions  *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statusProvider DesignStatusProvider
}

// DesignStatusProvider counts stored designs per status for the periodic
// review-queue gauge
type DesignStatusProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	StatusProvider DesignStatusProvider
}

// NewBusinessMetrics creates the workflow instruments on cfg.Meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		statusProvider: cfg.StatusProvider,
	}

	var err error
	if bm.designsCreated, err = NewCounter(cfg.Meter,
		"byom_designs_created_total", "Designs saved by customers", "{designs}"); err != nil {
		return nil, err
	}
	if bm.designTransitions, err = NewCounter(cfg.Meter,
		"byom_design_transitions_total", "Design status transitions", "{transitions}"); err != nil {
		return nil, err
	}
	if bm.quotesTotal, err = NewCounter(cfg.Meter,
		"byom_price_quotes_total", "Price breakdowns computed", "{quotes}"); err != nil {
		return nil, err
	}
	if bm.quoteAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "byom_price_quote_amount",
		Description: "Quoted totals in currency units",
		Unit:        "{currency}",
		Boundaries:  []float64{10, 25, 50, 75, 100, 150, 250, 500},
	}); err != nil {
		return nil, err
	}
	if bm.stageDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "byom_submission_stage_duration_seconds",
		Description: "Duration of submission pipeline stages",
		Unit:        "s",
		Boundaries:  StageDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.designsByStatus, err = NewGauge(cfg.Meter,
		"byom_designs_by_status", "Stored designs per status", "{designs}"); err != nil {
		return nil, err
	}
	if bm.editorSessions, err = NewGauge(cfg.Meter,
		"byom_editor_sessions_active", "Open editor sessions", "{sessions}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordDesignCreated counts a newly saved design
func (bm *BusinessMetrics) RecordDesignCreated(ctx context.Context, merchType string) {
	bm.designsCreated.Inc(ctx, AttrMerchType.String(merchType))
}

// RecordDesignTransition counts a design entering status
func (bm *BusinessMetrics) RecordDesignTransition(ctx context.Context, status string) {
	bm.designTransitions.Inc(ctx, AttrStatus.String(status))
}

// RecordQuote counts a computed breakdown and records its total
func (bm *BusinessMetrics) RecordQuote(ctx context.Context, strategy string, total decimal.Decimal) {
	bm.quotesTotal.Inc(ctx, AttrStrategy.String(strategy))
	bm.quoteAmount.Record(ctx, total.InexactFloat64(), AttrStrategy.String(strategy))
}

// RecordStage records how long a pipeline stage ran and whether it failed
func (bm *BusinessMetrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	bm.stageDuration.RecordDuration(ctx, d, AttrStage.String(stage), AttrOutcome.String(outcome))
}

// RecordEditorSessions records the number of open editor sessions
func (bm *BusinessMetrics) RecordEditorSessions(ctx context.Context, n int) {
	bm.editorSessions.Record(ctx, int64(n))
}

// StartPeriodicCollection samples the per-status design counts every
// interval (five minutes when zero) until Stop or ctx is done
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectStatusCounts(ctx)
	for {
		select {
		case <-bm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collectStatusCounts(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectStatusCounts(ctx context.Context) {
	if bm.statusProvider == nil {
		return
	}
	counts, err := bm.statusProvider.CountByStatus(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count designs by status", zap.Error(err))
		return
	}
	for status, n := range counts {
		bm.designsByStatus.Record(ctx, n, AttrStatus.String(status))
	}
}

// Stop stops the periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
