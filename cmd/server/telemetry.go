package main

import (
	"context"
	"errors"

	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/merch/byom/internal/infrastructure/logger"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// observability holds the OpenTelemetry providers and the profiler
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts tracing, metrics, log export and profiling as
// configured. Disabled parts fall back to no-op providers.
func setupTelemetry(ctx context.Context, cfg config.TelemetryConfig, log *zap.Logger) (*observability, error) {
	o := &observability{}
	var err error

	o.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	o.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	o.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	o.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.ProfilingEndpoint,
		ApplicationName: cfg.ServiceName,
	}, log)
	if err != nil {
		return nil, err
	}
	if o.profiler.IsEnabled() && o.tracer.IsEnabled() {
		if err := o.tracer.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}
	return o, nil
}

// bridgedLogger rebuilds the application logger with the OTLP log core teed in
func (o *observability) bridgedLogger(cfg *logger.Config, fallback *zap.Logger) *zap.Logger {
	if !o.logs.IsEnabled() {
		return fallback
	}
	bridged, err := logger.New(cfg, o.logs.ZapCore(logger.ParseLevel(cfg.Level)))
	if err != nil {
		fallback.Warn("Failed to attach OTLP log bridge", zap.Error(err))
		return fallback
	}
	return bridged
}

// shutdown flushes and stops every provider
func (o *observability) shutdown(ctx context.Context) error {
	return errors.Join(
		o.profiler.Stop(),
		o.logs.Shutdown(ctx),
		o.meter.Shutdown(ctx),
		o.tracer.Shutdown(ctx),
	)
}
