package telemetry

import (
	"fmt"

	"github.com/merch/byom/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported signal
var ServiceVersion = "dev"

// newResource describes this service to the collector
func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// TracingConfigFrom maps the application telemetry settings to tracer settings
func TracingConfigFrom(cfg config.TelemetryConfig) Config {
	return Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
}

// MetricsConfigFrom maps the application telemetry settings to meter settings
func MetricsConfigFrom(cfg config.TelemetryConfig) MetricsConfig {
	return MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
}

// LogsConfigFrom maps the application telemetry settings to log export settings
func LogsConfigFrom(cfg config.TelemetryConfig) LogsConfig {
	return LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
}

// ProfilerConfigFrom maps the application telemetry settings to profiler settings
func ProfilerConfigFrom(cfg config.TelemetryConfig) ProfilerConfig {
	return ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.ProfilingEndpoint,
		ApplicationName: cfg.ServiceName,
	}
}
