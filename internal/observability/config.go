package observability

import (
	"strings"

	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	"github.com/smallbiznis/flightsurety/internal/observability/metrics"
	"github.com/smallbiznis/flightsurety/internal/observability/tracing"
)

// Config is the telemetry view of the service configuration.
type Config struct {
	Service     string
	Environment string
	Version     string
	Telemetry   config.TelemetryConfig
	Endpoint    string
}

func NewConfig(cfg config.Config) Config {
	service := strings.TrimSpace(cfg.AppName)
	if service == "" {
		service = "flightsurety"
	}
	return Config{
		Service:     service,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		Telemetry:   cfg.Telemetry,
		Endpoint:    strings.TrimSpace(cfg.OTLPEndpoint),
	}
}

// Debug turns on verbose request and SQL logging outside production-like environments.
func (c Config) Debug() bool {
	if c.Telemetry.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func (c Config) logger() logger.Config {
	return logger.Config{
		ServiceName:         c.Service,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.Telemetry.LogLevel,
		Format:              c.Telemetry.LogFormat,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.Telemetry.OtelEnabled,
		ServiceName:      c.Service,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.Endpoint,
		ExporterProtocol: c.Telemetry.OtelProtocol,
		SamplingRatio:    c.Telemetry.SamplingRatio,
	}
}

func (c Config) metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.Telemetry.OtelEnabled,
		ExporterEndpoint: c.Endpoint,
		ExporterProtocol: c.Telemetry.OtelProtocol,
		ServiceName:      c.Service,
		Environment:      c.Environment,
	}
}
