package observability

import (
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	"github.com/smallbiznis/flightsurety/internal/observability/metrics"
	"github.com/smallbiznis/flightsurety/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the zap logger, the tracer and meter providers, and the
// HTTP and ledger operation instruments.
var Module = fx.Module("observability",
	fx.Provide(
		NewConfig,
		func(c Config) logger.Config { return c.logger() },
		func(c Config) tracing.Config { return c.tracing() },
		func(c Config) metrics.Config { return c.metrics() },
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.OperationsWithConfig,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
