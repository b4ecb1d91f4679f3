package observability

import (
	"github.com/fanflet/fanflet/internal/observability/logger"
	"github.com/fanflet/fanflet/internal/observability/metrics"
	"github.com/fanflet/fanflet/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(LoadConfig),
	fx.Provide(Config.LoggerConfig, logger.New),
	fx.Provide(Config.TracingConfig, tracing.NewProvider),
	fx.Provide(
		Config.MetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.Entitlements,
	),
	// the tracer provider registers itself globally when built
	fx.Invoke(func(_ *sdktrace.TracerProvider, cfg Config, log *zap.Logger) {
		log.Info("observability ready",
			zap.String("service", cfg.ServiceName),
			zap.String("env", cfg.Environment),
			zap.String("version", cfg.Version),
			zap.Bool("otel_enabled", cfg.Otel.Enabled),
			zap.String("otel_protocol", cfg.Otel.Protocol),
		)
	}),
)
