package observability

import (
	"strings"

	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/observability/logger"
	"github.com/fanflet/fanflet/internal/observability/metrics"
	"github.com/fanflet/fanflet/internal/observability/tracing"
	"github.com/spf13/viper"
)

const defaultServiceName = "fanflet"

type LogSettings struct {
	Level  string
	Format string
}

type OtelSettings struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

// Config is the resolved identity and export settings shared by the logger,
// the tracer and the meters.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	Log  LogSettings
	Otel OtelSettings
}

// LoadConfig layers LOG_*, OTEL_* and deployment overrides from the
// environment on top of the application config.
func LoadConfig(cfg config.Config) Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DEPLOYMENT_ENV", cfg.Environment)
	v.SetDefault("SERVICE_VERSION", cfg.AppVersion)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_ENABLED", true)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)

	env := strings.TrimSpace(v.GetString("DEPLOYMENT_ENV"))
	if isDevEnv(env) {
		v.SetDefault("LOG_FORMAT", "console")
	} else {
		v.SetDefault("LOG_FORMAT", "json")
	}

	// the traces-specific protocol wins over the shared one
	protocol := v.GetString("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")
	if strings.TrimSpace(protocol) == "" {
		protocol = v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL")
	}

	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = defaultServiceName
	}

	return Config{
		ServiceName: name,
		Environment: env,
		Version:     strings.TrimSpace(v.GetString("SERVICE_VERSION")),
		Log: LogSettings{
			Level:  normalize(v.GetString("LOG_LEVEL")),
			Format: normalize(v.GetString("LOG_FORMAT")),
		},
		Otel: OtelSettings{
			Enabled:       v.GetBool("OTEL_ENABLED"),
			Endpoint:      strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Protocol:      normalize(protocol),
			SamplingRatio: v.GetFloat64("OTEL_SAMPLING_RATIO"),
		},
	}
}

// Debug is true for debug level or any development environment.
func (c Config) Debug() bool {
	return normalize(c.Log.Level) == "debug" || isDevEnv(c.Environment)
}

func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.Log.Level,
		Format:              c.Log.Format,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) TracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.Otel.Enabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.Otel.Endpoint,
		ExporterProtocol: c.Otel.Protocol,
		SamplingRatio:    c.Otel.SamplingRatio,
	}
}

func (c Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.Otel.Enabled,
		ExporterEndpoint: c.Otel.Endpoint,
		ExporterProtocol: c.Otel.Protocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}

func isDevEnv(env string) bool {
	switch normalize(env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
