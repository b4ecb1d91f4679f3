package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewCatalogHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	FreePlanName string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Stats     StatsConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig tunes the per-speaker token bucket on entitlement checks.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// StatsConfig controls the periodic tenant-store gauges and their optional
// push exporter.
type StatsConfig struct {
	Enabled         bool
	IntervalSeconds int
	Exporter        string
	Endpoint        string
	AuthToken       string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	redisAddr := strings.TrimSpace(getenv("REDIS_ADDR", ""))

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "fanflet"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		FreePlanName:      strings.ToLower(strings.TrimSpace(getenv("FREE_PLAN_NAME", "free"))),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("ENTITLEMENT_RATE_LIMIT_ENABLED", redisAddr != ""),
			RPS:     getenvFloat("ENTITLEMENT_RATE_LIMIT_RPS", 20),
			Burst:   getenvInt("ENTITLEMENT_RATE_LIMIT_BURST", 40),
		},
		Stats: StatsConfig{
			Enabled:         getenvBool("TENANT_STATS_ENABLED", true),
			IntervalSeconds: getenvInt("TENANT_STATS_INTERVAL_SECONDS", 60),
			Exporter:        strings.ToLower(strings.TrimSpace(getenv("TENANT_STATS_EXPORTER", ""))),
			Endpoint:        strings.TrimSpace(getenv("TENANT_STATS_ENDPOINT", "")),
			AuthToken:       getenv("TENANT_STATS_AUTH_TOKEN", ""),
		},
	}
	if cfg.FreePlanName == "" {
		cfg.FreePlanName = "free"
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
