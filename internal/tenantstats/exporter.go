package tenantstats

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fanflet/fanflet/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	ExporterRemoteWrite = "prometheus_remote_write"
	ExporterPushgateway = "prometheus_pushgateway"
)

// Pusher ships a gathered registry to an external collector.
type Pusher interface {
	Push(ctx context.Context, registry *prometheus.Registry) error
}

// NewPusher returns nil when no exporter is configured. A bad exporter
// setting is logged rather than failing startup, so the gauges still refresh.
func NewPusher(cfg config.Config, log *zap.Logger) Pusher {
	if log == nil {
		log = zap.NewNop()
	}
	kind := strings.ToLower(strings.TrimSpace(cfg.Stats.Exporter))
	if kind == "" {
		return nil
	}

	p, err := buildPusher(kind, cfg)
	if err != nil {
		log.Named("tenantstats").Warn("stats export disabled",
			zap.String("exporter", kind),
			zap.Error(err),
		)
		return nil
	}
	return p
}

func buildPusher(kind string, cfg config.Config) (Pusher, error) {
	endpoint := strings.TrimSpace(cfg.Stats.Endpoint)
	if endpoint == "" {
		return nil, errors.New("TENANT_STATS_ENDPOINT is required")
	}

	switch kind {
	case ExporterRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("invalid TENANT_STATS_ENDPOINT: %w", err)
		}
		return NewRemoteWritePusher(endpoint, cfg.Stats.AuthToken), nil
	case ExporterPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, map[string]string{
			"environment": cfg.Environment,
		}), nil
	}
	return nil, fmt.Errorf("unknown exporter %q", kind)
}
