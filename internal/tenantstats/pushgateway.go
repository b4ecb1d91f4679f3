package tenantstats

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushgatewayPusher replaces the job's metric group on every push.
type PushgatewayPusher struct {
	gateway string
	job     string
	labels  [][2]string
}

// NewPushgatewayPusher drops grouping labels with a blank name or value.
func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	labels := make([][2]string, 0, len(grouping))
	for name, value := range grouping {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name != "" && value != "" {
			labels = append(labels, [2]string{name, value})
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i][0] < labels[j][0] })

	return &PushgatewayPusher{
		gateway: strings.TrimSpace(endpoint),
		job:     strings.TrimSpace(job),
		labels:  labels,
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}
	switch {
	case p.gateway == "":
		return errors.New("pushgateway endpoint is required")
	case p.job == "":
		return errors.New("pushgateway job is required")
	}

	req := push.New(p.gateway, p.job).Gatherer(registry)
	for _, l := range p.labels {
		req = req.Grouping(l[0], l[1])
	}
	return req.PushContext(ctx)
}
