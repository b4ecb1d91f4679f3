package tenantstats

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	obstracing "github.com/fanflet/fanflet/internal/observability/tracing"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const remoteWriteTimeout = 5 * time.Second

// RemoteWritePusher posts counters and gauges as one snappy-framed
// remote_write request per push.
type RemoteWritePusher struct {
	url    string
	bearer string
	client *http.Client
	now    func() time.Time
}

func NewRemoteWritePusher(endpoint, authToken string) *RemoteWritePusher {
	return &RemoteWritePusher{
		url:    endpoint,
		bearer: strings.TrimSpace(authToken),
		client: obstracing.WrapHTTPClient(&http.Client{Timeout: remoteWriteTimeout}),
		now:    time.Now,
	}
}

func (p *RemoteWritePusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}
	body, err := p.encode(registry)
	if err != nil || body == nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+p.bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// encode returns nil when the registry has nothing shippable.
func (p *RemoteWritePusher) encode(registry *prometheus.Registry) ([]byte, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}

	ts := p.now().UnixMilli()
	var series []prompb.TimeSeries
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if s, ok := toTimeSeries(family, m, ts); ok {
				series = append(series, s)
			}
		}
	}
	if len(series) == 0 {
		return nil, nil
	}

	raw, err := proto.Marshal(protoadapt.MessageV2Of(&prompb.WriteRequest{Timeseries: series}))
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func toTimeSeries(family *dto.MetricFamily, m *dto.Metric, ts int64) (prompb.TimeSeries, bool) {
	var value float64
	switch {
	case family.GetType() == dto.MetricType_COUNTER && m.GetCounter() != nil:
		value = m.GetCounter().GetValue()
	case family.GetType() == dto.MetricType_GAUGE && m.GetGauge() != nil:
		value = m.GetGauge().GetValue()
	default:
		// histograms and summaries stay local
		return prompb.TimeSeries{}, false
	}

	labels := []prompb.Label{{Name: "__name__", Value: family.GetName()}}
	for _, pair := range m.GetLabel() {
		labels = append(labels, prompb.Label{Name: pair.GetName(), Value: pair.GetValue()})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })

	return prompb.TimeSeries{
		Labels:  labels,
		Samples: []prompb.Sample{{Value: value, Timestamp: ts}},
	}, true
}
