package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("feature_key", "custom_expiration"),
		attribute.String("speaker_id", "456"),
		attribute.String("decision", "plan_grant"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "speaker_id" {
			t.Fatalf("expected speaker_id to be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordEntitlementCheck(context.Background(), "custom_expiration", "global")
	m.RecordLimitLookup(context.Background(), "free")
	m.RecordRateLimitAllowed(context.Background(), "entitlements")
	m.RecordRateLimitDenied(context.Background(), "entitlements", "bucket_empty")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "fanflet"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordEntitlementCheck(context.Background(), "custom_expiration", "override_enabled")
}
