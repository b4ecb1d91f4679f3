package metrics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DecisionInvalidInput     = "invalid_input"
	DecisionUnknownFlag      = "unknown_flag"
	DecisionOverrideEnabled  = "override_enabled"
	DecisionOverrideDisabled = "override_disabled"
	DecisionGlobal           = "global"
	DecisionNoSubscription   = "no_subscription"
	DecisionPlanGrant        = "plan_grant"
	DecisionPlanDenied       = "plan_denied"
)

const (
	LimitSourcePlan = "plan"
	LimitSourceFree = "free"
	LimitSourceNone = "none"
)

const (
	StoreErrorDeadlineExceeded     = "deadline_exceeded"
	StoreErrorCanceled             = "canceled"
	StoreErrorConnection           = "connection"
	StoreErrorSerializationFailure = "serialization_failure"
	StoreErrorUnknown              = "unknown"
)

// EntitlementMetrics captures resolver outcomes for dashboards and alerts.
type EntitlementMetrics struct {
	decisions   *prometheus.CounterVec
	limits      *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var (
	entitlementMetricsOnce sync.Once
	entitlementMetrics     *EntitlementMetrics
)

// Entitlements returns the process-wide entitlement metrics registered on the
// default prometheus registerer.
func Entitlements(cfg Config) *EntitlementMetrics {
	entitlementMetricsOnce.Do(func() {
		entitlementMetrics = NewEntitlementMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return entitlementMetrics
}

func NewEntitlementMetrics(registerer prometheus.Registerer, cfg Config) *EntitlementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "fanflet"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &EntitlementMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fanflet_entitlement_decisions_total",
			Help:        "Feature resolutions by the rule that decided them.",
			ConstLabels: constLabels,
		}, []string{"decision"}),
		limits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fanflet_entitlement_limit_lookups_total",
			Help:        "Speaker limit resolutions by source plan.",
			ConstLabels: constLabels,
		}, []string{"source"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fanflet_entitlement_store_errors_total",
			Help:        "Tenant store failures surfaced by the resolver.",
			ConstLabels: constLabels,
		}, []string{"operation", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "fanflet_entitlement_resolution_duration_seconds",
			Help:        "End-to-end resolver latency including store round trips.",
			Buckets:     []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: constLabels,
		}, []string{"operation"}),
	}

	registerer.MustRegister(m.decisions, m.limits, m.storeErrors, m.duration)
	return m
}

func (m *EntitlementMetrics) IncDecision(decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *EntitlementMetrics) IncLimitSource(source string) {
	if m == nil {
		return
	}
	m.limits.WithLabelValues(source).Inc()
}

func (m *EntitlementMetrics) IncStoreError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.storeErrors.WithLabelValues(operation, ClassifyStoreError(err)).Inc()
}

func (m *EntitlementMetrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(seconds)
}

// Decisions exposes the decision counter for assertions and exemplars.
func (m *EntitlementMetrics) Decisions() *prometheus.CounterVec { return m.decisions }

func (m *EntitlementMetrics) StoreErrors() *prometheus.CounterVec { return m.storeErrors }

// ClassifyStoreError maps a store failure to a low-cardinality reason.
func ClassifyStoreError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StoreErrorDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return StoreErrorCanceled
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return StoreErrorConnection
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return StoreErrorConnection
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return StoreErrorSerializationFailure
		case pgErr.Code == "57014":
			return StoreErrorDeadlineExceeded
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "53300", pgErr.Code == "57P01":
			return StoreErrorConnection
		}
	}
	return StoreErrorUnknown
}
