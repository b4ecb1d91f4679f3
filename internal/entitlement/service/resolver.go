package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/entitlement/domain"
	"github.com/fanflet/fanflet/internal/observability/metrics"
	"github.com/fanflet/fanflet/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultFreePlanName = "free"

type Params struct {
	fx.In

	Store   domain.Store
	Log     *zap.Logger
	Config  config.Config
	Metrics *metrics.Metrics            `optional:"true"`
	Prom    *metrics.EntitlementMetrics `optional:"true"`
}

// Resolver decides feature availability with a fixed precedence: a
// per-speaker override wins, then a global flag, then the speaker's active
// plan. Each step runs only when every earlier step was inconclusive.
type Resolver struct {
	store        domain.Store
	log          *zap.Logger
	freePlanName string
	metrics      *metrics.Metrics
	prom         *metrics.EntitlementMetrics
	tracer       trace.Tracer
}

func New(p Params) domain.Service {
	return NewResolver(p)
}

func NewResolver(p Params) *Resolver {
	freePlan := strings.TrimSpace(p.Config.FreePlanName)
	if freePlan == "" {
		freePlan = defaultFreePlanName
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		store:        p.Store,
		log:          log.Named("entitlement.resolver"),
		freePlanName: freePlan,
		metrics:      p.Metrics,
		prom:         p.Prom,
		tracer:       otel.Tracer("fanflet/entitlement"),
	}
}

// HasFeature reports whether the speaker may use featureKey. A non-nil error
// means the store could not answer; the boolean is then meaningless and must
// not be treated as a denial.
func (r *Resolver) HasFeature(ctx context.Context, speakerID, featureKey string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "entitlement.HasFeature", trace.WithAttributes(
		attribute.String("speaker_id", speakerID),
		attribute.String("feature_key", featureKey),
	))
	defer span.End()
	start := time.Now()
	defer func() { r.prom.ObserveDuration("has_feature", time.Since(start).Seconds()) }()

	exp, err := r.resolve(ctx, speakerID, featureKey)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "store unavailable")
		return false, err
	}

	span.SetAttributes(
		attribute.String("entitlement.decision", exp.Decision),
		attribute.Bool("entitlement.enabled", exp.Enabled),
	)
	r.recordDecision(ctx, exp)
	return exp.Enabled, nil
}

// Explain runs the same resolution as HasFeature and returns every fact the
// store produced along the way.
func (r *Resolver) Explain(ctx context.Context, speakerID, featureKey string) (*domain.Explanation, error) {
	ctx, span := r.tracer.Start(ctx, "entitlement.Explain", trace.WithAttributes(
		attribute.String("speaker_id", speakerID),
		attribute.String("feature_key", featureKey),
	))
	defer span.End()

	exp, err := r.resolve(ctx, speakerID, featureKey)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "store unavailable")
		return nil, err
	}
	span.SetAttributes(attribute.String("entitlement.decision", exp.Decision))
	return exp, nil
}

// GetSpeakerLimits returns the limits of the speaker's active plan, else the
// free plan's, else nil.
func (r *Resolver) GetSpeakerLimits(ctx context.Context, speakerIDValue string) (domain.Limits, error) {
	ctx, span := r.tracer.Start(ctx, "entitlement.GetSpeakerLimits", trace.WithAttributes(
		attribute.String("speaker_id", speakerIDValue),
	))
	defer span.End()
	start := time.Now()
	defer func() { r.prom.ObserveDuration("get_speaker_limits", time.Since(start).Seconds()) }()

	limits, source, err := r.resolveLimits(ctx, speakerIDValue)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "store unavailable")
		return nil, err
	}

	span.SetAttributes(attribute.String("entitlement.limit_source", source))
	r.prom.IncLimitSource(source)
	r.metrics.RecordLimitLookup(ctx, source)
	r.log.Debug("limits resolved",
		zap.String("speaker_id", speakerIDValue),
		zap.String("source", source),
	)
	return limits, nil
}

func (r *Resolver) resolve(ctx context.Context, speakerIDValue, featureKey string) (*domain.Explanation, error) {
	exp := &domain.Explanation{SpeakerID: speakerIDValue, FeatureKey: featureKey}

	speakerID, ok := parseSpeakerID(speakerIDValue)
	if !ok || featureKey == "" {
		exp.Decision = metrics.DecisionInvalidInput
		return exp, nil
	}

	flag, err := r.store.FindFlagByKey(ctx, featureKey)
	if err != nil {
		return nil, r.storeError("find_flag_by_key", err)
	}
	if flag == nil {
		exp.Decision = metrics.DecisionUnknownFlag
		return exp, nil
	}
	isGlobal := flag.IsGlobal
	exp.FlagID = flag.ID.String()
	exp.FlagIsGlobal = &isGlobal

	override, err := r.store.FindOverride(ctx, speakerID, flag.ID)
	if err != nil {
		return nil, r.storeError("find_override", err)
	}
	if override != nil {
		enabled := override.Enabled
		exp.Override = &enabled
		exp.Enabled = enabled
		exp.Decision = metrics.DecisionOverrideDisabled
		if enabled {
			exp.Decision = metrics.DecisionOverrideEnabled
		}
		return exp, nil
	}

	if flag.IsGlobal {
		exp.Enabled = true
		exp.Decision = metrics.DecisionGlobal
		return exp, nil
	}

	subscription, err := r.store.FindActiveSubscription(ctx, speakerID)
	if err != nil {
		return nil, r.storeError("find_active_subscription", err)
	}
	if subscription == nil {
		exp.Decision = metrics.DecisionNoSubscription
		return exp, nil
	}
	planID := subscription.PlanID.String()
	exp.PlanID = &planID

	granted, err := r.store.PlanGrantsFlag(ctx, subscription.PlanID, flag.ID)
	if err != nil {
		return nil, r.storeError("plan_grants_flag", err)
	}
	exp.PlanGrant = &granted
	exp.Enabled = granted
	exp.Decision = metrics.DecisionPlanDenied
	if granted {
		exp.Decision = metrics.DecisionPlanGrant
	}
	return exp, nil
}

func (r *Resolver) resolveLimits(ctx context.Context, speakerIDValue string) (domain.Limits, string, error) {
	speakerID, ok := parseSpeakerID(speakerIDValue)
	if !ok {
		return nil, metrics.LimitSourceNone, nil
	}

	limits, err := r.store.FindActivePlanLimits(ctx, speakerID)
	if err != nil {
		return nil, "", r.storeError("find_active_plan_limits", err)
	}
	if limits != nil {
		return limits, metrics.LimitSourcePlan, nil
	}

	limits, err = r.store.FindPlanLimitsByName(ctx, r.freePlanName)
	if err != nil {
		return nil, "", r.storeError("find_plan_limits_by_name", err)
	}
	if limits != nil {
		return limits, metrics.LimitSourceFree, nil
	}
	return nil, metrics.LimitSourceNone, nil
}

// storeError records a store failure and hands it back untouched.
func (r *Resolver) storeError(operation string, err error) error {
	r.prom.IncStoreError(operation, err)
	r.log.Warn("tenant store query failed",
		zap.String("operation", operation),
		zap.String("reason", metrics.ClassifyStoreError(err)),
		zap.Error(err),
	)
	return err
}

func (r *Resolver) recordDecision(ctx context.Context, exp *domain.Explanation) {
	r.prom.IncDecision(exp.Decision)

	// Unknown keys come from callers; keep them out of metric labels.
	key := exp.FeatureKey
	if exp.Decision == metrics.DecisionUnknownFlag || exp.Decision == metrics.DecisionInvalidInput {
		key = "unknown"
	}
	r.metrics.RecordEntitlementCheck(ctx, key, exp.Decision)

	r.log.Debug("feature resolved",
		zap.String("speaker_id", exp.SpeakerID),
		zap.String("feature_key", exp.FeatureKey),
		zap.String("decision", exp.Decision),
		zap.Bool("enabled", exp.Enabled),
	)
}

func parseSpeakerID(value string) (snowflake.ID, bool) {
	if value == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
