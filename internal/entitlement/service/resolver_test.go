package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/entitlement/domain"
	"github.com/fanflet/fanflet/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	speakerID snowflake.ID = 1001
	flagID    snowflake.ID = 2001
	proPlanID snowflake.ID = 3001
	freePlan  snowflake.ID = 3002
)

func newTestResolver(store domain.Store) *Resolver {
	return NewResolver(Params{
		Store:  store,
		Log:    zap.NewNop(),
		Config: config.Config{FreePlanName: "free"},
	})
}

type overrideState int

const (
	overrideNone overrideState = iota
	overrideOn
	overrideOff
)

func (o overrideState) String() string {
	return [...]string{"none", "on", "off"}[o]
}

// TestHasFeaturePrecedence walks every combination of flag existence,
// override, global flag, active subscription and plan grant.
func TestHasFeaturePrecedence(t *testing.T) {
	for _, flagExists := range []bool{false, true} {
		for _, override := range []overrideState{overrideNone, overrideOn, overrideOff} {
			for _, global := range []bool{false, true} {
				for _, subscribed := range []bool{false, true} {
					for _, granted := range []bool{false, true} {
						name := fmt.Sprintf("flag=%t/override=%s/global=%t/sub=%t/grant=%t",
							flagExists, override, global, subscribed, granted)
						t.Run(name, func(t *testing.T) {
							store := newMemStore()
							if flagExists {
								store.flags["custom_expiration"] = domain.Flag{ID: flagID, IsGlobal: global}
							}
							switch override {
							case overrideOn:
								store.overrides[overrideKey{speakerID, flagID}] = true
							case overrideOff:
								store.overrides[overrideKey{speakerID, flagID}] = false
							}
							if subscribed {
								store.subscriptions[speakerID] = proPlanID
							}
							if granted {
								store.grants[grantKey{proPlanID, flagID}] = true
							}

							want, wantCalls := expectedResolution(flagExists, override, global, subscribed, granted)

							got, err := newTestResolver(store).HasFeature(context.Background(), speakerID.String(), "custom_expiration")
							require.NoError(t, err)
							assert.Equal(t, want, got)
							assert.Equal(t, wantCalls, store.Calls())
						})
					}
				}
			}
		}
	}
}

// expectedResolution is the precedence table written out longhand.
func expectedResolution(flagExists bool, override overrideState, global, subscribed, granted bool) (bool, []string) {
	calls := []string{"FindFlagByKey"}
	if !flagExists {
		return false, calls
	}
	calls = append(calls, "FindOverride")
	switch override {
	case overrideOn:
		return true, calls
	case overrideOff:
		return false, calls
	}
	if global {
		return true, calls
	}
	calls = append(calls, "FindActiveSubscription")
	if !subscribed {
		return false, calls
	}
	calls = append(calls, "PlanGrantsFlag")
	return granted, calls
}

func TestHasFeatureScenarios(t *testing.T) {
	const (
		s1 snowflake.ID = 11
		s2 snowflake.ID = 12
	)
	store := newMemStore()
	store.flags["custom_expiration"] = domain.Flag{ID: 21, IsGlobal: false}
	store.flags["multiple_theme_colors"] = domain.Flag{ID: 22, IsGlobal: false}
	store.overrides[overrideKey{s2, 22}] = true

	r := newTestResolver(store)
	ctx := context.Background()

	t.Run("non-global flag without override or subscription is off", func(t *testing.T) {
		got, err := r.HasFeature(ctx, s1.String(), "custom_expiration")
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("enabled override grants a non-global flag", func(t *testing.T) {
		got, err := r.HasFeature(ctx, s2.String(), "multiple_theme_colors")
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("unknown flag is off for every speaker", func(t *testing.T) {
		for _, speaker := range []snowflake.ID{s1, s2, 999} {
			got, err := r.HasFeature(ctx, speaker.String(), "beta_widget")
			require.NoError(t, err)
			assert.False(t, got)
		}
	})
}

func TestHasFeatureFailsClosedOnInvalidInput(t *testing.T) {
	store := newMemStore()
	store.flags["custom_expiration"] = domain.Flag{ID: flagID, IsGlobal: true}
	r := newTestResolver(store)
	ctx := context.Background()

	for _, tc := range []struct {
		speaker string
		key     string
	}{
		{"", "custom_expiration"},
		{speakerID.String(), ""},
		{"not-a-number", "custom_expiration"},
		{"0", "custom_expiration"},
		{"-5", "custom_expiration"},
	} {
		got, err := r.HasFeature(ctx, tc.speaker, tc.key)
		require.NoError(t, err)
		assert.False(t, got, "speaker=%q key=%q", tc.speaker, tc.key)
	}
	assert.Empty(t, store.Calls())
}

func TestHasFeaturePropagatesStoreErrors(t *testing.T) {
	storeDown := errors.New("connection refused")

	for _, step := range []string{"FindFlagByKey", "FindOverride", "FindActiveSubscription", "PlanGrantsFlag"} {
		t.Run(step, func(t *testing.T) {
			store := newMemStore()
			store.flags["custom_expiration"] = domain.Flag{ID: flagID}
			store.subscriptions[speakerID] = proPlanID
			store.failOn = step
			store.err = fmt.Errorf("query: %w", storeDown)

			_, err := newTestResolver(store).HasFeature(context.Background(), speakerID.String(), "custom_expiration")
			require.Error(t, err)
			assert.ErrorIs(t, err, storeDown)

			calls := store.Calls()
			assert.Equal(t, step, calls[len(calls)-1], "no query may run after a failure")
		})
	}
}

func TestHasFeatureHonoursCancellation(t *testing.T) {
	store := newMemStore()
	store.failOn = "FindFlagByKey"
	store.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(store).HasFeature(ctx, speakerID.String(), "custom_expiration")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetSpeakerLimits(t *testing.T) {
	const (
		s3      snowflake.ID = 13
		nobody  snowflake.ID = 14
		empty   snowflake.ID = 15
		emptyID snowflake.ID = 3003
	)

	t.Run("active plan limits win over free", func(t *testing.T) {
		store := newMemStore()
		store.addPlan(proPlanID, "pro", domain.Limits{"max_fanflets": 20})
		store.addPlan(freePlan, "free", domain.Limits{"max_fanflets": 3})
		store.subscriptions[s3] = proPlanID

		got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), s3.String())
		require.NoError(t, err)
		assert.Equal(t, domain.Limits{"max_fanflets": 20}, got)
		assert.Equal(t, []string{"FindActivePlanLimits"}, store.Calls())
	})

	t.Run("active plan with no limits returns an empty map", func(t *testing.T) {
		store := newMemStore()
		store.addPlan(emptyID, "starter", nil)
		store.addPlan(freePlan, "free", domain.Limits{"max_fanflets": 3})
		store.subscriptions[empty] = emptyID

		got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), empty.String())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("no subscription falls back to free", func(t *testing.T) {
		store := newMemStore()
		store.addPlan(freePlan, "free", domain.Limits{"max_fanflets": 3, "max_resources_per_fanflet": 5})

		got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), nobody.String())
		require.NoError(t, err)
		assert.Equal(t, domain.Limits{"max_fanflets": 3, "max_resources_per_fanflet": 5}, got)
		assert.Equal(t, []string{"FindActivePlanLimits", "FindPlanLimitsByName"}, store.Calls())
	})

	t.Run("no subscription and no free plan is unknown", func(t *testing.T) {
		store := newMemStore()

		got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), nobody.String())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalid speaker is unknown without touching the store", func(t *testing.T) {
		store := newMemStore()
		store.addPlan(freePlan, "free", domain.Limits{"max_fanflets": 3})

		got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Empty(t, store.Calls())
	})

	t.Run("store errors propagate", func(t *testing.T) {
		for _, step := range []string{"FindActivePlanLimits", "FindPlanLimitsByName"} {
			store := newMemStore()
			store.addPlan(freePlan, "free", domain.Limits{"max_fanflets": 3})
			store.failOn = step
			store.err = context.DeadlineExceeded

			got, err := newTestResolver(store).GetSpeakerLimits(context.Background(), nobody.String())
			assert.ErrorIs(t, err, context.DeadlineExceeded, step)
			assert.Nil(t, got, step)
		}
	})
}

func TestGetSpeakerLimitsUsesConfiguredFreePlan(t *testing.T) {
	store := newMemStore()
	store.addPlan(freePlan, "starter", domain.Limits{"max_fanflets": 1})

	r := NewResolver(Params{
		Store:  store,
		Log:    zap.NewNop(),
		Config: config.Config{FreePlanName: "starter"},
	})
	got, err := r.GetSpeakerLimits(context.Background(), speakerID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.Limits{"max_fanflets": 1}, got)
}

func TestExplain(t *testing.T) {
	store := newMemStore()
	store.flags["survey_questions"] = domain.Flag{ID: flagID}
	store.subscriptions[speakerID] = proPlanID
	store.grants[grantKey{proPlanID, flagID}] = true

	exp, err := newTestResolver(store).Explain(context.Background(), speakerID.String(), "survey_questions")
	require.NoError(t, err)
	assert.True(t, exp.Enabled)
	assert.Equal(t, metrics.DecisionPlanGrant, exp.Decision)
	assert.Equal(t, flagID.String(), exp.FlagID)
	require.NotNil(t, exp.FlagIsGlobal)
	assert.False(t, *exp.FlagIsGlobal)
	assert.Nil(t, exp.Override)
	require.NotNil(t, exp.PlanID)
	assert.Equal(t, proPlanID.String(), *exp.PlanID)
	require.NotNil(t, exp.PlanGrant)
	assert.True(t, *exp.PlanGrant)

	store.overrides[overrideKey{speakerID, flagID}] = false
	exp, err = newTestResolver(store).Explain(context.Background(), speakerID.String(), "survey_questions")
	require.NoError(t, err)
	assert.False(t, exp.Enabled)
	assert.Equal(t, metrics.DecisionOverrideDisabled, exp.Decision)
	assert.Nil(t, exp.PlanID)
}

func TestResolverRecordsDecisionMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	prom := metrics.NewEntitlementMetrics(registry, metrics.Config{ServiceName: "fanflet-test", Environment: "test"})

	store := newMemStore()
	store.flags["analytics_basic"] = domain.Flag{ID: flagID, IsGlobal: true}
	r := NewResolver(Params{Store: store, Log: zap.NewNop(), Prom: prom})
	ctx := context.Background()

	_, err := r.HasFeature(ctx, speakerID.String(), "analytics_basic")
	require.NoError(t, err)
	_, err = r.HasFeature(ctx, speakerID.String(), "beta_widget")
	require.NoError(t, err)

	store.failOn = "FindFlagByKey"
	store.err = context.DeadlineExceeded
	_, err = r.HasFeature(ctx, speakerID.String(), "analytics_basic")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.Decisions().WithLabelValues(metrics.DecisionGlobal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.Decisions().WithLabelValues(metrics.DecisionUnknownFlag)))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.StoreErrors().WithLabelValues("find_flag_by_key", metrics.StoreErrorDeadlineExceeded)))
}

func TestResolverIsSafeForConcurrentUse(t *testing.T) {
	store := newMemStore()
	store.flags["custom_expiration"] = domain.Flag{ID: flagID}
	store.subscriptions[speakerID] = proPlanID
	store.grants[grantKey{proPlanID, flagID}] = true
	store.addPlan(proPlanID, "pro", domain.Limits{"max_fanflets": 20})
	r := newTestResolver(store)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.HasFeature(context.Background(), speakerID.String(), "custom_expiration")
			assert.NoError(t, err)
			assert.True(t, ok)
			limits, err := r.GetSpeakerLimits(context.Background(), speakerID.String())
			assert.NoError(t, err)
			assert.Equal(t, int64(20), limits["max_fanflets"])
		}()
	}
	wg.Wait()
}
