package authorization

import (
	"context"
	"errors"
)

type Service interface {
	// Authorize checks actor ("admin:<id>" or "speaker:<id>") against the
	// role policy for object and action.
	Authorize(ctx context.Context, actor string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

const (
	ActorTypeAdmin   = "admin"
	ActorTypeSpeaker = "speaker"
)

const (
	ObjectFeatureFlag  = "feature_flag"
	ObjectOverride     = "feature_override"
	ObjectPlan         = "plan"
	ObjectSpeaker      = "speaker"
	ObjectSubscription = "subscription"
	ObjectEntitlement  = "entitlement"
)

const (
	ActionFeatureFlagView   = "feature_flag.view"
	ActionFeatureFlagCreate = "feature_flag.create"
	ActionFeatureFlagUpdate = "feature_flag.update"

	ActionOverrideView  = "feature_override.view"
	ActionOverrideSet   = "feature_override.set"
	ActionOverrideClear = "feature_override.clear"

	ActionPlanView   = "plan.view"
	ActionPlanCreate = "plan.create"
	ActionPlanUpdate = "plan.update"

	ActionSpeakerView   = "speaker.view"
	ActionSpeakerCreate = "speaker.create"

	ActionSubscriptionView       = "subscription.view"
	ActionSubscriptionCreate     = "subscription.create"
	ActionSubscriptionTransition = "subscription.transition"
	ActionSubscriptionChangePlan = "subscription.change_plan"

	ActionEntitlementCheck   = "entitlement.check"
	ActionEntitlementExplain = "entitlement.explain"
)
