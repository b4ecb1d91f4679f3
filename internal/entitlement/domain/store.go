package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

//go:generate mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Flag is the slice of a feature flag the resolver needs.
type Flag struct {
	ID       snowflake.ID
	IsGlobal bool
}

type Override struct {
	Enabled bool
}

type ActiveSubscription struct {
	ID     snowflake.ID
	PlanID snowflake.ID
}

// Limits maps a limit name to its quota. A nil Limits means no limits are
// known for the speaker, which callers must not read as unlimited.
type Limits map[string]int64

// Store is the read side of the tenant store. Lookups that find nothing
// return a nil result (or false) with a nil error; a non-nil error always
// means the store could not answer.
type Store interface {
	FindFlagByKey(ctx context.Context, key string) (*Flag, error)
	FindOverride(ctx context.Context, speakerID, flagID snowflake.ID) (*Override, error)
	FindActiveSubscription(ctx context.Context, speakerID snowflake.ID) (*ActiveSubscription, error)
	PlanGrantsFlag(ctx context.Context, planID, flagID snowflake.ID) (bool, error)
	FindPlanLimits(ctx context.Context, planID snowflake.ID) (Limits, error)
	FindPlanLimitsByName(ctx context.Context, name string) (Limits, error)
	// FindActivePlanLimits joins the speaker's active subscription to its
	// plan's limits in one round trip.
	FindActivePlanLimits(ctx context.Context, speakerID snowflake.ID) (Limits, error)
}
