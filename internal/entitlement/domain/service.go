package domain

import "context"

// Service answers feature and limit questions for a speaker. Every call
// reads the tenant store afresh; nothing is cached between calls.
type Service interface {
	HasFeature(ctx context.Context, speakerID, featureKey string) (bool, error)
	GetSpeakerLimits(ctx context.Context, speakerID string) (Limits, error)
	Explain(ctx context.Context, speakerID, featureKey string) (*Explanation, error)
}

// Explanation records which rule decided a feature check and what the store
// returned at each step that ran.
type Explanation struct {
	SpeakerID  string `json:"speaker_id"`
	FeatureKey string `json:"feature_key"`
	Enabled    bool   `json:"enabled"`
	Decision   string `json:"decision"`

	FlagID       string  `json:"flag_id,omitempty"`
	FlagIsGlobal *bool   `json:"flag_is_global,omitempty"`
	Override     *bool   `json:"override,omitempty"`
	PlanID       *string `json:"plan_id,omitempty"`
	PlanGrant    *bool   `json:"plan_grant,omitempty"`
}
