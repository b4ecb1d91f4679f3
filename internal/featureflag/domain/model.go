package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type FeatureFlag struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Key         string       `gorm:"column:feature_key;size:64;not null;uniqueIndex:ux_feature_flags_key"`
	Name        string       `gorm:"type:text;not null"`
	Description *string      `gorm:"type:text"`
	IsGlobal    bool         `gorm:"column:is_global;not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeatureFlag) TableName() string { return "feature_flags" }

// FeatureOverride pins a flag on or off for one speaker regardless of plan
// or global state. At most one row exists per (speaker, flag).
type FeatureOverride struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	SpeakerID     snowflake.ID `gorm:"column:speaker_id;not null;uniqueIndex:ux_feature_overrides_speaker_flag,priority:1"`
	FeatureFlagID snowflake.ID `gorm:"column:feature_flag_id;not null;uniqueIndex:ux_feature_overrides_speaker_flag,priority:2"`
	Enabled       bool         `gorm:"not null"`
	Reason        *string      `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeatureOverride) TableName() string { return "feature_overrides" }

// OverrideView is an override joined to its flag key.
type OverrideView struct {
	ID            snowflake.ID
	SpeakerID     snowflake.ID
	FeatureFlagID snowflake.ID
	Key           string `gorm:"column:feature_key"`
	Enabled       bool
	Reason        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
