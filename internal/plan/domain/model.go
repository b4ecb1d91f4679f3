package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Plan struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	Name        string            `gorm:"size:64;not null;uniqueIndex:ux_plans_name"`
	DisplayName string            `gorm:"column:display_name;type:text;not null"`
	Limits      datatypes.JSONMap
	Active      bool              `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Plan) TableName() string { return "plans" }

// PlanFeature grants a feature flag to every speaker subscribed to the plan.
type PlanFeature struct {
	PlanID        snowflake.ID `gorm:"column:plan_id;primaryKey"`
	FeatureFlagID snowflake.ID `gorm:"column:feature_flag_id;primaryKey"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PlanFeature) TableName() string { return "plan_features" }

type FeatureAssignment struct {
	PlanID        snowflake.ID
	FeatureFlagID snowflake.ID
	Key           string `gorm:"column:feature_key"`
	Name          string
	IsGlobal      bool
	CreatedAt     time.Time
}
