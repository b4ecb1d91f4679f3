package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, flag *FeatureFlag) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeatureFlag, error)
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*FeatureFlag, error)
	ListByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]FeatureFlag, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]FeatureFlag, error)
	Update(ctx context.Context, db *gorm.DB, flag *FeatureFlag) error

	UpsertOverride(ctx context.Context, db *gorm.DB, override *FeatureOverride) error
	FindOverride(ctx context.Context, db *gorm.DB, speakerID, flagID snowflake.ID) (*OverrideView, error)
	DeleteOverride(ctx context.Context, db *gorm.DB, speakerID, flagID snowflake.ID) (int64, error)
	ListOverrides(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) ([]OverrideView, error)
}
