package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindActiveBySpeaker(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) (*Subscription, error)
	ListBySpeaker(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) ([]Subscription, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}
