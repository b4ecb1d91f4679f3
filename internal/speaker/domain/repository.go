package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, speaker *Speaker) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Speaker, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Speaker, error)
}
