package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Speaker is the tenant: one speaker owns a set of Fanflet pages.
type Speaker struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	Name  string       `gorm:"type:text;not null"`
	Slug  string       `gorm:"size:128;not null;uniqueIndex:ux_speakers_slug"`
	Email string       `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Speaker) TableName() string { return "speakers" }
