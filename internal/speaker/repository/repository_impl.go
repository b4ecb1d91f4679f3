package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/speaker/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, speaker *domain.Speaker) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO speakers (id, name, slug, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		speaker.ID,
		speaker.Name,
		speaker.Slug,
		speaker.Email,
		speaker.CreatedAt,
		speaker.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Speaker, error) {
	var s domain.Speaker
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, email, created_at, updated_at
		 FROM speakers WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Speaker, error) {
	var s domain.Speaker
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, email, created_at, updated_at
		 FROM speakers WHERE slug = ?`,
		slug,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}
