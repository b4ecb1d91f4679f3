package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, speaker_id, plan_id, status, started_at, canceled_at, ended_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.SpeakerID,
		subscription.PlanID,
		subscription.Status,
		subscription.StartedAt,
		subscription.CanceledAt,
		subscription.EndedAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, speaker_id, plan_id, status, started_at, canceled_at, ended_at, created_at, updated_at
		 FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var items []domain.Subscription
	stmt := db.WithContext(ctx).Model(&domain.Subscription{}).Where("id = ?", id).Limit(1)
	// SQLite has no row locks; it serializes writers instead.
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) FindActiveBySpeaker(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, speaker_id, plan_id, status, started_at, canceled_at, ended_at, created_at, updated_at
		 FROM subscriptions
		 WHERE speaker_id = ? AND status = ?
		 ORDER BY started_at DESC
		 LIMIT 1`,
		speakerID,
		domain.SubscriptionStatusActive,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListBySpeaker(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, speaker_id, plan_id, status, started_at, canceled_at, ended_at, created_at, updated_at
		 FROM subscriptions
		 WHERE speaker_id = ?
		 ORDER BY started_at DESC`,
		speakerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	if subscription == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET plan_id = ?, status = ?, canceled_at = ?, ended_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.PlanID,
		subscription.Status,
		subscription.CanceledAt,
		subscription.EndedAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}
