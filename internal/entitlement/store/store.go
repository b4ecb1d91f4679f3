package store

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/entitlement/domain"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB *gorm.DB
}

// Store reads entitlement facts straight from the tenant database.
type Store struct {
	db *gorm.DB
}

func New(p Params) domain.Store {
	return &Store{db: p.DB}
}

type flagRow struct {
	ID       snowflake.ID
	IsGlobal bool
}

type overrideRow struct {
	ID      snowflake.ID
	Enabled bool
}

type limitsRow struct {
	ID     snowflake.ID
	Limits datatypes.JSONMap
}

func (s *Store) FindFlagByKey(ctx context.Context, key string) (*domain.Flag, error) {
	var row flagRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, is_global FROM feature_flags WHERE feature_key = ? LIMIT 1`,
		key,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find flag by key: %w", err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &domain.Flag{ID: row.ID, IsGlobal: row.IsGlobal}, nil
}

func (s *Store) FindOverride(ctx context.Context, speakerID, flagID snowflake.ID) (*domain.Override, error) {
	var row overrideRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, enabled FROM feature_overrides
		 WHERE speaker_id = ? AND feature_flag_id = ?
		 LIMIT 1`,
		speakerID,
		flagID,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find override: %w", err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &domain.Override{Enabled: row.Enabled}, nil
}

func (s *Store) FindActiveSubscription(ctx context.Context, speakerID snowflake.ID) (*domain.ActiveSubscription, error) {
	var row domain.ActiveSubscription
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, plan_id FROM subscriptions
		 WHERE speaker_id = ? AND status = ?
		 ORDER BY started_at DESC
		 LIMIT 1`,
		speakerID,
		subscriptiondomain.SubscriptionStatusActive,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find active subscription: %w", err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (s *Store) PlanGrantsFlag(ctx context.Context, planID, flagID snowflake.ID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM plan_features WHERE plan_id = ? AND feature_flag_id = ?`,
		planID,
		flagID,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("plan grants flag: %w", err)
	}
	return count > 0, nil
}

func (s *Store) FindPlanLimits(ctx context.Context, planID snowflake.ID) (domain.Limits, error) {
	var row limitsRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, limits FROM plans WHERE id = ?`,
		planID,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find plan limits: %w", err)
	}
	return row.toLimits(), nil
}

func (s *Store) FindPlanLimitsByName(ctx context.Context, name string) (domain.Limits, error) {
	var row limitsRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, limits FROM plans WHERE name = ? LIMIT 1`,
		name,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find plan limits by name: %w", err)
	}
	return row.toLimits(), nil
}

func (s *Store) FindActivePlanLimits(ctx context.Context, speakerID snowflake.ID) (domain.Limits, error) {
	var row limitsRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT p.id, p.limits
		   FROM subscriptions s
		   JOIN plans p ON p.id = s.plan_id
		  WHERE s.speaker_id = ? AND s.status = ?
		  ORDER BY s.started_at DESC
		  LIMIT 1`,
		speakerID,
		subscriptiondomain.SubscriptionStatusActive,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("find active plan limits: %w", err)
	}
	return row.toLimits(), nil
}

// toLimits returns nil when no plan row matched and a non-nil map otherwise.
func (r limitsRow) toLimits() domain.Limits {
	if r.ID == 0 {
		return nil
	}
	return domain.Limits(plandomain.DecodeLimits(r.Limits))
}
