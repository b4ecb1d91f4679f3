package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/fanflet/fanflet/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plans (id, name, display_name, limits, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Name,
		plan.DisplayName,
		plan.Limits,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var p domain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, display_name, limits, active, created_at, updated_at
		 FROM plans WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plan, error) {
	var p domain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, display_name, limits, active, created_at, updated_at
		 FROM plans WHERE name = ?`,
		name,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Plan, error) {
	var items []domain.Plan
	stmt := db.WithContext(ctx).Model(&domain.Plan{})
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	if plan == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE plans
		 SET display_name = ?, limits = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		plan.DisplayName,
		plan.Limits,
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repo) ListFeatures(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.FeatureAssignment, error) {
	var items []domain.FeatureAssignment
	err := db.WithContext(ctx).Raw(
		`SELECT pf.plan_id, pf.feature_flag_id, pf.created_at,
				f.feature_key, f.name, f.is_global
		   FROM plan_features pf
		   JOIN feature_flags f ON f.id = pf.feature_flag_id
		  WHERE pf.plan_id = ?
		  ORDER BY f.feature_key ASC`,
		planID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceFeatures(ctx context.Context, db *gorm.DB, planID snowflake.ID, flagIDs []snowflake.ID, now time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM plan_features WHERE plan_id = ?`,
		planID,
	).Error; err != nil {
		return err
	}

	for _, flagID := range flagIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO plan_features (plan_id, feature_flag_id, created_at)
			 VALUES (?, ?, ?)`,
			planID,
			flagID,
			now,
		).Error; err != nil {
			return err
		}
	}

	return nil
}
