package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/featureflag/domain"
	"github.com/fanflet/fanflet/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, flag *domain.FeatureFlag) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feature_flags (id, feature_key, name, description, is_global, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		flag.ID,
		flag.Key,
		flag.Name,
		flag.Description,
		flag.IsGlobal,
		flag.CreatedAt,
		flag.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeatureFlag, error) {
	var f domain.FeatureFlag
	err := db.WithContext(ctx).Raw(
		`SELECT id, feature_key, name, description, is_global, created_at, updated_at
		 FROM feature_flags WHERE id = ?`,
		id,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*domain.FeatureFlag, error) {
	var f domain.FeatureFlag
	err := db.WithContext(ctx).Raw(
		`SELECT id, feature_key, name, description, is_global, created_at, updated_at
		 FROM feature_flags WHERE feature_key = ?`,
		key,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) ListByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]domain.FeatureFlag, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var items []domain.FeatureFlag
	err := db.WithContext(ctx).Raw(
		`SELECT id, feature_key, name, description, is_global, created_at, updated_at
		 FROM feature_flags WHERE feature_key IN ?`,
		keys,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.FeatureFlag, error) {
	var items []domain.FeatureFlag
	stmt := db.WithContext(ctx).Model(&domain.FeatureFlag{})

	if filter.Key != "" {
		stmt = stmt.Where("feature_key = ?", filter.Key)
	}
	if filter.IsGlobal != nil {
		stmt = stmt.Where("is_global = ?", *filter.IsGlobal)
	}

	sortBy := filter.SortBy
	if strings.EqualFold(strings.TrimSpace(sortBy), "key") {
		sortBy = "feature_key"
	}
	stmt = option.WithSortBy(option.WithQuerySortBy(sortBy, filter.OrderBy, map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"feature_key": true,
		"name":        true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, flag *domain.FeatureFlag) error {
	if flag == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE feature_flags
		 SET name = ?, description = ?, is_global = ?, updated_at = ?
		 WHERE id = ?`,
		flag.Name,
		flag.Description,
		flag.IsGlobal,
		flag.UpdatedAt,
		flag.ID,
	).Error
}

func (r *repo) UpsertOverride(ctx context.Context, db *gorm.DB, override *domain.FeatureOverride) error {
	if override == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "speaker_id"}, {Name: "feature_flag_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "reason", "updated_at"}),
		}).
		Create(override).Error
}

func (r *repo) FindOverride(ctx context.Context, db *gorm.DB, speakerID, flagID snowflake.ID) (*domain.OverrideView, error) {
	var o domain.OverrideView
	err := db.WithContext(ctx).Raw(
		`SELECT o.id, o.speaker_id, o.feature_flag_id, f.feature_key, o.enabled, o.reason, o.created_at, o.updated_at
		 FROM feature_overrides o
		 JOIN feature_flags f ON f.id = o.feature_flag_id
		 WHERE o.speaker_id = ? AND o.feature_flag_id = ?`,
		speakerID,
		flagID,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) DeleteOverride(ctx context.Context, db *gorm.DB, speakerID, flagID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM feature_overrides WHERE speaker_id = ? AND feature_flag_id = ?`,
		speakerID,
		flagID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ListOverrides(ctx context.Context, db *gorm.DB, speakerID snowflake.ID) ([]domain.OverrideView, error) {
	var items []domain.OverrideView
	err := db.WithContext(ctx).Raw(
		`SELECT o.id, o.speaker_id, o.feature_flag_id, f.feature_key, o.enabled, o.reason, o.created_at, o.updated_at
		 FROM feature_overrides o
		 JOIN feature_flags f ON f.id = o.feature_flag_id
		 WHERE o.speaker_id = ?
		 ORDER BY f.feature_key ASC`,
		speakerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
