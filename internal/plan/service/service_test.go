package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	featureflagrepository "github.com/fanflet/fanflet/internal/featureflag/repository"
	"github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/fanflet/fanflet/internal/plan/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&featureflagdomain.FeatureFlag{},
		&domain.Plan{},
		&domain.PlanFeature{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		FeatureRepo: featureflagrepository.Provide(),
	})
	return svc, db, node
}

func seedFlag(t *testing.T, db *gorm.DB, node *snowflake.Node, key string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&featureflagdomain.FeatureFlag{
		ID:        node.Generate(),
		Key:       key,
		Name:      key,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestCreatePlan(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	pro, err := svc.Create(ctx, domain.CreateRequest{
		Name:   " Pro ",
		Limits: map[string]int64{"max_fanflets": 20, "max_resources_per_fanflet": 50},
	})
	require.NoError(t, err)
	assert.Equal(t, "pro", pro.Name)
	assert.Equal(t, "pro", pro.DisplayName)
	assert.True(t, pro.Active)
	assert.Equal(t, map[string]int64{"max_fanflets": 20, "max_resources_per_fanflet": 50}, pro.Limits)

	got, err := svc.Get(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, pro.Limits, got.Limits)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "pro"})
	assert.ErrorIs(t, err, domain.ErrNameExists)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "bad name"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "neg", Limits: map[string]int64{"max_fanflets": -2}})
	assert.ErrorIs(t, err, domain.ErrInvalidLimitValue)
}

func TestCreatePlanWithoutLimitsReturnsEmptyMap(t *testing.T) {
	svc, _, _ := setup(t)

	created, err := svc.Create(context.Background(), domain.CreateRequest{Name: "starter"})
	require.NoError(t, err)
	assert.NotNil(t, created.Limits)
	assert.Empty(t, created.Limits)
}

func TestUpdateLimits(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	free, err := svc.Create(ctx, domain.CreateRequest{Name: "free", Limits: map[string]int64{"max_fanflets": 3}})
	require.NoError(t, err)

	updated, err := svc.UpdateLimits(ctx, domain.UpdateLimitsRequest{ID: free.ID, Limits: map[string]int64{"max_fanflets": 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"max_fanflets": 5}, updated.Limits)

	_, err = svc.UpdateLimits(ctx, domain.UpdateLimitsRequest{ID: "42", Limits: nil})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplaceFeatures(t *testing.T) {
	svc, db, node := setup(t)
	ctx := context.Background()

	seedFlag(t, db, node, "custom_expiration")
	seedFlag(t, db, node, "survey_questions")
	seedFlag(t, db, node, "multiple_theme_colors")

	pro, err := svc.Create(ctx, domain.CreateRequest{Name: "pro"})
	require.NoError(t, err)

	features, err := svc.ReplaceFeatures(ctx, domain.ReplaceFeaturesRequest{
		PlanID: pro.ID,
		Keys:   []string{"custom_expiration", "SURVEY_QUESTIONS", "custom_expiration", " "},
	})
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "custom_expiration", features[0].Key)
	assert.Equal(t, "survey_questions", features[1].Key)

	features, err = svc.ReplaceFeatures(ctx, domain.ReplaceFeaturesRequest{PlanID: pro.ID, Keys: []string{"multiple_theme_colors"}})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "multiple_theme_colors", features[0].Key)

	_, err = svc.ReplaceFeatures(ctx, domain.ReplaceFeaturesRequest{PlanID: pro.ID, Keys: []string{"beta_widget"}})
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)

	listed, err := svc.ListFeatures(ctx, pro.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "multiple_theme_colors", listed[0].Key)
}
