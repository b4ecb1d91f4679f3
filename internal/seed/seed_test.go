package seed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/config"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	featureflagrepo "github.com/fanflet/fanflet/internal/featureflag/repository"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	planrepo "github.com/fanflet/fanflet/internal/plan/repository"
	"github.com/fanflet/fanflet/internal/ratelimit"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T, locker *ratelimit.Locker) (*Seeder, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&featureflagdomain.FeatureFlag{},
		&plandomain.Plan{},
		&plandomain.PlanFeature{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	seeder := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		FeatureRepo: featureflagrepo.Provide(),
		PlanRepo:    planrepo.Provide(),
		Locker:      locker,
	})
	return seeder, db
}

func TestEnsureCatalogIsIdempotent(t *testing.T) {
	seeder, db := setup(t, nil)
	ctx := context.Background()
	catalog := config.DefaultCatalog()

	require.NoError(t, seeder.EnsureCatalog(ctx, catalog))
	require.NoError(t, seeder.EnsureCatalog(ctx, catalog))

	var flags, plans, grants int64
	require.NoError(t, db.Model(&featureflagdomain.FeatureFlag{}).Count(&flags).Error)
	require.NoError(t, db.Model(&plandomain.Plan{}).Count(&plans).Error)
	require.NoError(t, db.Model(&plandomain.PlanFeature{}).Count(&grants).Error)
	assert.Equal(t, int64(len(catalog.Flags)), flags)
	assert.Equal(t, int64(len(catalog.Plans)), plans)
	assert.Equal(t, int64(3), grants)

	var global featureflagdomain.FeatureFlag
	require.NoError(t, db.Where("feature_key = ?", "analytics_basic").First(&global).Error)
	assert.True(t, global.IsGlobal)

	var free plandomain.Plan
	require.NoError(t, db.Where("name = ?", "free").First(&free).Error)
	assert.Equal(t, map[string]int64{"max_fanflets": 3, "max_resources_per_fanflet": 5}, plandomain.DecodeLimits(free.Limits))
}

func TestEnsureCatalogUpdatesDeclaredFields(t *testing.T) {
	seeder, db := setup(t, nil)
	ctx := context.Background()
	catalog := config.DefaultCatalog()
	require.NoError(t, seeder.EnsureCatalog(ctx, catalog))

	catalog.Plans[1].Limits = map[string]int64{"max_fanflets": 99}
	catalog.Plans[1].Features = []string{"survey_questions"}
	catalog.Flags[0].Global = true
	require.NoError(t, seeder.EnsureCatalog(ctx, catalog))

	var pro plandomain.Plan
	require.NoError(t, db.Where("name = ?", "pro").First(&pro).Error)
	assert.Equal(t, map[string]int64{"max_fanflets": 99}, plandomain.DecodeLimits(pro.Limits))

	var grants int64
	require.NoError(t, db.Model(&plandomain.PlanFeature{}).Where("plan_id = ?", pro.ID).Count(&grants).Error)
	assert.Equal(t, int64(1), grants)

	var flag featureflagdomain.FeatureFlag
	require.NoError(t, db.Where("feature_key = ?", catalog.Flags[0].Key).First(&flag).Error)
	assert.True(t, flag.IsGlobal)
}

func TestEnsureCatalogSkipsWhenLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := ratelimit.NewLocker(client)

	seeder, db := setup(t, locker)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, catalogLockKey, time.Minute)
	require.NoError(t, err)

	require.NoError(t, seeder.EnsureCatalog(ctx, config.DefaultCatalog()))

	var flags int64
	require.NoError(t, db.Model(&featureflagdomain.FeatureFlag{}).Count(&flags).Error)
	assert.Zero(t, flags)
}

func TestEnsureCatalogRejectsInvalidLimits(t *testing.T) {
	seeder, db := setup(t, nil)
	catalog := config.Catalog{
		Plans: []config.CatalogPlan{{Name: "broken", Limits: map[string]int64{"max_fanflets": -1}}},
	}

	err := seeder.EnsureCatalog(context.Background(), catalog)
	assert.ErrorIs(t, err, plandomain.ErrInvalidLimitValue)

	var plans int64
	require.NoError(t, db.Model(&plandomain.Plan{}).Count(&plans).Error)
	assert.Zero(t, plans)
}
