package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/featureflag/domain"
	"github.com/fanflet/fanflet/internal/featureflag/repository"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	speakerrepository "github.com/fanflet/fanflet/internal/speaker/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	clock   *clock.FakeClock
	speaker speakerdomain.Speaker
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&speakerdomain.Speaker{},
		&domain.FeatureFlag{},
		&domain.FeatureOverride{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	speaker := speakerdomain.Speaker{
		ID:        node.Generate(),
		Name:      "Grace Hopper",
		Slug:      "grace-hopper",
		Email:     "grace@example.com",
		CreatedAt: fc.Now(),
		UpdatedAt: fc.Now(),
	}
	require.NoError(t, db.Create(&speaker).Error)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fc,
		Repo:        repository.Provide(),
		SpeakerRepo: speakerrepository.Provide(),
	})
	return &fixture{db: db, svc: svc, clock: fc, speaker: speaker}
}

func TestCreateFeatureFlag(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateRequest{Key: " Custom_Expiration ", Name: "Custom expiration"})
	require.NoError(t, err)
	assert.Equal(t, "custom_expiration", created.Key)
	assert.False(t, created.IsGlobal)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Key: "custom_expiration", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrKeyExists)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Key: "bad key!", Name: "Bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Key: "ok", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestListAndUpdateFeatureFlags(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateRequest{Key: "survey_questions", Name: "Survey"})
	require.NoError(t, err)
	analytics, err := f.svc.Create(ctx, domain.CreateRequest{Key: "analytics_basic", Name: "Analytics", IsGlobal: true})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ListRequest{SortBy: "key"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "analytics_basic", all[0].Key)

	global := true
	onlyGlobal, err := f.svc.List(ctx, domain.ListRequest{IsGlobal: &global})
	require.NoError(t, err)
	require.Len(t, onlyGlobal, 1)
	assert.Equal(t, analytics.ID, onlyGlobal[0].ID)

	off := false
	desc := "  "
	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, domain.UpdateRequest{ID: analytics.ID, IsGlobal: &off, Description: &desc})
	require.NoError(t, err)
	assert.False(t, updated.IsGlobal)
	assert.Nil(t, updated.Description)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: "999"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestSetOverrideKeepsOneRowPerSpeakerAndFlag(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	speakerID := f.speaker.ID.String()

	_, err := f.svc.Create(ctx, domain.CreateRequest{Key: "beta_widget", Name: "Beta widget"})
	require.NoError(t, err)

	reason := "early access"
	first, err := f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: speakerID, Key: "beta_widget", Enabled: true, Reason: &reason})
	require.NoError(t, err)
	assert.True(t, first.Enabled)
	assert.Equal(t, "beta_widget", first.Key)

	f.clock.Advance(time.Minute)
	second, err := f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: speakerID, Key: "beta_widget", Enabled: false})
	require.NoError(t, err)
	assert.False(t, second.Enabled)
	assert.Nil(t, second.Reason)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.FeatureOverride{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	items, err := f.svc.ListOverrides(ctx, speakerID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Enabled)

	require.NoError(t, f.svc.ClearOverride(ctx, speakerID, "beta_widget"))
	assert.ErrorIs(t, f.svc.ClearOverride(ctx, speakerID, "beta_widget"), domain.ErrOverrideNotFound)

	items, err = f.svc.ListOverrides(ctx, speakerID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSetOverrideValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: "x", Key: "beta_widget"})
	assert.ErrorIs(t, err, domain.ErrInvalidSpeakerID)

	_, err = f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: "-5", Key: "beta_widget"})
	assert.ErrorIs(t, err, domain.ErrInvalidSpeakerID)

	_, err = f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: "12345", Key: "beta_widget"})
	assert.ErrorIs(t, err, domain.ErrSpeakerNotFound)

	_, err = f.svc.SetOverride(ctx, domain.SetOverrideRequest{SpeakerID: f.speaker.ID.String(), Key: "beta_widget"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
