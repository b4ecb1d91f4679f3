// Package seed reconciles the configured catalog of feature flags and plans
// into the tenant store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/config"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/fanflet/fanflet/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogLockKey = "fanflet:seed:catalog"
	catalogLockTTL = 30 * time.Second
	applyTimeout   = 30 * time.Second
)

var Module = fx.Module("seed",
	fx.Provide(New),
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	FeatureRepo featureflagdomain.Repository
	PlanRepo    plandomain.Repository
	Locker      *ratelimit.Locker `optional:"true"`
}

type Seeder struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	featureRepo featureflagdomain.Repository
	planRepo    plandomain.Repository
	locker      *ratelimit.Locker
}

func New(p Params) *Seeder {
	return &Seeder{
		db:          p.DB,
		log:         p.Log.Named("seed"),
		genID:       p.GenID,
		clock:       p.Clock,
		featureRepo: p.FeatureRepo,
		planRepo:    p.PlanRepo,
		locker:      p.Locker,
	}
}

// EnsureCatalog upserts every catalog flag and plan. Catalog entries own
// their declared fields; rows not named in the catalog are left alone.
func (s *Seeder) EnsureCatalog(ctx context.Context, catalog config.Catalog) error {
	if s.db == nil {
		return errors.New("seed database handle is required")
	}

	lease, err := s.locker.Acquire(ctx, catalogLockKey, catalogLockTTL)
	if errors.Is(err, ratelimit.ErrLockHeld) {
		s.log.Info("catalog seed skipped, another instance holds the lock")
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire catalog lock: %w", err)
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.log.Warn("release catalog lock failed", zap.Error(err))
		}
	}()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flagIDs := make(map[string]snowflake.ID, len(catalog.Flags))
		for _, flag := range catalog.Flags {
			id, err := s.ensureFlag(ctx, tx, flag)
			if err != nil {
				return fmt.Errorf("seed flag %q: %w", flag.Key, err)
			}
			flagIDs[flag.Key] = id
		}

		for _, plan := range catalog.Plans {
			if err := s.ensurePlan(ctx, tx, plan, flagIDs); err != nil {
				return fmt.Errorf("seed plan %q: %w", plan.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("catalog seeded",
		zap.Int("flags", len(catalog.Flags)),
		zap.Int("plans", len(catalog.Plans)),
	)
	return nil
}

// Apply reconciles a reloaded catalog, logging instead of failing.
func (s *Seeder) Apply(catalog config.Catalog) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()
	if err := s.EnsureCatalog(ctx, catalog); err != nil {
		s.log.Error("catalog reload failed", zap.Error(err))
	}
}

func (s *Seeder) ensureFlag(ctx context.Context, tx *gorm.DB, flag config.CatalogFlag) (snowflake.ID, error) {
	key, err := featureflagdomain.NormalizeKey(flag.Key)
	if err != nil {
		return 0, err
	}
	name := strings.TrimSpace(flag.Name)
	if name == "" {
		name = key
	}
	var description *string
	if desc := strings.TrimSpace(flag.Description); desc != "" {
		description = &desc
	}

	existing, err := s.featureRepo.FindByKey(ctx, tx, key)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	if existing == nil {
		record := &featureflagdomain.FeatureFlag{
			ID:          s.genID.Generate(),
			Key:         key,
			Name:        name,
			Description: description,
			IsGlobal:    flag.Global,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.featureRepo.Create(ctx, tx, record); err != nil {
			return 0, err
		}
		return record.ID, nil
	}

	if existing.Name == name && existing.IsGlobal == flag.Global && equalStringPtr(existing.Description, description) {
		return existing.ID, nil
	}
	existing.Name = name
	existing.Description = description
	existing.IsGlobal = flag.Global
	existing.UpdatedAt = now
	if err := s.featureRepo.Update(ctx, tx, existing); err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (s *Seeder) ensurePlan(ctx context.Context, tx *gorm.DB, plan config.CatalogPlan, flagIDs map[string]snowflake.ID) error {
	name := strings.ToLower(strings.TrimSpace(plan.Name))
	if name == "" {
		return plandomain.ErrInvalidName
	}
	displayName := strings.TrimSpace(plan.DisplayName)
	if displayName == "" {
		displayName = name
	}
	limits, err := plandomain.EncodeLimits(plan.Limits)
	if err != nil {
		return err
	}

	featureIDs := make([]snowflake.ID, 0, len(plan.Features))
	for _, key := range plan.Features {
		id, ok := flagIDs[key]
		if !ok {
			return fmt.Errorf("%w: %s", plandomain.ErrFeatureNotFound, key)
		}
		featureIDs = append(featureIDs, id)
	}

	existing, err := s.planRepo.FindByName(ctx, tx, name)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	planID := snowflake.ID(0)
	if existing == nil {
		record := &plandomain.Plan{
			ID:          s.genID.Generate(),
			Name:        name,
			DisplayName: displayName,
			Limits:      limits,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.planRepo.Create(ctx, tx, record); err != nil {
			return err
		}
		planID = record.ID
	} else {
		existing.DisplayName = displayName
		existing.Limits = limits
		existing.UpdatedAt = now
		if err := s.planRepo.Update(ctx, tx, existing); err != nil {
			return err
		}
		planID = existing.ID
	}

	return s.planRepo.ReplaceFeatures(ctx, tx, planID, featureIDs, now)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
