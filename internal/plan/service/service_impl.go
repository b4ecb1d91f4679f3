package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	"github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/fanflet/fanflet/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var planNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	FeatureRepo featureflagdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	featureRepo featureflagdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("plan.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		featureRepo: p.FeatureRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = name
	}

	limits, err := domain.EncodeLimits(req.Limits)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	record := &domain.Plan{
		ID:          s.genID.Generate(),
		Name:        name,
		DisplayName: displayName,
		Limits:      limits,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrNameExists
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListRequest{
		Active:  req.Active,
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

// UpdateLimits replaces the plan's limits document wholesale.
func (s *Service) UpdateLimits(ctx context.Context, req domain.UpdateLimitsRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	limits, err := domain.EncodeLimits(req.Limits)
	if err != nil {
		return nil, err
	}

	item.Limits = limits
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.log.Info("plan limits updated",
		zap.String("plan_id", item.ID.String()),
		zap.String("plan", item.Name),
		zap.Int("limit_count", len(limits)),
	)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) ReplaceFeatures(ctx context.Context, req domain.ReplaceFeaturesRequest) ([]domain.FeatureResponse, error) {
	item, err := s.find(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	keys, err := normalizeKeys(req.Keys)
	if err != nil {
		return nil, err
	}

	flags, err := s.featureRepo.ListByKeys(ctx, s.db, keys)
	if err != nil {
		return nil, err
	}
	if len(flags) != len(keys) {
		return nil, domain.ErrFeatureNotFound
	}

	flagIDs := make([]snowflake.ID, 0, len(flags))
	for _, flag := range flags {
		flagIDs = append(flagIDs, flag.ID)
	}

	now := s.clock.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.ReplaceFeatures(ctx, tx, item.ID, flagIDs, now)
	}); err != nil {
		return nil, err
	}

	s.log.Info("plan features replaced",
		zap.String("plan_id", item.ID.String()),
		zap.Strings("feature_keys", keys),
	)

	return s.listFeatures(ctx, item.ID)
}

func (s *Service) ListFeatures(ctx context.Context, planID string) ([]domain.FeatureResponse, error) {
	item, err := s.find(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.listFeatures(ctx, item.ID)
}

func (s *Service) listFeatures(ctx context.Context, planID snowflake.ID) ([]domain.FeatureResponse, error) {
	items, err := s.repo.ListFeatures(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.FeatureResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.FeatureResponse{
			PlanID:        item.PlanID.String(),
			FeatureFlagID: item.FeatureFlagID.String(),
			Key:           item.Key,
			Name:          item.Name,
			IsGlobal:      item.IsGlobal,
			CreatedAt:     item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Plan, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || planID <= 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// NormalizeName lower-cases and validates a plan's machine name.
func NormalizeName(value string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	if !planNamePattern.MatchString(name) {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

func normalizeKeys(values []string) ([]string, error) {
	keys := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		key, err := featureflagdomain.NormalizeKey(value)
		if err != nil {
			return nil, domain.ErrInvalidFeatureKey
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func toResponse(p *domain.Plan) domain.Response {
	return domain.Response{
		ID:          p.ID.String(),
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Limits:      domain.DecodeLimits(p.Limits),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
