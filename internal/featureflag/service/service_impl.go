package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/featureflag/domain"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	"github.com/fanflet/fanflet/pkg/db"
	"github.com/fanflet/fanflet/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	SpeakerRepo speakerdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	speakerRepo speakerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("featureflag.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		speakerRepo: p.SpeakerRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	key, err := domain.NormalizeKey(req.Key)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	record := &domain.FeatureFlag{
		ID:          s.genID.Generate(),
		Key:         key,
		Name:        name,
		Description: trimmedPtr(req.Description),
		IsGlobal:    req.IsGlobal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrKeyExists
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Key:      strings.ToLower(strings.TrimSpace(req.Key)),
		IsGlobal: req.IsGlobal,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	flagID, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, flagID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = trimmedPtr(req.Description)
	}
	if req.IsGlobal != nil && *req.IsGlobal != item.IsGlobal {
		s.log.Info("feature flag global state changed",
			zap.String("feature_key", item.Key),
			zap.Bool("is_global", *req.IsGlobal),
		)
		item.IsGlobal = *req.IsGlobal
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) SetOverride(ctx context.Context, req domain.SetOverrideRequest) (*domain.OverrideResponse, error) {
	speakerID, err := parseID(req.SpeakerID)
	if err != nil {
		return nil, domain.ErrInvalidSpeakerID
	}
	key, err := domain.NormalizeKey(req.Key)
	if err != nil {
		return nil, err
	}

	flag, err := s.lookup(ctx, speakerID, key)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &domain.FeatureOverride{
		ID:            s.genID.Generate(),
		SpeakerID:     speakerID,
		FeatureFlagID: flag.ID,
		Enabled:       req.Enabled,
		Reason:        trimmedPtr(req.Reason),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var view *domain.OverrideView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithSpeaker(tx, speakerID); err != nil {
			return err
		}
		if err := s.repo.UpsertOverride(ctx, tx, record); err != nil {
			return err
		}
		view, err = s.repo.FindOverride(ctx, tx, speakerID, flag.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, domain.ErrOverrideNotFound
	}

	s.log.Info("feature override set",
		zap.String("speaker_id", speakerID.String()),
		zap.String("feature_key", key),
		zap.Bool("enabled", req.Enabled),
	)

	resp := toOverrideResponse(view)
	return &resp, nil
}

func (s *Service) ClearOverride(ctx context.Context, speakerIDValue, keyValue string) error {
	speakerID, err := parseID(speakerIDValue)
	if err != nil {
		return domain.ErrInvalidSpeakerID
	}
	key, err := domain.NormalizeKey(keyValue)
	if err != nil {
		return err
	}

	flag, err := s.lookup(ctx, speakerID, key)
	if err != nil {
		return err
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithSpeaker(tx, speakerID); err != nil {
			return err
		}
		deleted, err = s.repo.DeleteOverride(ctx, tx, speakerID, flag.ID)
		return err
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrOverrideNotFound
	}

	s.log.Info("feature override cleared",
		zap.String("speaker_id", speakerID.String()),
		zap.String("feature_key", key),
	)
	return nil
}

func (s *Service) ListOverrides(ctx context.Context, speakerIDValue string) ([]domain.OverrideResponse, error) {
	speakerID, err := parseID(speakerIDValue)
	if err != nil {
		return nil, domain.ErrInvalidSpeakerID
	}

	items, err := s.repo.ListOverrides(ctx, s.db, speakerID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OverrideResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toOverrideResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) lookup(ctx context.Context, speakerID snowflake.ID, key string) (*domain.FeatureFlag, error) {
	speaker, err := s.speakerRepo.FindByID(ctx, s.db, speakerID)
	if err != nil {
		return nil, err
	}
	if speaker == nil {
		return nil, domain.ErrSpeakerNotFound
	}

	flag, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, domain.ErrNotFound
	}
	return flag, nil
}

func toResponse(f *domain.FeatureFlag) domain.Response {
	return domain.Response{
		ID:          f.ID.String(),
		Key:         f.Key,
		Name:        f.Name,
		Description: f.Description,
		IsGlobal:    f.IsGlobal,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toOverrideResponse(o *domain.OverrideView) domain.OverrideResponse {
	return domain.OverrideResponse{
		ID:            o.ID.String(),
		SpeakerID:     o.SpeakerID.String(),
		FeatureFlagID: o.FeatureFlagID.String(),
		Key:           o.Key,
		Enabled:       o.Enabled,
		Reason:        o.Reason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
