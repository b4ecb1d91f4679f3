package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/clock"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	"github.com/fanflet/fanflet/internal/subscription/domain"
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
	PlanRepo    plandomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	speakerRepo speakerdomain.Repository
	planRepo    plandomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		speakerRepo: p.SpeakerRepo,
		planRepo:    p.PlanRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	speakerID, err := parseID(req.SpeakerID, domain.ErrInvalidSpeakerID)
	if err != nil {
		return nil, err
	}
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}

	status := domain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if status == "" {
		status = domain.SubscriptionStatusActive
	}
	if status != domain.SubscriptionStatusActive && status != domain.SubscriptionStatusTrialing {
		return nil, domain.ErrInvalidStatus
	}

	now := s.clock.Now()
	record := &domain.Subscription{
		ID:        s.genID.Generate(),
		SpeakerID: speakerID,
		PlanID:    planID,
		Status:    status,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithSpeaker(tx, speakerID); err != nil {
			return err
		}
		if err := s.validateParties(ctx, tx, speakerID, planID); err != nil {
			return err
		}
		if status == domain.SubscriptionStatusActive {
			if err := s.ensureNoActive(ctx, tx, speakerID, 0); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, tx, record)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrActiveSubscriptionExists
		}
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", record.ID.String()),
		zap.String("speaker_id", speakerID.String()),
		zap.String("plan_id", planID.String()),
		zap.String("status", string(status)),
	)

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	subscriptionID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) GetActive(ctx context.Context, speakerIDValue string) (*domain.Response, error) {
	speakerID, err := parseID(speakerIDValue, domain.ErrInvalidSpeakerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindActiveBySpeaker(ctx, s.db, speakerID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) ListBySpeaker(ctx context.Context, speakerIDValue string) ([]domain.Response, error) {
	speakerID, err := parseID(speakerIDValue, domain.ErrInvalidSpeakerID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListBySpeaker(ctx, s.db, speakerID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (*domain.Response, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	target := domain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if !domain.IsValidStatus(target) {
		return nil, domain.ErrInvalidStatus
	}

	var updated *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return domain.ErrNotFound
		}
		if err := rls.WithSpeaker(tx, subscription.SpeakerID); err != nil {
			return err
		}

		if subscription.Status == target {
			updated = subscription
			return nil
		}
		if !domain.CanTransition(subscription.Status, target) {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		switch target {
		case domain.SubscriptionStatusActive:
			if err := s.ensureNoActive(ctx, tx, subscription.SpeakerID, subscription.ID); err != nil {
				return err
			}
		case domain.SubscriptionStatusCanceled:
			subscription.CanceledAt = &now
		case domain.SubscriptionStatusEnded:
			subscription.EndedAt = &now
		}

		from := subscription.Status
		subscription.Status = target
		subscription.UpdatedAt = now
		if err := s.repo.UpdateLifecycle(ctx, tx, subscription); err != nil {
			return err
		}

		s.log.Info("subscription transitioned",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("speaker_id", subscription.SpeakerID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(target)),
		)
		updated = subscription
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrActiveSubscriptionExists
		}
		return nil, err
	}

	resp := toResponse(updated)
	return &resp, nil
}

// ChangePlan moves an active or trialing subscription to another plan in
// place. The speaker's entitlements follow on the next resolution.
func (s *Service) ChangePlan(ctx context.Context, req domain.ChangePlanRequest) (*domain.Response, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return domain.ErrNotFound
		}
		if subscription.Status != domain.SubscriptionStatusActive && subscription.Status != domain.SubscriptionStatusTrialing {
			return domain.ErrSubscriptionNotChangeable
		}
		if err := rls.WithSpeaker(tx, subscription.SpeakerID); err != nil {
			return err
		}
		if err := s.validatePlan(ctx, tx, planID); err != nil {
			return err
		}

		from := subscription.PlanID
		subscription.PlanID = planID
		subscription.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateLifecycle(ctx, tx, subscription); err != nil {
			return err
		}

		s.log.Info("subscription plan changed",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("from_plan_id", from.String()),
			zap.String("to_plan_id", planID.String()),
		)
		updated = subscription
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(updated)
	return &resp, nil
}

func (s *Service) validateParties(ctx context.Context, tx *gorm.DB, speakerID, planID snowflake.ID) error {
	speaker, err := s.speakerRepo.FindByID(ctx, tx, speakerID)
	if err != nil {
		return err
	}
	if speaker == nil {
		return domain.ErrSpeakerNotFound
	}
	return s.validatePlan(ctx, tx, planID)
}

func (s *Service) validatePlan(ctx context.Context, tx *gorm.DB, planID snowflake.ID) error {
	plan, err := s.planRepo.FindByID(ctx, tx, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return domain.ErrPlanNotFound
	}
	if !plan.Active {
		return domain.ErrPlanInactive
	}
	return nil
}

// ensureNoActive enforces at most one active subscription per speaker.
// except is the subscription being activated, if any.
func (s *Service) ensureNoActive(ctx context.Context, tx *gorm.DB, speakerID, except snowflake.ID) error {
	active, err := s.repo.FindActiveBySpeaker(ctx, tx, speakerID)
	if err != nil {
		return err
	}
	if active != nil && active.ID != except {
		return domain.ErrActiveSubscriptionExists
	}
	return nil
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, invalidErr
	}
	return id, nil
}

func toResponse(s *domain.Subscription) domain.Response {
	return domain.Response{
		ID:         s.ID.String(),
		SpeakerID:  s.SpeakerID.String(),
		PlanID:     s.PlanID.String(),
		Status:     s.Status,
		StartedAt:  s.StartedAt,
		CanceledAt: s.CanceledAt,
		EndedAt:    s.EndedAt,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
