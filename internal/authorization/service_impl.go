package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// policyDomain is the single casbin domain all fanflet roles live in.
const policyDomain = "fanflet"

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	actorType, actorID, err := ParseActor(actor)
	if err != nil {
		s.logDenied(actor, object, action, "invalid_actor")
		return err
	}

	subject := actorType + ":" + actorID.String()
	if err := s.ensureGrouping(subject, "role:"+actorType); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, policyDomain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logDenied(subject, object, action, "policy")
		return ErrForbidden
	}
	return nil
}

// ParseActor splits an actor header value into its type and snowflake ID.
func ParseActor(actor string) (string, snowflake.ID, error) {
	actorType, rawID, ok := strings.Cut(strings.TrimSpace(actor), ":")
	if !ok {
		return "", 0, ErrInvalidActor
	}
	actorType = strings.ToLower(strings.TrimSpace(actorType))
	if actorType != ActorTypeAdmin && actorType != ActorTypeSpeaker {
		return "", 0, ErrInvalidActor
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id <= 0 {
		return "", 0, ErrInvalidActor
	}
	return actorType, id, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", policyDomain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, policyDomain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, policyDomain)
	return err
}

func (s *ServiceImpl) logDenied(subject, object, action, reason string) {
	s.log.Warn("authorization denied",
		zap.String("subject", subject),
		zap.String("object", object),
		zap.String("action", action),
		zap.String("reason", reason),
	)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Speakers only read their own entitlements.
		{"role:speaker", ObjectEntitlement, ActionEntitlementCheck},

		{"role:admin", ObjectEntitlement, ActionEntitlementCheck},
		{"role:admin", ObjectEntitlement, ActionEntitlementExplain},

		{"role:admin", ObjectFeatureFlag, ActionFeatureFlagView},
		{"role:admin", ObjectFeatureFlag, ActionFeatureFlagCreate},
		{"role:admin", ObjectFeatureFlag, ActionFeatureFlagUpdate},

		{"role:admin", ObjectOverride, ActionOverrideView},
		{"role:admin", ObjectOverride, ActionOverrideSet},
		{"role:admin", ObjectOverride, ActionOverrideClear},

		{"role:admin", ObjectPlan, ActionPlanView},
		{"role:admin", ObjectPlan, ActionPlanCreate},
		{"role:admin", ObjectPlan, ActionPlanUpdate},

		{"role:admin", ObjectSpeaker, ActionSpeakerView},
		{"role:admin", ObjectSpeaker, ActionSpeakerCreate},

		{"role:admin", ObjectSubscription, ActionSubscriptionView},
		{"role:admin", ObjectSubscription, ActionSubscriptionCreate},
		{"role:admin", ObjectSubscription, ActionSubscriptionTransition},
		{"role:admin", ObjectSubscription, ActionSubscriptionChangePlan},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
