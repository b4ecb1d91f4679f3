package service

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/entitlement/domain"
)

type overrideKey struct {
	speaker snowflake.ID
	flag    snowflake.ID
}

type grantKey struct {
	plan snowflake.ID
	flag snowflake.ID
}

// memStore is an in-memory tenant store that records the queries it served.
type memStore struct {
	mu sync.Mutex

	flags         map[string]domain.Flag
	overrides     map[overrideKey]bool
	subscriptions map[snowflake.ID]snowflake.ID
	grants        map[grantKey]bool
	planLimits    map[snowflake.ID]domain.Limits
	planNames     map[string]snowflake.ID

	failOn string
	err    error
	calls  []string
}

func newMemStore() *memStore {
	return &memStore{
		flags:         map[string]domain.Flag{},
		overrides:     map[overrideKey]bool{},
		subscriptions: map[snowflake.ID]snowflake.ID{},
		grants:        map[grantKey]bool{},
		planLimits:    map[snowflake.ID]domain.Limits{},
		planNames:     map[string]snowflake.ID{},
	}
}

func (s *memStore) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if s.failOn == call {
		return s.err
	}
	return nil
}

func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memStore) addPlan(id snowflake.ID, name string, limits domain.Limits) {
	s.planLimits[id] = limits
	s.planNames[name] = id
}

func (s *memStore) FindFlagByKey(_ context.Context, key string) (*domain.Flag, error) {
	if err := s.record("FindFlagByKey"); err != nil {
		return nil, err
	}
	flag, ok := s.flags[key]
	if !ok {
		return nil, nil
	}
	return &flag, nil
}

func (s *memStore) FindOverride(_ context.Context, speakerID, flagID snowflake.ID) (*domain.Override, error) {
	if err := s.record("FindOverride"); err != nil {
		return nil, err
	}
	enabled, ok := s.overrides[overrideKey{speakerID, flagID}]
	if !ok {
		return nil, nil
	}
	return &domain.Override{Enabled: enabled}, nil
}

func (s *memStore) FindActiveSubscription(_ context.Context, speakerID snowflake.ID) (*domain.ActiveSubscription, error) {
	if err := s.record("FindActiveSubscription"); err != nil {
		return nil, err
	}
	planID, ok := s.subscriptions[speakerID]
	if !ok {
		return nil, nil
	}
	return &domain.ActiveSubscription{ID: speakerID + 1000, PlanID: planID}, nil
}

func (s *memStore) PlanGrantsFlag(_ context.Context, planID, flagID snowflake.ID) (bool, error) {
	if err := s.record("PlanGrantsFlag"); err != nil {
		return false, err
	}
	return s.grants[grantKey{planID, flagID}], nil
}

func (s *memStore) FindPlanLimits(_ context.Context, planID snowflake.ID) (domain.Limits, error) {
	if err := s.record("FindPlanLimits"); err != nil {
		return nil, err
	}
	return s.limitsFor(planID), nil
}

func (s *memStore) FindPlanLimitsByName(_ context.Context, name string) (domain.Limits, error) {
	if err := s.record("FindPlanLimitsByName"); err != nil {
		return nil, err
	}
	planID, ok := s.planNames[name]
	if !ok {
		return nil, nil
	}
	return s.limitsFor(planID), nil
}

func (s *memStore) FindActivePlanLimits(_ context.Context, speakerID snowflake.ID) (domain.Limits, error) {
	if err := s.record("FindActivePlanLimits"); err != nil {
		return nil, err
	}
	planID, ok := s.subscriptions[speakerID]
	if !ok {
		return nil, nil
	}
	return s.limitsFor(planID), nil
}

func (s *memStore) limitsFor(planID snowflake.ID) domain.Limits {
	limits, ok := s.planLimits[planID]
	if !ok {
		return nil
	}
	if limits == nil {
		return domain.Limits{}
	}
	return limits
}
