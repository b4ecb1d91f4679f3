package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetActive(ctx context.Context, speakerID string) (*Response, error)
	ListBySpeaker(ctx context.Context, speakerID string) ([]Response, error)
	Transition(ctx context.Context, req TransitionRequest) (*Response, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (*Response, error)
}

type CreateRequest struct {
	SpeakerID string             `json:"speaker_id"`
	PlanID    string             `json:"plan_id"`
	Status    SubscriptionStatus `json:"status"`
}

type TransitionRequest struct {
	ID     string             `json:"id"`
	Status SubscriptionStatus `json:"status"`
}

type ChangePlanRequest struct {
	ID     string `json:"id"`
	PlanID string `json:"plan_id"`
}

type Response struct {
	ID         string             `json:"id"`
	SpeakerID  string             `json:"speaker_id"`
	PlanID     string             `json:"plan_id"`
	Status     SubscriptionStatus `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	CanceledAt *time.Time         `json:"canceled_at,omitempty"`
	EndedAt    *time.Time         `json:"ended_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

var (
	ErrInvalidID                 = errors.New("invalid_subscription_id")
	ErrInvalidSpeakerID          = errors.New("invalid_speaker_id")
	ErrInvalidPlanID             = errors.New("invalid_plan_id")
	ErrInvalidStatus             = errors.New("invalid_status")
	ErrInvalidTransition         = errors.New("invalid_transition")
	ErrSpeakerNotFound           = errors.New("speaker_not_found")
	ErrPlanNotFound              = errors.New("plan_not_found")
	ErrPlanInactive              = errors.New("plan_inactive")
	ErrNotFound                  = errors.New("subscription_not_found")
	ErrActiveSubscriptionExists  = errors.New("active_subscription_exists")
	ErrSubscriptionNotChangeable = errors.New("subscription_not_changeable")
)
