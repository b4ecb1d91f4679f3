package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	UpdateLimits(ctx context.Context, req UpdateLimitsRequest) (*Response, error)

	ReplaceFeatures(ctx context.Context, req ReplaceFeaturesRequest) ([]FeatureResponse, error)
	ListFeatures(ctx context.Context, planID string) ([]FeatureResponse, error)
}

type ListRequest struct {
	Active  *bool
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Limits      map[string]int64 `json:"limits"`
	Active      *bool            `json:"active"`
}

type UpdateLimitsRequest struct {
	ID     string           `json:"id"`
	Limits map[string]int64 `json:"limits"`
}

type ReplaceFeaturesRequest struct {
	PlanID string   `json:"plan_id"`
	Keys   []string `json:"feature_keys"`
}

type Response struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Limits      map[string]int64 `json:"limits"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type FeatureResponse struct {
	PlanID        string    `json:"plan_id"`
	FeatureFlagID string    `json:"feature_flag_id"`
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	IsGlobal      bool      `json:"is_global"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	ErrInvalidID         = errors.New("invalid_plan_id")
	ErrInvalidName       = errors.New("invalid_plan_name")
	ErrInvalidLimitName  = errors.New("invalid_limit_name")
	ErrInvalidLimitValue = errors.New("invalid_limit_value")
	ErrInvalidFeatureKey = errors.New("invalid_feature_key")
	ErrNameExists        = errors.New("plan_name_exists")
	ErrNotFound          = errors.New("plan_not_found")
	ErrFeatureNotFound   = errors.New("feature_flag_not_found")
)
