package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)

	SetOverride(ctx context.Context, req SetOverrideRequest) (*OverrideResponse, error)
	ClearOverride(ctx context.Context, speakerID, key string) error
	ListOverrides(ctx context.Context, speakerID string) ([]OverrideResponse, error)
}

type ListRequest struct {
	Key      string
	IsGlobal *bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsGlobal    bool    `json:"is_global"`
}

type UpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsGlobal    *bool   `json:"is_global,omitempty"`
}

type SetOverrideRequest struct {
	SpeakerID string  `json:"speaker_id"`
	Key       string  `json:"key"`
	Enabled   bool    `json:"enabled"`
	Reason    *string `json:"reason"`
}

type Response struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsGlobal    bool      `json:"is_global"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OverrideResponse struct {
	ID            string    `json:"id"`
	SpeakerID     string    `json:"speaker_id"`
	FeatureFlagID string    `json:"feature_flag_id"`
	Key           string    `json:"key"`
	Enabled       bool      `json:"enabled"`
	Reason        *string   `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidKey       = errors.New("invalid_key")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidSpeakerID = errors.New("invalid_speaker_id")
	ErrKeyExists        = errors.New("feature_key_exists")
	ErrNotFound         = errors.New("feature_flag_not_found")
	ErrSpeakerNotFound  = errors.New("speaker_not_found")
	ErrOverrideNotFound = errors.New("override_not_found")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// NormalizeKey trims and lower-cases a flag key and rejects anything outside
// [a-z0-9_.-].
func NormalizeKey(value string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if !keyPattern.MatchString(key) {
		return "", ErrInvalidKey
	}
	return key, nil
}
