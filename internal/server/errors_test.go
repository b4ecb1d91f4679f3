package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fanflet/fanflet/internal/authorization"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", featureflagdomain.ErrInvalidKey, http.StatusBadRequest, "validation_error"},
		{"wrapped validation", fmt.Errorf("create: %w", plandomain.ErrInvalidLimitValue), http.StatusBadRequest, "validation_error"},
		{"not found", speakerdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"override missing", featureflagdomain.ErrOverrideNotFound, http.StatusNotFound, "not_found"},
		{"conflict", subscriptiondomain.ErrActiveSubscriptionExists, http.StatusConflict, "conflict"},
		{"transition", subscriptiondomain.ErrInvalidTransition, http.StatusConflict, "conflict"},
		{"forbidden", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"invalid actor", authorization.ErrInvalidActor, http.StatusUnauthorized, "unauthorized"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"store", storeUnavailable(errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
		})
	}
}

func TestValidationPayloadNamesField(t *testing.T) {
	_, payload := mapError(plandomain.ErrInvalidLimitName)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "invalid_limit_name", payload.Errors[0].Code)
		assert.Equal(t, "limit_name", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(subscriptiondomain.ErrPlanInactive)
	assert.Equal(t, "conflict", kind)
	assert.Equal(t, "plan_inactive", code)

	kind, code = classifyErrorForLog(featureflagdomain.ErrInvalidKey)
	assert.Equal(t, "validation_error", kind)
	assert.Equal(t, "invalid_key", code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 3, retryAfterSeconds(2100*time.Millisecond))
}
