package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fanflet/fanflet/internal/authorization"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// storeUnavailable tags a resolver failure so it renders as 503 while the
// underlying error stays visible to the request log.
func storeUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrServiceUnavailable, err)
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the mapped error type and a stable code for
// request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status == http.StatusConflict {
		code = payload.Message
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	speakerdomain.ErrInvalidID,
	speakerdomain.ErrInvalidName,
	speakerdomain.ErrInvalidEmail,
	featureflagdomain.ErrInvalidID,
	featureflagdomain.ErrInvalidKey,
	featureflagdomain.ErrInvalidName,
	featureflagdomain.ErrInvalidSpeakerID,
	plandomain.ErrInvalidID,
	plandomain.ErrInvalidName,
	plandomain.ErrInvalidLimitName,
	plandomain.ErrInvalidLimitValue,
	plandomain.ErrInvalidFeatureKey,
	subscriptiondomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidSpeakerID,
	subscriptiondomain.ErrInvalidPlanID,
	subscriptiondomain.ErrInvalidStatus,
}

var conflictErrors = []error{
	ErrConflict,
	speakerdomain.ErrSlugTaken,
	featureflagdomain.ErrKeyExists,
	plandomain.ErrNameExists,
	subscriptiondomain.ErrActiveSubscriptionExists,
	subscriptiondomain.ErrInvalidTransition,
	subscriptiondomain.ErrSubscriptionNotChangeable,
	subscriptiondomain.ErrPlanInactive,
}

var notFoundErrors = []error{
	ErrNotFound,
	speakerdomain.ErrNotFound,
	featureflagdomain.ErrNotFound,
	featureflagdomain.ErrSpeakerNotFound,
	featureflagdomain.ErrOverrideNotFound,
	plandomain.ErrNotFound,
	plandomain.ErrFeatureNotFound,
	subscriptiondomain.ErrNotFound,
	subscriptiondomain.ErrSpeakerNotFound,
	subscriptiondomain.ErrPlanNotFound,
	gorm.ErrRecordNotFound,
}

func isValidationError(err error) bool {
	return matchAny(err, validationErrors)
}

func isConflictError(err error) bool {
	return matchAny(err, conflictErrors)
}

func isNotFoundError(err error) bool {
	return matchAny(err, notFoundErrors)
}

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func conflictMessage(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "conflict"
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
