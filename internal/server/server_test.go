package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fanflet/fanflet/internal/authorization"
	"github.com/fanflet/fanflet/internal/config"
	entitlementdomain "github.com/fanflet/fanflet/internal/entitlement/domain"
	"github.com/fanflet/fanflet/internal/observability"
	"github.com/fanflet/fanflet/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type hasFeatureCall struct {
	speakerID  string
	featureKey string
}

type fakeEntitlementService struct {
	enabled     bool
	limits      entitlementdomain.Limits
	explanation *entitlementdomain.Explanation
	err         error

	hasFeatureCalls []hasFeatureCall
	limitCalls      []string
}

func (f *fakeEntitlementService) HasFeature(ctx context.Context, speakerID, featureKey string) (bool, error) {
	f.hasFeatureCalls = append(f.hasFeatureCalls, hasFeatureCall{speakerID: speakerID, featureKey: featureKey})
	return f.enabled, f.err
}

func (f *fakeEntitlementService) GetSpeakerLimits(ctx context.Context, speakerID string) (entitlementdomain.Limits, error) {
	f.limitCalls = append(f.limitCalls, speakerID)
	return f.limits, f.err
}

func (f *fakeEntitlementService) Explain(ctx context.Context, speakerID, featureKey string) (*entitlementdomain.Explanation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.explanation, nil
}

func newTestAuthz(t *testing.T) authorization.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"-authz?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	return authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func newTestServer(t *testing.T, ent entitlementdomain.Service, limiter *ratelimit.SpeakerLimiter) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := NewServer(ServerParams{
		Gin:            NewEngine(observability.Config{}, nil),
		Cfg:            config.Config{},
		AuthzSvc:       newTestAuthz(t),
		EntitlementSvc: ent,
		SpeakerLimiter: limiter,
	})
	s.RegisterDashboardRoutes()
	s.RegisterAdminRoutes()
	return s
}

func doRequest(s *Server, method, path, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if actor != "" {
		req.Header.Set(HeaderActor, actor)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHasFeatureUsesCallingSpeaker(t *testing.T) {
	ent := &fakeEntitlementService{enabled: true}
	s := newTestServer(t, ent, nil)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "speaker:101")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"feature_key":"custom_expiration","enabled":true}}`, w.Body.String())
	assert.Equal(t, []hasFeatureCall{{speakerID: "101", featureKey: "custom_expiration"}}, ent.hasFeatureCalls)
}

func TestHasFeatureDenialIsOK(t *testing.T) {
	s := newTestServer(t, &fakeEntitlementService{enabled: false}, nil)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/features/survey_questions", "speaker:101")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"feature_key":"survey_questions","enabled":false}}`, w.Body.String())
}

func TestDashboardRequiresActor(t *testing.T) {
	ent := &fakeEntitlementService{}
	s := newTestServer(t, ent, nil)

	for _, actor := range []string{"", "speaker:", "user:5", "speaker:abc"} {
		w := doRequest(s, http.MethodGet, "/api/v1/entitlements/limits", actor)
		assert.Equal(t, http.StatusUnauthorized, w.Code, actor)
	}
	assert.Empty(t, ent.limitCalls)
}

func TestDashboardRejectsAdminActor(t *testing.T) {
	ent := &fakeEntitlementService{}
	s := newTestServer(t, ent, nil)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "admin:7")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, ent.hasFeatureCalls)
}

func TestAdminRoutesRejectSpeakerActor(t *testing.T) {
	s := newTestServer(t, &fakeEntitlementService{}, nil)

	w := doRequest(s, http.MethodGet, "/admin/v1/speakers/101/entitlements/custom_expiration/explain", "speaker:101")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(s, http.MethodDelete, "/admin/v1/speakers/101/overrides/custom_expiration", "speaker:101")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeEntitlementService{enabled: true, err: errors.New("connection refused")}, nil)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "speaker:101")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body.Error.Type)
	assert.NotContains(t, w.Body.String(), "enabled")
}

func TestLimitsRendering(t *testing.T) {
	ent := &fakeEntitlementService{}
	s := newTestServer(t, ent, nil)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/limits", "speaker:101")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"limits":null}}`, w.Body.String())

	ent.limits = entitlementdomain.Limits{}
	w = doRequest(s, http.MethodGet, "/api/v1/entitlements/limits", "speaker:101")
	assert.JSONEq(t, `{"data":{"limits":{}}}`, w.Body.String())

	ent.limits = entitlementdomain.Limits{"max_fanflets": 3}
	w = doRequest(s, http.MethodGet, "/api/v1/entitlements/limits", "speaker:101")
	assert.JSONEq(t, `{"data":{"limits":{"max_fanflets":3}}}`, w.Body.String())

	assert.Equal(t, []string{"101", "101", "101"}, ent.limitCalls)
}

func TestAdminExplain(t *testing.T) {
	override := true
	ent := &fakeEntitlementService{explanation: &entitlementdomain.Explanation{
		SpeakerID:  "101",
		FeatureKey: "custom_expiration",
		Enabled:    true,
		Decision:   "override_enabled",
		FlagID:     "9",
		Override:   &override,
	}}
	s := newTestServer(t, ent, nil)

	w := doRequest(s, http.MethodGet, "/admin/v1/speakers/101/entitlements/custom_expiration/explain", "admin:7")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data entitlementdomain.Explanation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "override_enabled", body.Data.Decision)
	assert.True(t, body.Data.Enabled)
}

func TestSpeakerRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := ratelimit.NewSpeakerLimiter(config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1},
	}, client, zap.NewNop())
	require.NoError(t, err)

	ent := &fakeEntitlementService{enabled: true}
	s := newTestServer(t, ent, limiter)

	w := doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "speaker:101")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "speaker:101")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, rateLimitReasonSpeakerRate, w.Header().Get("X-Rate-Limited-Reason"))

	w = doRequest(s, http.MethodGet, "/api/v1/entitlements/features/custom_expiration", "speaker:202")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, ent.hasFeatureCalls, 2)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeEntitlementService{}, nil)
	w := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
