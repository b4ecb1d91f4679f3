package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fanflet/fanflet/internal/authorization"
	"github.com/fanflet/fanflet/internal/config"
	entitlementdomain "github.com/fanflet/fanflet/internal/entitlement/domain"
	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	"github.com/fanflet/fanflet/internal/observability"
	obsmiddleware "github.com/fanflet/fanflet/internal/observability/logger"
	obsmetrics "github.com/fanflet/fanflet/internal/observability/metrics"
	obstracing "github.com/fanflet/fanflet/internal/observability/tracing"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/fanflet/fanflet/internal/ratelimit"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.ServerSpans())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

// RunHTTP serves the engine on the configured address for the app lifetime.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	authzSvc        authorization.Service
	entitlementSvc  entitlementdomain.Service
	featureFlagSvc  featureflagdomain.Service
	planSvc         plandomain.Service
	speakerSvc      speakerdomain.Service
	subscriptionSvc subscriptiondomain.Service
	obsMetrics      *obsmetrics.Metrics
	speakerLimiter  *ratelimit.SpeakerLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AuthzSvc        authorization.Service
	EntitlementSvc  entitlementdomain.Service
	FeatureFlagSvc  featureflagdomain.Service
	PlanSvc         plandomain.Service
	SpeakerSvc      speakerdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	ObsMetrics      *obsmetrics.Metrics       `optional:"true"`
	SpeakerLimiter  *ratelimit.SpeakerLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authzSvc:        p.AuthzSvc,
		entitlementSvc:  p.EntitlementSvc,
		featureFlagSvc:  p.FeatureFlagSvc,
		planSvc:         p.PlanSvc,
		speakerSvc:      p.SpeakerSvc,
		subscriptionSvc: p.SubscriptionSvc,
		obsMetrics:      p.ObsMetrics,
		speakerLimiter:  p.SpeakerLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterDashboardRoutes mounts the speaker-facing entitlement reads.
func (s *Server) RegisterDashboardRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.ActorRequired())

	api.GET("/entitlements/features/:key",
		s.authorize(authorization.ObjectEntitlement, authorization.ActionEntitlementCheck),
		s.SpeakerRateLimit(),
		s.HasFeature,
	)
	api.GET("/entitlements/limits",
		s.authorize(authorization.ObjectEntitlement, authorization.ActionEntitlementCheck),
		s.SpeakerRateLimit(),
		s.GetSpeakerLimits,
	)
}

// RegisterAdminRoutes mounts catalog, override and subscription management.
func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin/v1")
	admin.Use(s.ActorRequired())

	// -------- Feature flags --------
	admin.GET("/feature-flags", s.authorize(authorization.ObjectFeatureFlag, authorization.ActionFeatureFlagView), s.ListFeatureFlags)
	admin.POST("/feature-flags", s.authorize(authorization.ObjectFeatureFlag, authorization.ActionFeatureFlagCreate), s.CreateFeatureFlag)
	admin.PATCH("/feature-flags/:id", s.authorize(authorization.ObjectFeatureFlag, authorization.ActionFeatureFlagUpdate), s.UpdateFeatureFlag)

	// -------- Plans --------
	admin.GET("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionPlanView), s.ListPlans)
	admin.POST("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionPlanCreate), s.CreatePlan)
	admin.GET("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionPlanView), s.GetPlan)
	admin.PATCH("/plans/:id/limits", s.authorize(authorization.ObjectPlan, authorization.ActionPlanUpdate), s.UpdatePlanLimits)
	admin.GET("/plans/:id/features", s.authorize(authorization.ObjectPlan, authorization.ActionPlanView), s.ListPlanFeatures)
	admin.PUT("/plans/:id/features", s.authorize(authorization.ObjectPlan, authorization.ActionPlanUpdate), s.ReplacePlanFeatures)

	// -------- Speakers --------
	admin.POST("/speakers", s.authorize(authorization.ObjectSpeaker, authorization.ActionSpeakerCreate), s.CreateSpeaker)
	admin.GET("/speakers/:id", s.authorize(authorization.ObjectSpeaker, authorization.ActionSpeakerView), s.GetSpeaker)
	admin.GET("/speakers/:id/overrides", s.authorize(authorization.ObjectOverride, authorization.ActionOverrideView), s.ListOverrides)
	admin.PUT("/speakers/:id/overrides/:key", s.authorize(authorization.ObjectOverride, authorization.ActionOverrideSet), s.SetOverride)
	admin.DELETE("/speakers/:id/overrides/:key", s.authorize(authorization.ObjectOverride, authorization.ActionOverrideClear), s.ClearOverride)
	admin.GET("/speakers/:id/subscriptions", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.ListSpeakerSubscriptions)
	admin.GET("/speakers/:id/limits", s.authorize(authorization.ObjectEntitlement, authorization.ActionEntitlementCheck), s.GetSpeakerLimitsForAdmin)
	admin.GET("/speakers/:id/entitlements/:key/explain", s.authorize(authorization.ObjectEntitlement, authorization.ActionEntitlementExplain), s.ExplainEntitlement)

	// -------- Subscriptions --------
	admin.POST("/subscriptions", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionCreate), s.CreateSubscription)
	admin.GET("/subscriptions/:id", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.GetSubscription)
	admin.POST("/subscriptions/:id/transition", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionTransition), s.TransitionSubscription)
	admin.POST("/subscriptions/:id/change-plan", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionChangePlan), s.ChangeSubscriptionPlan)
}
