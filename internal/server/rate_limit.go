package server

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/fanflet/fanflet/internal/observability/logger"
	obsmetrics "github.com/fanflet/fanflet/internal/observability/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rateLimitReasonSpeakerRate = "speaker-rate"

// SpeakerRateLimit applies the per-speaker token bucket to entitlement reads.
func (s *Server) SpeakerRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.speakerLimiter == nil || !s.speakerLimiter.Enabled() {
			c.Next()
			return
		}

		speakerID, err := speakerFromActor(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		endpoint := c.FullPath()
		ctx := c.Request.Context()

		res, err := s.speakerLimiter.AllowSpeaker(ctx, speakerID)
		if err != nil {
			logger.FromContext(ctx).Warn("entitlement rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			denyRateLimit(c, endpoint, rateLimitReasonSpeakerRate, res.RetryAfter, s.obsMetrics)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyRateLimit(c *gin.Context, endpoint, reason string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("entitlement rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}
