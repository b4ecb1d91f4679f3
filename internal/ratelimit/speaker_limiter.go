package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fanflet/fanflet/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyEntitlementSpeaker = "entitlement:speaker:%s"

// SpeakerLimiter throttles entitlement reads per speaker.
type SpeakerLimiter struct {
	enabled bool
	bucket  *TokenBucket
	local   *localBuckets
	rate    float64
	burst   int
}

// NewSpeakerLimiter returns nil when rate limiting is disabled; a nil limiter
// allows everything. Without a redis client the buckets live in process.
func NewSpeakerLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) (*SpeakerLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if limitCfg.RPS <= 0 || limitCfg.Burst <= 0 {
		return nil, errors.New("entitlement rate limit must be positive")
	}

	limiter := &SpeakerLimiter{
		enabled: true,
		rate:    limitCfg.RPS,
		burst:   limitCfg.Burst,
	}
	if client == nil {
		if log != nil {
			log.Named("ratelimit").Warn("redis not configured, using per-instance rate limits")
		}
		limiter.local = newLocalBuckets(limitCfg.RPS, limitCfg.Burst)
		return limiter, nil
	}
	limiter.bucket = NewTokenBucket(client)
	return limiter, nil
}

func (l *SpeakerLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *SpeakerLimiter) AllowSpeaker(ctx context.Context, speakerID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyEntitlementSpeaker, strings.TrimSpace(speakerID))
	if l.local != nil {
		return l.local.Allow(key), nil
	}
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
