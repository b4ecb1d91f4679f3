package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxLocalKeys = 10000

// localBuckets is the per-process token bucket used when no redis is
// configured. Limits then apply per instance rather than cluster-wide.
type localBuckets struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newLocalBuckets(rps float64, burst int) *localBuckets {
	return &localBuckets{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (b *localBuckets) Allow(key string) *RateLimitResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	lim, ok := b.limiters[key]
	if !ok {
		if len(b.limiters) >= maxLocalKeys {
			b.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(b.limit, b.burst)
		b.limiters[key] = lim
	}

	now := b.now()
	if lim.AllowN(now, 1) {
		return &RateLimitResult{
			Allowed:   true,
			Limit:     b.burst,
			Remaining: int(lim.TokensAt(now)),
			ResetTime: now,
		}
	}

	wait := time.Duration((1 - lim.TokensAt(now)) / float64(b.limit) * float64(time.Second))
	if wait < 0 {
		wait = 0
	}
	return &RateLimitResult{
		Allowed:    false,
		Limit:      b.burst,
		Remaining:  0,
		ResetTime:  now.Add(wait),
		RetryAfter: wait,
	}
}
