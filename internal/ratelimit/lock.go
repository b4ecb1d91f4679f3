package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockHeld    = errors.New("lock_held")
	ErrLockKey     = errors.New("lock key is empty")
	ErrLockTTL     = errors.New("lock ttl must be positive")
	releaseIfOwner = redis.NewScript(`
local owner = redis.call("GET", KEYS[1])
if owner ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`)
)

// Locker hands out expiring leases on redis keys. A nil Locker hands out
// no-op leases, which is what a single instance without redis needs.
type Locker struct {
	client redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

// Lease is a held lock. It expires on its own after the ttl it was acquired
// with; Release ends it early.
type Lease struct {
	client redis.UniversalClient
	key    string
	owner  string
}

// Acquire takes key for ttl or fails with ErrLockHeld.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if key == "" {
		return nil, ErrLockKey
	}
	if ttl <= 0 {
		return nil, ErrLockTTL
	}
	if l == nil || l.client == nil {
		return &Lease{key: key}, nil
	}

	owner := uuid.NewString()
	err := l.client.SetArgs(ctx, key, owner, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrLockHeld
	case err != nil:
		return nil, err
	}
	return &Lease{client: l.client, key: key, owner: owner}, nil
}

// Release deletes the key only while this lease still owns it, so an expired
// lease never frees a lock someone else has since taken.
func (ls *Lease) Release(ctx context.Context) error {
	if ls == nil || ls.client == nil {
		return nil
	}
	return releaseIfOwner.Run(ctx, ls.client, []string{ls.key}, ls.owner).Err()
}
