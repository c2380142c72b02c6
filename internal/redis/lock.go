package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a key stays locked for the whole wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

const (
	lockKeyPrefix     = "lock:"
	lockRetryInterval = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired lock taken over by another owner is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out exclusive, expiring locks on string keys.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLockStore creates a new LockStore. Locks expire after ttl; Lock gives up
// after wait.
func NewLockStore(client *redis.Client, ttl, wait time.Duration) *LockStore {
	return &LockStore{client: client, ttl: ttl, wait: wait}
}

// Lock blocks until key is acquired, the wait elapses or ctx is done.
// The returned release function is safe to call once.
func (s *LockStore) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(s.wait)

	for {
		ok, err := s.client.SetNX(ctx, redisKey, token, s.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, s.client, []string{redisKey}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
