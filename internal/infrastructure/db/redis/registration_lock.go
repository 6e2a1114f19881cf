package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

const (
	lockPrefix     = "reglock:"
	defaultLockTTL = 10 * time.Second
)

// releaseScript deletes a lock key only if it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RegistrationLock implements ports.RegistrationLock with one SET NX key per
// email or phone. Keys expire after ttl so a crashed holder cannot wedge an
// identifier.
// Key format: reglock:<email:...|phone:...>
type RegistrationLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRegistrationLock(client *redis.Client, ttl time.Duration) *RegistrationLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RegistrationLock{client: client, ttl: ttl}
}

// Acquire takes every key or none. It returns domain.ErrRegistrationInProgress
// when any key is already held.
func (l *RegistrationLock) Acquire(ctx context.Context, keys ...string) (func(), error) {
	owner := ulid.Make().String()
	held := make([]string, 0, len(keys))

	release := func() {
		// Release must outlive a cancelled request context.
		rctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		for _, k := range held {
			_ = releaseScript.Run(rctx, l.client, []string{k}, owner).Err()
		}
	}

	for _, key := range keys {
		k := lockKey(key)
		ok, err := l.client.SetNX(ctx, k, owner, l.ttl).Result()
		if err != nil {
			release()
			return func() {}, fmt.Errorf("registration lock: %w", err)
		}
		if !ok {
			release()
			return func() {}, domain.ErrRegistrationInProgress
		}
		held = append(held, k)
	}
	return release, nil
}

func lockKey(key string) string {
	return lockPrefix + key
}
