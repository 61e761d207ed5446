package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Locker hands out short-lived exclusive locks keyed by name.
type Locker struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewLocker(client *goredis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// TryLock acquires name without waiting. The returned release func is safe to
// call after the lock expired or was taken over; it reports only Redis failures.
func (l *Locker) TryLock(ctx context.Context, name string) (bool, func() error, error) {
	key := lockKeyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return false, func() error { return nil }, err
	}

	release := func() error {
		// the caller's ctx may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return true, release, nil
}
