package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLocker takes the lock with SET NX PX so several service instances
// share one lock per screening.  The TTL bounds how long a crashed holder
// blocks a screening.
type RedisLocker struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	retry    time.Duration
	newToken func() string
}

func NewRedisLocker(rdb redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		rdb:      rdb,
		ttl:      ttl,
		retry:    25 * time.Millisecond,
		newToken: func() string { return uuid.NewString() },
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := l.newToken()
	redisKey := "lock:" + key
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "acquire %s", redisKey)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release even when the caller's context is already cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.rdb.Eval(rctx, releaseScript, []string{redisKey}, token).Err(); err != nil {
			slog.Warn("lock release failed", "key", redisKey, "error", err)
		}
	}, nil
}
