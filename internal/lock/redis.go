package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so a lock
// whose lease expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process connected to the same Redis.
// Locks are leases: a holder that dies releases its lock when the TTL runs out.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker connects to redisURL and returns a locker with the given lease TTL.
func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLockerWithClient(client, ttl), nil
}

// NewRedisLockerWithClient creates a locker from an existing Redis client.
func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: "stepsquad:lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

// Lock polls SET NX until the key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the request context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			// On failure the lease expires on its own.
			_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
		})
	}, nil
}

// Ping checks the Redis connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
