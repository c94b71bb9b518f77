package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "qitt:lock:"

// Locker guards a fan-out so that only one caller runs it per key while the
// lease is held.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error)
}

type Lease interface {
	Unlock(ctx context.Context) error
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lease cannot remove a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLock struct {
	client redis.UniversalClient
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLock{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient) *RedisLock {
	return &RedisLock{client: client}
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	const op = "lock.RedisLock.Lock"

	lease := &redisLease{client: r.client, key: keyPrefix + key, token: uuid.NewString()}

	ok, err := r.client.SetNX(ctx, lease.key, lease.token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, false, nil
	}

	return lease, true, nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLease) Unlock(ctx context.Context) error {
	const op = "lock.redisLease.Unlock"

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
