package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hris:lock"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisLocker is a SETNX lock with a per-holder token.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

var _ reconciliation.RunLocker = (*RedisLocker)(nil)

// Key namespaces parts under the lock prefix.
func Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(keyPrefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

// Acquire implements reconciliation.RunLocker. The lock expires after ttl even
// if release is never called.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	fullKey := Key(key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", fullKey, err)
		}
		return nil
	}
	return release, true, nil
}
