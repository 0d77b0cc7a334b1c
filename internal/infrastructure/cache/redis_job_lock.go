package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// releaseScript deletes the lock key only when this process still owns it,
// so a run that outlived its TTL cannot release a lock re-acquired by
// another instance.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisJobLock serializes job runs per configuration across instances using
// SETNX with a TTL. Suitable for distributed deployments where triggers can
// land on any instance.
type RedisJobLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisJobLock creates a new Redis-backed job lock
func NewRedisJobLock(cfg RedisConfig, ttl time.Duration) (*RedisJobLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisJobLock{
		client:    client,
		keyPrefix: "sync:job_lock:",
		ttl:       ttl,
	}, nil
}

// NewRedisJobLockWithClient creates a lock with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisJobLockWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisJobLock {
	if keyPrefix == "" {
		keyPrefix = "sync:job_lock:"
	}
	return &RedisJobLock{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// TryLock acquires the configuration's lock atomically via SETNX, failing
// fast with sync.ErrJobAlreadyRunning when another run holds it.
func (l *RedisJobLock) TryLock(ctx context.Context, configID uuid.UUID) (func(), error) {
	key := l.keyPrefix + configID.String()
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync job lock: %w", err)
	}
	if !acquired {
		return nil, syncdomain.ErrJobAlreadyRunning
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Release must not be cut short by the job's own context
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}
	return release, nil
}

// Close closes the Redis client
func (l *RedisJobLock) Close() error {
	return l.client.Close()
}
