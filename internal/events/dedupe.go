package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/dripline/internal/config"
)

// DefaultDedupeTTL is how long a seen event id is remembered.
const DefaultDedupeTTL = 24 * time.Hour

// Deduper reports whether an event id has been processed before. First
// reports true exactly once per id within the retention period.
type Deduper interface {
	First(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

// First claims the id with SET NX. An empty id is never de-duplicated.
func (d *RedisDeduper) First(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, d.key(eventID), time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe %s: %w", eventID, err)
	}
	return ok, nil
}

// Forget releases an id so a failed event can be processed on redelivery.
func (d *RedisDeduper) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return d.client.Del(ctx, d.key(eventID)).Err()
}

func (d *RedisDeduper) key(eventID string) string {
	return d.prefix + eventID
}

// NoDedupe lets every event through. Handlers stay correct without it
// because replying twice is a no-op on the participant.
type NoDedupe struct{}

func (NoDedupe) First(context.Context, string) (bool, error) { return true, nil }
func (NoDedupe) Forget(context.Context, string) error        { return nil }
