// Package dedup drops webhook updates the platform delivers more than once.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// redisAPI is the subset of *redis.Client the guard calls.
type redisAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Guard remembers update ids for ttl.
type Guard struct {
	client redisAPI
	prefix string
	ttl    time.Duration
}

func New(client redisAPI, prefix string, ttl time.Duration) (*Guard, error) {
	if client == nil {
		return nil, errors.New("dedup: redis client must not be nil")
	}
	if prefix == "" {
		return nil, errors.New("dedup: key prefix must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Guard{client: client, prefix: prefix, ttl: ttl}, nil
}

// NewRedis dials addr lazily; the first command opens the connection.
func NewRedis(addr, prefix string, ttl time.Duration) (*Guard, error) {
	if addr == "" {
		return nil, errors.New("dedup: redis address must not be empty")
	}
	return New(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

func (g *Guard) key(updateID int64) string {
	return fmt.Sprintf("%s:update:%d", g.prefix, updateID)
}

// First reports whether updateID is seen for the first time and marks it.
func (g *Guard) First(ctx context.Context, updateID int64) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(updateID), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: mark update %d: %w", updateID, err)
	}
	return ok, nil
}
