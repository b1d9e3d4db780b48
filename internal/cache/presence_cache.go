package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks which room a player identity is currently in.
// The in-memory registry stays authoritative; this mirror feeds
// dashboards and post-restart resumption hints.
type PresenceCache interface {
	Set(ctx context.Context, playerID, roomCode string) error
	Clear(ctx context.Context, playerID string) error
	Get(ctx context.Context, playerID string) (string, error)
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    6 * time.Hour,
	}
}

func (c *presenceCache) Set(ctx context.Context, playerID, roomCode string) error {
	return c.client.Set(ctx, "presence:"+playerID, roomCode, c.ttl).Err()
}

func (c *presenceCache) Clear(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, "presence:"+playerID).Err()
}

func (c *presenceCache) Get(ctx context.Context, playerID string) (string, error) {
	code, err := c.client.Get(ctx, "presence:"+playerID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}
