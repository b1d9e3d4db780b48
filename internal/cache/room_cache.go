package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impostorparty/internal/model"

	"github.com/redis/go-redis/v9"
)

// RoomCache mirrors live room records into Redis for fast lookup and
// cross-process visibility. Best-effort only.
type RoomCache interface {
	Set(ctx context.Context, rec *model.RoomRecord) error
	Get(ctx context.Context, code string) (*model.RoomRecord, error)
	Delete(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room cache.
func NewRoomCache(client *redis.Client) RoomCache {
	return &roomCache{
		client: client,
		ttl:    24 * time.Hour, // abandoned rooms age out on their own
	}
}

func (c *roomCache) key(code string) string {
	return fmt.Sprintf("room:%s", code)
}

func (c *roomCache) Set(ctx context.Context, rec *model.RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(rec.Code), data, c.ttl).Err()
}

func (c *roomCache) Get(ctx context.Context, code string) (*model.RoomRecord, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec model.RoomRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *roomCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}

func (c *roomCache) Exists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(code)).Result()
	return n > 0, err
}
