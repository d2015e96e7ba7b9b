package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hotelbooking/internal/domain"

	"github.com/go-redis/redis/v8"
)

const (
	roomTypesKey    = "catalog:room_types"
	DefaultCacheTTL = 5 * time.Minute
)

// Cache holds the price-ordered room type list.
type Cache interface {
	GetRoomTypes(ctx context.Context) ([]domain.RoomType, bool, error)
	SetRoomTypes(ctx context.Context, items []domain.RoomType) error
	Invalidate(ctx context.Context) error
}

type NoopCache struct{}

func (NoopCache) GetRoomTypes(context.Context) ([]domain.RoomType, bool, error) { return nil, false, nil }
func (NoopCache) SetRoomTypes(context.Context, []domain.RoomType) error        { return nil }
func (NoopCache) Invalidate(context.Context) error                             { return nil }

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetRoomTypes(ctx context.Context) ([]domain.RoomType, bool, error) {
	value, err := c.client.Get(ctx, roomTypesKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []domain.RoomType
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (c *RedisCache) SetRoomTypes(ctx context.Context, items []domain.RoomType) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomTypesKey, payload, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, roomTypesKey).Err()
}
