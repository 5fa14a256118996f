package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
)

// RedisSlot stores each cart under "cart:<id>" as the raw JSON sequence.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlot returns a slot on client. A zero ttl keeps keys forever.
func NewRedisSlot(client *redis.Client, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, ttl: ttl}
}

func (r *RedisSlot) Load(ctx context.Context, cartID string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Save(ctx context.Context, cartID string, data []byte) error {
	if err := r.client.Set(ctx, redisKey(cartID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, redisKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func redisKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
