package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const maxJitter = 5 * time.Minute

func NewRedisPriceCache(client *redis.Client, baseTTL time.Duration) *RedisPriceCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisPriceCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisPriceCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisPriceCache) Get(ctx context.Context, productID string) (decimal.Decimal, error) {
	raw, err := r.client.Get(ctx, cacheKey(productID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, ErrCacheMiss
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("redis get failed: %w", err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse cached price failed: %w", err)
	}
	return price, nil
}

// Set stores the price with the base TTL plus up to five minutes of jitter
// so entries written together do not expire together.
func (r *RedisPriceCache) Set(ctx context.Context, productID string, price decimal.Decimal) error {
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	if err := r.client.Set(ctx, cacheKey(productID), price.String(), r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisPriceCache) Delete(ctx context.Context, productID string) error {
	if err := r.client.Del(ctx, cacheKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(productID string) string {
	return fmt.Sprintf("price:%s", productID)
}
