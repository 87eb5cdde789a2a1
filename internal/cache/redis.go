package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/config"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// RedisCache caches the featured-review aggregation. All methods are safe on
// a nil receiver, so callers can wire a nil cache to run without Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache from config. Returns nil when no Redis
// address is configured.
func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	if cfg.Address == "" {
		return nil
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}),
		ttl:    cfg.TTL,
	}
}

// GetFeaturedReviews returns the cached aggregation, or (nil, nil) on a miss.
func (c *RedisCache) GetFeaturedReviews(ctx context.Context) ([]models.FeaturedReview, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, featuredReviewsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var reviews []models.FeaturedReview
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SetFeaturedReviews stores the aggregation with the configured TTL.
func (c *RedisCache) SetFeaturedReviews(ctx context.Context, reviews []models.FeaturedReview) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(reviews)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, featuredReviewsKey(), payload, c.ttl).Err()
}

// InvalidateFeaturedReviews drops the cached aggregation after a review is
// created or deleted.
func (c *RedisCache) InvalidateFeaturedReviews(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, featuredReviewsKey()).Err()
}

// Ping reports whether the cache backend is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func featuredReviewsKey() string {
	return "cache:reviews:five-star"
}
