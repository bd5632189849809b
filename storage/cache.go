package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pricepipe/models"
)

// ErrCacheMiss is returned when no recommendations are cached for a day.
var ErrCacheMiss = errors.New("cache miss")

const recommendationKeyPrefix = "recommendations:"

// RecommendationCache keeps each day's recommendation view in Redis so the
// read API does not hit PostgreSQL for every request.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecommendationCache connects to Redis and verifies the connection.
func NewRecommendationCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RecommendationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	return NewRecommendationCacheFromClient(client, ttl), nil
}

// NewRecommendationCacheFromClient wraps an existing client.
func NewRecommendationCacheFromClient(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

func recommendationKey(day time.Time) string {
	return recommendationKeyPrefix + day.Format(time.DateOnly)
}

// Get returns the cached view for day or ErrCacheMiss.
func (c *RecommendationCache) Get(ctx context.Context, day time.Time) ([]models.RecommendationView, error) {
	data, err := c.client.Get(ctx, recommendationKey(day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: get recommendations: %w", err)
	}

	var recs []models.RecommendationView
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("redis: decode recommendations: %w", err)
	}
	return recs, nil
}

// Set stores the view for day with the cache TTL.
func (c *RecommendationCache) Set(ctx context.Context, day time.Time, recs []models.RecommendationView) error {
	if recs == nil {
		recs = []models.RecommendationView{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("redis: encode recommendations: %w", err)
	}
	if err := c.client.Set(ctx, recommendationKey(day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set recommendations: %w", err)
	}
	return nil
}

// Invalidate drops the cached view for day.
func (c *RecommendationCache) Invalidate(ctx context.Context, day time.Time) error {
	if err := c.client.Del(ctx, recommendationKey(day)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate recommendations: %w", err)
	}
	return nil
}

// Fill stores the view for day only when none is cached, so a reader that
// queried before a run committed cannot replace the run's fresh view. It
// reports whether the view was written.
func (c *RecommendationCache) Fill(ctx context.Context, day time.Time, recs []models.RecommendationView) (bool, error) {
	if recs == nil {
		recs = []models.RecommendationView{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return false, fmt.Errorf("redis: encode recommendations: %w", err)
	}
	ok, err := c.client.SetNX(ctx, recommendationKey(day), data, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: fill recommendations: %w", err)
	}
	return ok, nil
}

// InvalidateAll drops the cached view of every day and returns how many keys
// were removed.
func (c *RecommendationCache) InvalidateAll(ctx context.Context) (int64, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, recommendationKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis: scan recommendations: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: invalidate recommendations: %w", err)
	}
	return n, nil
}

func (c *RecommendationCache) Close() error {
	return c.client.Close()
}
