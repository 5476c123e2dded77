package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "fishscout:analysis:"

// AnalysisCache remembers analyzer output for a given data set so repeated
// analyze calls skip the AI round trip.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalysisCache connects to addr and checks the connection
func NewAnalysisCache(ctx context.Context, addr string, ttl time.Duration) (*AnalysisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnalysisCache{client: client, ttl: ttl}, nil
}

// CacheKey derives a key from the provider, model and listings
func CacheKey(provider, model string, listings []models.Listing) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	data, _ := json.Marshal(listings)
	h.Write(data)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached recommendations; ok is false on a miss.
func (c *AnalysisCache) Get(ctx context.Context, key string) ([]models.Recommendation, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var recs []models.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return recs, true, nil
}

// Set stores recommendations under key for the cache TTL
func (c *AnalysisCache) Set(ctx context.Context, key string, recs []models.Recommendation) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Close releases the redis connection
func (c *AnalysisCache) Close() error {
	return c.client.Close()
}
