package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache keeps rendered leaderboard pages in Redis for a short
// TTL. It is best-effort: an unconfigured or unreachable Redis degrades to
// cache misses, never to request failures.
type LeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLeaderboardCache connects to Redis when a URL is configured. An empty
// URL yields a disabled cache.
func NewLeaderboardCache(redisURL string, ttl time.Duration) *LeaderboardCache {
	if redisURL == "" {
		return &LeaderboardCache{ttl: ttl}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[Leaderboard] Invalid REDIS_URL, cache disabled: %v", err)
		return &LeaderboardCache{ttl: ttl}
	}

	return &LeaderboardCache{rdb: redis.NewClient(opts), ttl: ttl}
}

func cacheKey(page, limit int) string {
	return fmt.Sprintf("leaderboard:%d:%d", page, limit)
}

// Get returns a cached page payload, if present.
func (c *LeaderboardCache) Get(ctx context.Context, page, limit int) ([]byte, bool) {
	if c.rdb == nil {
		return nil, false
	}

	payload, err := c.rdb.Get(ctx, cacheKey(page, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Leaderboard] Cache read failed: %v", err)
		}
		return nil, false
	}

	return payload, true
}

// Set stores a page payload under the configured TTL.
func (c *LeaderboardCache) Set(ctx context.Context, page, limit int, payload []byte) {
	if c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, cacheKey(page, limit), payload, c.ttl).Err(); err != nil {
		log.Printf("[Leaderboard] Cache write failed: %v", err)
	}
}
