package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:top"

// LeaderboardCache keeps the rendered top-N page in redis so the hot
// read does not hit Postgres on every pull.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

func (c *LeaderboardCache) GetTop(ctx context.Context) ([]byte, error) {
	val, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *LeaderboardCache) SetTop(ctx context.Context, payload []byte) error {
	// Short TTL; rank writes also invalidate eagerly.
	return c.client.Set(ctx, leaderboardKey, payload, 30*time.Second).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardKey).Err()
}
