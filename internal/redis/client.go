package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Restaurant slug lookups are cached since every public order request
// resolves one.
func (c *Client) CacheRestaurantID(slug string, id uint, ttl time.Duration) error {
	ctx := context.Background()
	return c.rdb.Set(ctx, "restaurant:slug:"+slug, id, ttl).Err()
}

func (c *Client) GetCachedRestaurantID(slug string) (uint, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "restaurant:slug:"+slug).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("restaurant slug not cached")
		}
		return 0, fmt.Errorf("failed to get cached restaurant: %w", err)
	}
	return uint(val), nil
}

// SeenWebhookEvent is the fast-path dedup check for webhook deliveries.
// The database dedup table stays the source of truth; this only
// short-circuits hot retries.
func (c *Client) SeenWebhookEvent(eventID string) (bool, error) {
	ctx := context.Background()
	n, err := c.rdb.Exists(ctx, "webhook:event:"+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return n > 0, nil
}

// MarkWebhookEvent is called after an event was fully applied, so a
// processing failure still gets retried by the provider.
func (c *Client) MarkWebhookEvent(eventID string, ttl time.Duration) error {
	ctx := context.Background()
	return c.rdb.Set(ctx, "webhook:event:"+eventID, 1, ttl).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
