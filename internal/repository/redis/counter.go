package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterPrefix = "ratelimit:"

// Counter implements ratelimit.CounterStore on Redis, for deployments
// that need rate limiting consistent across instances. Keys carry the
// window start so a new window naturally starts a fresh counter.
type Counter struct {
	client *Client
}

// NewCounter creates a new Redis-backed counter store
func NewCounter(client *Client) *Counter {
	return &Counter{client: client}
}

// Incr implements ratelimit.CounterStore.
func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	windowStart := time.Now().Truncate(window).Unix()
	fullKey := fmt.Sprintf("%s%s:%d", counterPrefix, key, windowStart)

	pipe := c.client.rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("failed to execute rate limit increment: %w", err)
	}
	return incrCmd.Val(), nil
}
