package rssfeeds

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenLinksKey = "articles:seen:links"

// LinkCache is an optional Redis-backed set of links already handled in
// previous runs. It is purely a fast path in front of the repository
// lookup; every operation degrades to "not seen" when Redis is down.
type LinkCache struct {
	client *redis.Client
}

// NewLinkCache connects to Redis at addr. A failed ping is logged and
// the cache stays usable; per-call errors degrade silently.
func NewLinkCache(addr, password string) *LinkCache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis at %s: %v. Link cache degraded.", addr, err)
	}

	return &LinkCache{client: client}
}

// Seen reports whether the link was recorded before. A nil cache or a
// Redis error reads as "not seen" so the repository check decides.
func (c *LinkCache) Seen(ctx context.Context, link string) bool {
	if c == nil {
		return false
	}

	seen, err := c.client.SIsMember(ctx, seenLinksKey, link).Result()
	if err != nil {
		return false
	}
	return seen
}

// Add records a link. Errors are logged and dropped.
func (c *LinkCache) Add(ctx context.Context, link string) {
	if c == nil {
		return
	}

	if err := c.client.SAdd(ctx, seenLinksKey, link).Err(); err != nil {
		log.Printf("Warning: failed to cache link %s: %v", link, err)
	}
}

// Close releases the Redis connection.
func (c *LinkCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
