package rssfeeds

import (
	"context"
	"testing"
)

func TestLinkCacheNilIsDisabled(t *testing.T) {
	if cache := NewLinkCache("", ""); cache != nil {
		t.Fatal("empty address must disable the cache")
	}

	var cache *LinkCache
	if cache.Seen(context.Background(), "https://a.example/1") {
		t.Fatal("nil cache must read as not seen")
	}
	cache.Add(context.Background(), "https://a.example/1")
	if err := cache.Close(); err != nil {
		t.Fatalf("nil cache close failed: %v", err)
	}
}

func TestLinkCacheDegradesWhenRedisUnreachable(t *testing.T) {
	// Port 1 refuses connections; every call must fail soft.
	cache := NewLinkCache("127.0.0.1:1", "")
	if cache == nil {
		t.Fatal("configured cache must be constructed even when Redis is down")
	}
	defer cache.Close()

	ctx := context.Background()
	cache.Add(ctx, "https://a.example/1")
	if cache.Seen(ctx, "https://a.example/1") {
		t.Fatal("an unreachable Redis must read as not seen")
	}
}
