// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package rendercache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnect(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := Connect(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestOutputCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	oc := NewOutputCache(client, time.Minute)
	ctx := context.Background()

	html := []byte("<h1>Hello World</h1>")
	oc.Set(ctx, "home", "digest-a", html)

	got, ok := oc.Get(ctx, "home", "digest-a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(html) {
		t.Errorf("cached html: got %q, want %q", got, html)
	}

	// A different digest is a different render.
	if _, ok := oc.Get(ctx, "home", "digest-b"); ok {
		t.Error("expected miss for different digest")
	}
	if _, ok := oc.Get(ctx, "other", "digest-a"); ok {
		t.Error("expected miss for different template")
	}
}

func TestOutputCacheInvalidateTemplate(t *testing.T) {
	client := testValkeyClient(t)
	oc := NewOutputCache(client, time.Minute)
	ctx := context.Background()

	oc.Set(ctx, "home", "digest-a", []byte("a"))
	oc.Set(ctx, "home", "digest-b", []byte("b"))
	oc.Set(ctx, "about", "digest-c", []byte("c"))

	oc.InvalidateTemplate(ctx, "home")

	if _, ok := oc.Get(ctx, "home", "digest-a"); ok {
		t.Error("expected home render a to be invalidated")
	}
	if _, ok := oc.Get(ctx, "home", "digest-b"); ok {
		t.Error("expected home render b to be invalidated")
	}
	if _, ok := oc.Get(ctx, "about", "digest-c"); !ok {
		t.Error("expected other template to stay cached")
	}
}

func TestOutputCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	oc := NewOutputCache(client, time.Minute)
	ctx := context.Background()

	oc.Set(ctx, "home", "digest-a", []byte("a"))
	oc.Set(ctx, "about", "digest-b", []byte("b"))

	oc.InvalidateAll(ctx)

	if _, ok := oc.Get(ctx, "home", "digest-a"); ok {
		t.Error("expected all renders invalidated")
	}
	if _, ok := oc.Get(ctx, "about", "digest-b"); ok {
		t.Error("expected all renders invalidated")
	}
}

func TestOutputCacheTTL(t *testing.T) {
	client := testValkeyClient(t)
	oc := NewOutputCache(client, time.Second)
	ctx := context.Background()

	oc.Set(ctx, "short", "digest", []byte("x"))

	ttl, err := client.TTL(ctx, cacheKey("short", "digest")).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Second {
		t.Errorf("ttl: got %v, want (0, 1s]", ttl)
	}
}
