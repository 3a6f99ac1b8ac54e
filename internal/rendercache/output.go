// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// output.go provides a Valkey-backed cache of rendered HTML. Entries are
// keyed by template key plus a digest covering the compiled source and
// the model, so a recompiled template or a different model never serves
// stale output even before an explicit invalidation arrives.
package rendercache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Valkey key prefix for cached renders.
	keyPrefix = "render:"

	// DefaultTTL is how long a rendered page stays cached.
	DefaultTTL = 5 * time.Minute
)

// OutputCache manages rendered HTML caching in Valkey.
type OutputCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOutputCache creates an output cache backed by the given Valkey
// client.
func NewOutputCache(client *redis.Client, ttl time.Duration) *OutputCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &OutputCache{client: client, ttl: ttl}
}

func cacheKey(templateKey, digest string) string {
	return keyPrefix + templateKey + ":" + digest
}

// Get retrieves cached HTML for a template key and render digest.
func (oc *OutputCache) Get(ctx context.Context, templateKey, digest string) ([]byte, bool) {
	val, err := oc.client.Get(ctx, cacheKey(templateKey, digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("output cache get error", "key", templateKey, "error", err)
		return nil, false
	}
	slog.Debug("output cache hit", "key", templateKey)
	return val, true
}

// Set stores rendered HTML with the configured TTL.
func (oc *OutputCache) Set(ctx context.Context, templateKey, digest string, html []byte) {
	if err := oc.client.Set(ctx, cacheKey(templateKey, digest), html, oc.ttl).Err(); err != nil {
		slog.Warn("output cache set error", "key", templateKey, "error", err)
	}
}

// InvalidateTemplate removes every cached render of one template,
// whatever model it was rendered with.
func (oc *OutputCache) InvalidateTemplate(ctx context.Context, templateKey string) {
	oc.deleteByPattern(ctx, keyPrefix+templateKey+":*")
	slog.Debug("output cache invalidated", "key", templateKey)
}

// InvalidateAll removes all cached renders by scanning for the prefix.
// Used when a layout or partial changes, since any page could be
// affected.
func (oc *OutputCache) InvalidateAll(ctx context.Context) {
	oc.deleteByPattern(ctx, keyPrefix+"*")
}

func (oc *OutputCache) deleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := oc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("output cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := oc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("output cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("output cache cleared", "pattern", pattern, "deleted", deleted)
	}
}
