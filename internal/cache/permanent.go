// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// permanent keeps every compiled unit until explicitly invalidated.
type permanent struct {
	mu      sync.RWMutex
	entries map[string]*Descriptor
	group   singleflight.Group
}

// Permanent creates a cache that never evicts. Entries live until
// Invalidate or InvalidateAll.
func Permanent() Cache {
	return &permanent{entries: make(map[string]*Descriptor)}
}

// Lookup returns the cached descriptor for key.
func (c *permanent) Lookup(key string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.entries[key]
	return d, ok
}

// GetOrAdd returns the descriptor for key, compiling once on a miss.
func (c *permanent) GetOrAdd(ctx context.Context, key string, compile CompileFunc) (*Descriptor, error) {
	return getOrAdd(ctx, c, &c.group, key, func(d *Descriptor) { c.store(key, d) }, compile)
}

// store publishes a freshly compiled descriptor.
func (c *permanent) store(key string, d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = d
	slog.Debug("unit cached", "key", key, "checksum", d.Checksum, "size", len(c.entries))
}

// Invalidate drops the entry for key.
func (c *permanent) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	slog.Debug("unit cache invalidated", "key", key)
}

// InvalidateAll clears the cache.
func (c *permanent) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Descriptor)
	slog.Debug("unit cache fully cleared")
}

// Len reports the number of cached entries.
func (c *permanent) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
