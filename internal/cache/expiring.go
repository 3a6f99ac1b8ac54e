// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expiring bounds the cache by age and entry count. Expired entries are
// misses and recompile on the next GetOrAdd; beyond maxEntries the least
// recently used entry is evicted.
type expiring struct {
	ttl time.Duration
	max int

	mu   sync.Mutex
	ll   *list.List // front is most recently used
	dict map[string]*list.Element

	group singleflight.Group
	now   func() time.Time
}

type expEntry struct {
	key  string
	desc *Descriptor
}

// Expiring creates a cache whose entries expire ttl after compilation and
// that holds at most maxEntries units. A zero ttl disables expiry; a
// maxEntries of zero or less leaves the size unbounded.
func Expiring(ttl time.Duration, maxEntries int) Cache {
	return &expiring{
		ttl:  ttl,
		max:  maxEntries,
		ll:   list.New(),
		dict: make(map[string]*list.Element),
		now:  time.Now,
	}
}

// Lookup returns the cached descriptor for key and marks it recently
// used. An expired entry is removed and reported as a miss.
func (c *expiring) Lookup(key string) (*Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.dict[key]
	if !ok {
		return nil, false
	}
	ent := ele.Value.(expEntry)
	if !ent.desc.ExpiresAt.IsZero() && c.now().After(ent.desc.ExpiresAt) {
		c.remove(ele)
		slog.Debug("unit cache entry expired", "key", key)
		return nil, false
	}
	c.ll.MoveToFront(ele)
	return ent.desc, true
}

// GetOrAdd returns the descriptor for key, compiling once on a miss.
func (c *expiring) GetOrAdd(ctx context.Context, key string, compile CompileFunc) (*Descriptor, error) {
	return getOrAdd(ctx, c, &c.group, key, func(d *Descriptor) { c.store(key, d) }, compile)
}

// store publishes a freshly compiled descriptor, stamping its expiry and
// evicting the least recently used entry when over capacity.
func (c *expiring) store(key string, d *Descriptor) {
	if c.ttl > 0 {
		d.ExpiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.dict[key]; ok {
		ele.Value = expEntry{key: key, desc: d}
		c.ll.MoveToFront(ele)
		return
	}
	c.dict[key] = c.ll.PushFront(expEntry{key: key, desc: d})
	if c.max > 0 && c.ll.Len() > c.max {
		last := c.ll.Back()
		c.remove(last)
		slog.Debug("unit cache evicted", "key", last.Value.(expEntry).key, "size", c.ll.Len())
	}
}

// remove drops an element from both the recency list and the index.
// Callers hold c.mu.
func (c *expiring) remove(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.dict, ele.Value.(expEntry).key)
}

// Invalidate drops the entry for key.
func (c *expiring) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.dict[key]; ok {
		c.remove(ele)
	}
}

// InvalidateAll clears the cache.
func (c *expiring) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	clear(c.dict)
}

// Len reports the number of cached entries, expired ones included until
// their next Lookup.
func (c *expiring) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ll.Len()
}
