// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache stores compiled page units between renders. It is the L1
// cache: a hit skips generation and compilation entirely. Concurrent
// misses on one key are collapsed into a single compilation while other
// keys stay unblocked, and a compilation outlives the request that
// started it so abandoned renders still warm the cache.
package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"pressroom/internal/compiler"
)

// Descriptor is the cached product of one template compilation. The unit
// is shared by every render of this template version; pages are built
// fresh from it per render.
type Descriptor struct {
	Key        string         // template key the unit was compiled from
	Unit       *compiler.Unit // loaded unit
	Checksum   string         // hex digest of the source at compile time
	CompiledAt time.Time      // when compilation finished
	ExpiresAt  time.Time      // zero for entries that never expire
}

// CompileFunc produces the descriptor for a key on a cache miss. The
// context it receives carries the requester's values but not its
// cancellation.
type CompileFunc func(ctx context.Context) (*Descriptor, error)

// Cache is the compiled-unit store shared by all renders.
type Cache interface {
	// Lookup returns the cached descriptor for key. It never blocks on
	// an in-flight compilation.
	Lookup(key string) (*Descriptor, bool)

	// GetOrAdd returns the cached descriptor for key, compiling it at
	// most once across concurrent callers on a miss. Failed compilations
	// are not stored; the next call retries.
	GetOrAdd(ctx context.Context, key string, compile CompileFunc) (*Descriptor, error)

	// Invalidate drops the entry for key, if any.
	Invalidate(key string)

	// InvalidateAll empties the cache.
	InvalidateAll()

	// Len reports the number of cached entries.
	Len() int
}

// getOrAdd implements the shared miss path: join the per-key flight,
// re-check the cache inside it, compile detached from the requester's
// cancellation, and store only on success. The requester can abandon the
// wait; the flight finishes regardless.
func getOrAdd(ctx context.Context, c Cache, group *singleflight.Group, key string, store func(*Descriptor), compile CompileFunc) (*Descriptor, error) {
	if d, ok := c.Lookup(key); ok {
		return d, nil
	}

	ch := group.DoChan(key, func() (any, error) {
		// A racer may have stored between our miss and joining the flight.
		if d, ok := c.Lookup(key); ok {
			return d, nil
		}
		d, err := compile(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		store(d)
		return d, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Descriptor), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
