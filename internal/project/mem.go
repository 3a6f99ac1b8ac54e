// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"sync"

	"pressroom/internal/keys"
)

// Mem is an in-memory project backed by a map. Safe for concurrent use.
// Embedded setups and tests seed it directly; it also serves as the
// default backend when no store is configured.
type Mem struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewMem creates an in-memory project, optionally seeded from m.
func NewMem(m map[string]string) *Mem {
	sources := make(map[string]string, len(m))
	for k, v := range m {
		sources[k] = v
	}
	return &Mem{sources: sources}
}

// GetItem implements Project. An invalid key resolves to a missing item;
// reads report errors only for backend failures.
func (p *Mem) GetItem(_ context.Context, key string) (Item, error) {
	if keys.Validate(key) != nil {
		return Item{Key: key}, nil
	}
	p.mu.RLock()
	src, ok := p.sources[key]
	p.mu.RUnlock()
	return Item{Key: key, Source: src, Exists: ok}, nil
}

// PutItem implements Writable.
func (p *Mem) PutItem(_ context.Context, key, source string) error {
	if err := keys.Validate(key); err != nil {
		return err
	}
	p.mu.Lock()
	p.sources[key] = source
	p.mu.Unlock()
	return nil
}

// Delete removes a key. Removing an absent key is a no-op.
func (p *Mem) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.sources, key)
	p.mu.Unlock()
	return nil
}

// Len returns the number of stored sources.
func (p *Mem) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sources)
}
