// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"fmt"

	"pressroom/internal/keys"
	"pressroom/internal/store"
)

// DB serves templates from a relational template store. The same shape
// runs on PostgreSQL and SQLite; the caller picks the driver when opening
// the database.
type DB struct {
	store *store.TemplateStore
}

// NewDB creates a database-backed project over ts.
func NewDB(ts *store.TemplateStore) *DB {
	return &DB{store: ts}
}

// GetItem resolves key through the store. Invalid keys resolve to a
// missing item without touching the database.
func (p *DB) GetItem(ctx context.Context, key string) (Item, error) {
	if keys.Validate(key) != nil {
		return Item{Key: key}, nil
	}
	t, err := p.store.FindByKey(ctx, key)
	if err != nil {
		return Item{}, fmt.Errorf("project lookup %q: %w", key, err)
	}
	if t == nil {
		return Item{Key: key}, nil
	}
	return Item{Key: key, Source: t.Source, Exists: true}, nil
}

// PutItem saves a template source, bumping its stored version. Callers
// invalidate compiled units themselves; a bumped version never reaches a
// render on its own.
func (p *DB) PutItem(ctx context.Context, key, source string) error {
	if err := keys.Validate(key); err != nil {
		return err
	}
	if _, err := p.store.Save(ctx, key, source); err != nil {
		return fmt.Errorf("project save %q: %w", key, err)
	}
	return nil
}

// Delete removes a template from the store.
func (p *DB) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}
