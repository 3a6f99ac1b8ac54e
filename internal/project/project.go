// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package project abstracts where page sources live. A Project resolves
// template keys to source text; backends cover an in-memory map, a
// directory tree, and SQL stores. Writable backends additionally save
// sources, for management APIs.
package project

import "context"

// Item is an immutable snapshot of one template source. Exists reports
// whether the key resolved; a missing key is not an error at this layer.
type Item struct {
	Key    string
	Source string
	Exists bool
}

// Project resolves template keys to source snapshots.
type Project interface {
	// GetItem fetches the source for key. A missing key returns
	// Item{Key: key, Exists: false} and a nil error; errors are
	// reserved for backend failures.
	GetItem(ctx context.Context, key string) (Item, error)
}

// Writable is a project that can also store sources.
type Writable interface {
	Project
	// PutItem saves source under key, creating or replacing it.
	PutItem(ctx context.Context, key, source string) error
}

// Store is a project with the full surface the management API needs.
type Store interface {
	Writable
	// Delete removes key. Removing an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
