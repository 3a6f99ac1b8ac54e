// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records cache invalidation events in the database for
// audit and debugging purposes. Each entry captures which template was
// invalidated, at which layer, and why (save/delete/manual).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Invalidation scopes. Unit covers compiled templates, output covers
// rendered page bodies, all covers both layers for every key.
const (
	ScopeUnit   = "unit"
	ScopeOutput = "output"
	ScopeAll    = "all"
)

// CacheLogEntry represents a single cache invalidation event. Key is "*"
// for whole-cache invalidations.
type CacheLogEntry struct {
	ID            uuid.UUID
	Key           string
	Scope         string
	Action        string
	InvalidatedAt time.Time
}

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	db *sql.DB
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log records a cache invalidation event.
func (s *CacheLogStore) Log(ctx context.Context, key, scope, action string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_invalidation_log (id, key, scope, action, invalidated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), key, scope, action, time.Now().UTC())
	if err != nil {
		// Log but don't fail — cache logging is best-effort.
		slog.Warn("failed to log cache invalidation",
			"key", key,
			"scope", scope,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged",
		"key", key,
		"scope", scope,
		"action", action,
	)
}

// RecentEntries returns the most recent cache invalidation events for
// debugging. Limited to the specified count.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, scope, action, invalidated_at
		FROM cache_invalidation_log
		ORDER BY invalidated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	var entries []CacheLogEntry
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.Key, &e.Scope, &e.Action, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
