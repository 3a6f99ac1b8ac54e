// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store persists page template sources in a relational database.
// The SQL sticks to the portable subset both PostgreSQL and SQLite
// accept: $n placeholders, application-generated ids and timestamps, and
// standard upserts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PageTemplate is one stored template source. Version increments on every
// save so callers can detect changes cheaply.
type PageTemplate struct {
	ID        uuid.UUID
	Key       string
	Source    string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateStore handles page template persistence.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a TemplateStore over db.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// FindByKey retrieves a template by its key. Returns nil when no row
// matches.
func (s *TemplateStore) FindByKey(ctx context.Context, key string) (*PageTemplate, error) {
	t := &PageTemplate{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, key, source, version, created_at, updated_at
		FROM page_templates WHERE key = $1
	`, key).Scan(&t.ID, &t.Key, &t.Source, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template %q: %w", key, err)
	}
	return t, nil
}

// keepRevisions caps how many revision rows a template accumulates.
const keepRevisions = 20

// Save inserts a template or replaces its source, bumping the version.
// Each save also snapshots a revision row so earlier sources stay
// recoverable. Returns the stored row.
func (s *TemplateStore) Save(ctx context.Context, key, source string) (*PageTemplate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save template %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	t := &PageTemplate{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO page_templates (id, key, source, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (key) DO UPDATE
		SET source = $3, version = page_templates.version + 1, updated_at = $4
		RETURNING id, key, source, version, created_at, updated_at
	`, uuid.New(), key, source, now).Scan(&t.ID, &t.Key, &t.Source, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("save template %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO page_template_revisions (id, template_id, key, version, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), t.ID, t.Key, t.Version, t.Source, now)
	if err != nil {
		return nil, fmt.Errorf("save template %q: revision: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM page_template_revisions WHERE key = $1 AND version <= $2
	`, key, t.Version-keepRevisions)
	if err != nil {
		return nil, fmt.Errorf("save template %q: prune revisions: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save template %q: commit: %w", key, err)
	}
	return t, nil
}

// Delete removes a template and its revisions by key. Deleting an absent
// key is not an error.
func (s *TemplateStore) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete template %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_template_revisions WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete template %q: revisions: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM page_templates WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete template %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete template %q: commit: %w", key, err)
	}
	return nil
}

// List returns all templates ordered by key.
func (s *TemplateStore) List(ctx context.Context) ([]PageTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, source, version, created_at, updated_at
		FROM page_templates
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []PageTemplate
	for rows.Next() {
		var t PageTemplate
		if err := rows.Scan(&t.ID, &t.Key, &t.Source, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
