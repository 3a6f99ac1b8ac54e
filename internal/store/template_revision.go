// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// revisionColumns lists all columns for page_template_revisions SELECTs.
const revisionColumns = `id, template_id, key, version, source, created_at`

// Revision is one historical snapshot of a template source. A row is
// written on every save; restoring a revision saves its source again as
// a new version rather than rewriting history.
type Revision struct {
	ID         uuid.UUID
	TemplateID uuid.UUID
	Key        string
	Version    int
	Source     string
	CreatedAt  time.Time
}

// RevisionStore reads template revision history. Rows are written by
// TemplateStore.Save.
type RevisionStore struct {
	db *sql.DB
}

// NewRevisionStore creates a RevisionStore over db.
func NewRevisionStore(db *sql.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// scanRevision scans a single page_template_revisions row.
func scanRevision(scanner interface{ Scan(...any) error }) (*Revision, error) {
	var r Revision
	err := scanner.Scan(&r.ID, &r.TemplateID, &r.Key, &r.Version, &r.Source, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByKey returns all retained revisions for a template key, newest
// first.
func (s *RevisionStore) ListByKey(ctx context.Context, key string) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM page_template_revisions
		WHERE key = $1
		ORDER BY version DESC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("list revisions %q: %w", key, err)
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

// FindVersion returns one revision of a template, or nil when that
// version is unknown or already pruned.
func (s *RevisionStore) FindVersion(ctx context.Context, key string, version int) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+revisionColumns+`
		FROM page_template_revisions
		WHERE key = $1 AND version = $2
	`, key, version)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find revision %q v%d: %w", key, version, err)
	}
	return r, nil
}
