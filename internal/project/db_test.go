// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"

	"pressroom/internal/database"
	"pressroom/internal/store"
)

// testDBProject builds a DB project over a migrated in-memory SQLite
// database.
func testDBProject(t *testing.T) *DB {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	return NewDB(store.NewTemplateStore(db))
}

func TestDBProjectRoundTrip(t *testing.T) {
	p := testDBProject(t)
	ctx := context.Background()

	if err := p.PutItem(ctx, "emails/welcome", "Hello @Model.Name"); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	item, err := p.GetItem(ctx, "emails/welcome")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !item.Exists {
		t.Fatal("expected saved template to exist")
	}
	if item.Source != "Hello @Model.Name" {
		t.Errorf("Source: got %q", item.Source)
	}
}

func TestDBProjectMissing(t *testing.T) {
	p := testDBProject(t)

	item, err := p.GetItem(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Exists {
		t.Error("expected missing item")
	}
	if item.Key != "absent" {
		t.Errorf("Key: got %q", item.Key)
	}
}

func TestDBProjectInvalidKey(t *testing.T) {
	p := testDBProject(t)
	ctx := context.Background()

	// Reads treat invalid keys as missing.
	item, err := p.GetItem(ctx, "../escape")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Exists {
		t.Error("expected traversal key to resolve as missing")
	}

	// Writes reject them loudly.
	if err := p.PutItem(ctx, "../escape", "x"); err == nil {
		t.Error("expected PutItem to reject traversal key")
	}
}

func TestDBProjectDelete(t *testing.T) {
	p := testDBProject(t)
	ctx := context.Background()

	if err := p.PutItem(ctx, "doomed", "x"); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
	if err := p.Delete(ctx, "doomed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	item, _ := p.GetItem(ctx, "doomed")
	if item.Exists {
		t.Error("expected template gone after delete")
	}
}
