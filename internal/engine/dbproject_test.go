// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"

	"pressroom/internal/database"
	"pressroom/internal/project"
	"pressroom/internal/store"
)

// TestRenderSeededSQLiteProject drives the whole stack in one process:
// in-memory SQLite, embedded migrations, seeded starter templates, a
// DB-backed project, and a layout render through the engine.
func TestRenderSeededSQLiteProject(t *testing.T) {
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	if err := database.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	eng := New(Config{Project: project.NewDB(store.NewTemplateStore(db))})

	out, err := eng.CompileRender(ctx, "welcome", nil)
	if err != nil {
		t.Fatalf("CompileRender: %v", err)
	}

	want := "<!doctype html>\n<html>\n<head><title>Pressroom</title></head>\n<body>\n" +
		"<h1>It works.</h1>\n<p>Save templates through the admin API, then render them by key.</p>" +
		"</body>\n</html>"
	if out != want {
		t.Errorf("rendered page:\n got %q\nwant %q", out, want)
	}

	// A template missing from the database surfaces the usual not-found.
	if _, err := eng.CompileRender(ctx, "absent", nil); err == nil {
		t.Error("expected error for absent template")
	}
}
