// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// The database-backed pieces run on an isolated in-memory SQLite database,
// so no external services are required.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pressly/goose/v3"

	"pressroom/internal/database"
	"pressroom/internal/engine"
	"pressroom/internal/inject"
	"pressroom/internal/project"
	"pressroom/internal/store"
)

// testDB opens an in-memory SQLite database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db, "sqlite3"); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	DB        *sql.DB
	Project   project.Store
	Templates *store.TemplateStore
	Revisions *store.RevisionStore
	CacheLog  *store.CacheLogStore
	Engine    *engine.Engine
	Admin     *Admin
	Public    *Public
}

// newTestEnv creates a complete handler environment over in-memory SQLite.
// The output cache stays nil so tests run without Valkey. services may be
// nil; when set, templates can resolve the registered names with @inject.
func newTestEnv(t *testing.T, services *inject.Registry) *testEnv {
	t.Helper()

	db := testDB(t)
	templates := store.NewTemplateStore(db)
	revisions := store.NewRevisionStore(db)
	cacheLog := store.NewCacheLogStore(db)
	proj := project.NewDB(templates)

	cfg := engine.Config{Project: proj}
	if services != nil {
		cfg.Injector = inject.NewInjector(services)
	}
	eng := engine.New(cfg)

	return &testEnv{
		DB:        db,
		Project:   proj,
		Templates: templates,
		Revisions: revisions,
		CacheLog:  cacheLog,
		Engine:    eng,
		Admin:     NewAdmin(eng, proj, templates, revisions, cacheLog, nil, ""),
		Public:    NewPublic(eng, nil),
	}
}

// withWildcard attaches a chi catch-all URL parameter to a request, the
// way the router passes template keys to handlers.
func withWildcard(r *http.Request, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("*", value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// mustSave stores a template through the project backend, failing the test
// on error.
func mustSave(t *testing.T, env *testEnv, key, source string) {
	t.Helper()
	if err := env.Project.PutItem(context.Background(), key, source); err != nil {
		t.Fatalf("save %q: %v", key, err)
	}
}
