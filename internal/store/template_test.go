// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTemplateStoreSaveAndFind(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	key := "test/save-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTemplates(t, db, key) })

	created, err := s.Save(ctx, key, "Hello @Model.Name")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if created.Key != key {
		t.Errorf("key: got %q, want %q", created.Key, key)
	}
	if created.Version != 1 {
		t.Errorf("version: got %d, want 1", created.Version)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	// FindByKey.
	found, err := s.FindByKey(ctx, key)
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if found == nil {
		t.Fatal("expected template, got nil")
	}
	if found.Source != "Hello @Model.Name" {
		t.Errorf("source: got %q", found.Source)
	}

	// Not found.
	found, err = s.FindByKey(ctx, "test/absent-"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("FindByKey absent: %v", err)
	}
	if found != nil {
		t.Error("expected nil for absent key")
	}
}

func TestTemplateStoreSaveBumpsVersion(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	key := "test/bump-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTemplates(t, db, key) })

	v1, err := s.Save(ctx, key, "old")
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	v2, err := s.Save(ctx, key, "new")
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if v2.Version != 2 {
		t.Errorf("version: got %d, want 2 (incremented)", v2.Version)
	}
	if v2.ID != v1.ID {
		t.Errorf("id changed on upsert: %s != %s", v2.ID, v1.ID)
	}
	if v2.Source != "new" {
		t.Errorf("source: got %q, want new", v2.Source)
	}
	if !v2.CreatedAt.Equal(v1.CreatedAt) {
		t.Errorf("created_at changed on upsert: %v != %v", v2.CreatedAt, v1.CreatedAt)
	}
}

func TestTemplateStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	revs := NewRevisionStore(db)
	ctx := context.Background()

	key := "test/delete-" + uuid.NewString()[:8]

	if _, err := s.Save(ctx, key, "doomed"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	found, _ := s.FindByKey(ctx, key)
	if found != nil {
		t.Error("expected nil after delete")
	}

	// Revisions go with the template.
	history, err := revs.ListByKey(ctx, key)
	if err != nil {
		t.Fatalf("ListByKey: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected no revisions after delete, got %d", len(history))
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestTemplateStoreList(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	ctx := context.Background()

	prefix := "test/list-" + uuid.NewString()[:8]
	keyA := prefix + "/a"
	keyB := prefix + "/b"
	t.Cleanup(func() { cleanTemplates(t, db, keyA, keyB) })

	if _, err := s.Save(ctx, keyB, "b"); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	if _, err := s.Save(ctx, keyA, "a"); err != nil {
		t.Fatalf("Save a: %v", err)
	}

	templates, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	// Key order, regardless of insert order or rows from other tests.
	idxA, idxB := -1, -1
	for i, tmpl := range templates {
		switch tmpl.Key {
		case keyA:
			idxA = i
		case keyB:
			idxB = i
		}
	}
	if idxA < 0 || idxB < 0 {
		t.Fatalf("expected both templates in list, got idxA=%d idxB=%d", idxA, idxB)
	}
	if idxA > idxB {
		t.Errorf("expected %q before %q", keyA, keyB)
	}
}

func TestRevisionHistory(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	revs := NewRevisionStore(db)
	ctx := context.Background()

	key := "test/history-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTemplates(t, db, key) })

	for _, source := range []string{"one", "two", "three"} {
		if _, err := s.Save(ctx, key, source); err != nil {
			t.Fatalf("Save %q: %v", source, err)
		}
	}

	history, err := revs.ListByKey(ctx, key)
	if err != nil {
		t.Fatalf("ListByKey: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("revisions: got %d, want 3", len(history))
	}
	for i, wantVersion := range []int{3, 2, 1} {
		if history[i].Version != wantVersion {
			t.Errorf("history[%d].Version: got %d, want %d", i, history[i].Version, wantVersion)
		}
	}

	rev, err := revs.FindVersion(ctx, key, 2)
	if err != nil {
		t.Fatalf("FindVersion: %v", err)
	}
	if rev == nil {
		t.Fatal("expected revision 2")
	}
	if rev.Source != "two" {
		t.Errorf("revision source: got %q, want two", rev.Source)
	}

	// Unknown version.
	rev, err = revs.FindVersion(ctx, key, 99)
	if err != nil {
		t.Fatalf("FindVersion 99: %v", err)
	}
	if rev != nil {
		t.Error("expected nil for unknown version")
	}
}

func TestRevisionPruning(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)
	revs := NewRevisionStore(db)
	ctx := context.Background()

	key := "test/prune-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTemplates(t, db, key) })

	total := keepRevisions + 5
	for i := 0; i < total; i++ {
		if _, err := s.Save(ctx, key, "v"); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	history, err := revs.ListByKey(ctx, key)
	if err != nil {
		t.Fatalf("ListByKey: %v", err)
	}
	if len(history) != keepRevisions {
		t.Fatalf("retained revisions: got %d, want %d", len(history), keepRevisions)
	}
	if oldest := history[len(history)-1].Version; oldest != total-keepRevisions+1 {
		t.Errorf("oldest retained version: got %d, want %d", oldest, total-keepRevisions+1)
	}
}
