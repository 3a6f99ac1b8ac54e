// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"testing"
)

func TestMemRoundTrip(t *testing.T) {
	p := NewMem(map[string]string{"seeded": "s"})
	ctx := context.Background()

	if err := p.PutItem(ctx, "added", "a"); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len: got %d, want 2", p.Len())
	}

	item, err := p.GetItem(ctx, "seeded")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !item.Exists || item.Source != "s" {
		t.Errorf("seeded item: got %+v", item)
	}

	if err := p.Delete(ctx, "seeded"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	item, _ = p.GetItem(ctx, "seeded")
	if item.Exists {
		t.Error("expected item gone after delete")
	}
	if p.Len() != 1 {
		t.Errorf("Len after delete: got %d, want 1", p.Len())
	}
}

func TestMemInvalidKeys(t *testing.T) {
	p := NewMem(nil)
	ctx := context.Background()

	item, err := p.GetItem(ctx, "../escape")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Exists {
		t.Error("expected traversal key to resolve as missing")
	}

	if err := p.PutItem(ctx, "UPPER", "x"); err == nil {
		t.Error("expected PutItem to reject non-canonical key")
	}
}
