package checksum

import "testing"

// TestSource_Deterministic verifies identical sources share a digest and
// different sources do not.
func TestSource_Deterministic(t *testing.T) {
	a := Source("Hello @Model.Name")
	b := Source("Hello @Model.Name")
	c := Source("Hello @Model.Title")

	if a != b {
		t.Errorf("same source digests differ: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different sources share digest %q", a)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

// TestRender_SeparatesFields verifies field boundaries cannot be shifted
// to produce colliding digests.
func TestRender_SeparatesFields(t *testing.T) {
	a := Render("ab", "c", []byte("d"))
	b := Render("a", "bc", []byte("d"))
	if a == b {
		t.Errorf("shifted fields collide: %q", a)
	}

	withModel := Render("page", "sum", []byte(`{"Name":"World"}`))
	without := Render("page", "sum", nil)
	if withModel == without {
		t.Error("model bytes do not affect digest")
	}
}
