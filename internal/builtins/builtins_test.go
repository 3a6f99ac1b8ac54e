package builtins

import (
	"strings"
	"testing"
)

// call resolves the full builtin set and invokes one function.
func call(t *testing.T, name string, args ...any) (any, error) {
	t.Helper()
	libs, err := Resolver().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, lib := range libs {
		if fn, ok := lib.Funcs[name]; ok {
			return fn(args)
		}
	}
	t.Fatalf("no builtin %q", name)
	return nil, nil
}

// TestCore exercises the core helpers.
func TestCore(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []any
		want any
	}{
		{name: "upper", fn: "upper", args: []any{"ana"}, want: "ANA"},
		{name: "upper non-string", fn: "upper", args: []any{42}, want: "42"},
		{name: "lower", fn: "lower", args: []any{"ANA"}, want: "ana"},
		{name: "trim", fn: "trim", args: []any{"  x  "}, want: "x"},
		{name: "len string runes", fn: "len", args: []any{"héllo"}, want: 5},
		{name: "len slice", fn: "len", args: []any{[]int{1, 2, 3}}, want: 3},
		{name: "len map", fn: "len", args: []any{map[string]int{"a": 1}}, want: 1},
		{name: "join strings", fn: "join", args: []any{[]string{"a", "b"}, ", "}, want: "a, b"},
		{name: "join ints", fn: "join", args: []any{[]int{1, 2}, "-"}, want: "1-2"},
		{name: "fmt", fn: "fmt", args: []any{"%s #%d", "order", 7}, want: "order #7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s: %v", tt.fn, err)
			}
			if got != tt.want {
				t.Errorf("%s(%v) = %v, want %v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

// TestCoreErrors verifies arity and type errors.
func TestCoreErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []any
	}{
		{name: "upper no args", fn: "upper", args: nil},
		{name: "upper extra args", fn: "upper", args: []any{"a", "b"}},
		{name: "len of int", fn: "len", args: []any{7}},
		{name: "join of scalar", fn: "join", args: []any{7, ","}},
		{name: "fmt no format", fn: "fmt", args: nil},
		{name: "fmt non-string format", fn: "fmt", args: []any{7}},
		{name: "now too many args", fn: "now", args: []any{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := call(t, tt.fn, tt.args...); err == nil {
				t.Errorf("%s(%v) succeeded, want error", tt.fn, tt.args)
			}
		})
	}
}

// TestNow verifies layout formatting.
func TestNow(t *testing.T) {
	got, err := call(t, "now", "2006")
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	s, ok := got.(string)
	if !ok || len(s) != 4 {
		t.Errorf("now(\"2006\") = %v, want a 4-digit year", got)
	}
}

// TestMarkdown verifies the goldmark pipeline is wired.
func TestMarkdown(t *testing.T) {
	got, err := call(t, "markdown", "# Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	html := got.(string)
	for _, want := range []string{"<h1", "Title", "<strong>bold</strong>"} {
		if !strings.Contains(html, want) {
			t.Errorf("markdown output %q missing %q", html, want)
		}
	}
}

// TestQR verifies the data-URI shape without decoding the image.
func TestQR(t *testing.T) {
	got, err := call(t, "qr", "https://example.com/p/1")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	uri := got.(string)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("qr output %q is not a png data uri", uri)
	}
	if len(uri) < 100 {
		t.Errorf("qr output suspiciously short: %d bytes", len(uri))
	}
}

// TestNoDuplicateNames guards the library set against function name
// collisions.
func TestNoDuplicateNames(t *testing.T) {
	libs, err := Resolver().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	seen := map[string]string{}
	for _, lib := range libs {
		for name := range lib.Funcs {
			if prev, ok := seen[name]; ok {
				t.Errorf("function %q in both %q and %q", name, prev, lib.Name)
			}
			seen[name] = lib.Name
		}
	}
}
