// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generator

import (
	"errors"
	"strings"
	"testing"

	"pressroom/internal/pageasm"
	"pressroom/internal/project"
)

func generate(t *testing.T, key, source string) *GeneratedTemplate {
	t.Helper()
	gt, err := New().Generate(project.Item{Key: key, Source: source, Exists: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return gt
}

// ops extracts the opcode sequence from a generated listing.
func ops(t *testing.T, code string) []string {
	t.Helper()
	lines, ds := pageasm.Scan(code)
	if len(ds) > 0 {
		t.Fatalf("generated listing does not scan: %v", ds)
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Op()
	}
	return out
}

// TestGenerate_Listing verifies the emitted statement shapes.
func TestGenerate_Listing(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantOps []string
	}{
		{
			name:    "literal and eval",
			source:  "Hello @Model.Name",
			wantOps: []string{".unit", "#if", "note", "#endif", "emit", "eval"},
		},
		{
			name:    "if without else",
			source:  "@if Model.Show\nx\n@end",
			wantOps: []string{".unit", "#if", "note", "#endif", "jmpf", "emit", "mark"},
		},
		{
			name:    "if with else",
			source:  "@if Model.Show\nx\n@else\ny\n@end",
			wantOps: []string{".unit", "#if", "note", "#endif", "jmpf", "emit", "jmp", "mark", "emit", "mark"},
		},
		{
			name:    "loop",
			source:  "@each t in Model.Tags\n@t\n@end",
			wantOps: []string{".unit", "#if", "note", "#endif", "iter", "mark", "eval", "emit", "next", "mark"},
		},
		{
			name:    "include and body",
			source:  "@include \"shared/nav\"\n@renderbody",
			wantOps: []string{".unit", "#if", "note", "#endif", "incl", "body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt := generate(t, "page", tt.source)
			got := ops(t, gt.Code)
			if strings.Join(got, " ") != strings.Join(tt.wantOps, " ") {
				t.Errorf("ops = %v\nwant %v\nlisting:\n%s", got, tt.wantOps, gt.Code)
			}
		})
	}
}

// TestGenerate_Header verifies header directives round into the listing.
func TestGenerate_Header(t *testing.T) {
	source := "@layout \"shared/layout\"\n@model Greeting\n@inject clock \"clock\"\nHi @clock.Hour"
	gt := generate(t, "emails/welcome", source)

	for _, want := range []string{
		`.unit "emails/welcome"`,
		`.model "Greeting"`,
		`.layout "shared/layout"`,
		`.inject "clock" "clock"`,
	} {
		if !strings.Contains(gt.Code, want) {
			t.Errorf("listing missing %q:\n%s", want, gt.Code)
		}
	}
	if gt.Key() != "emails/welcome" {
		t.Errorf("Key = %q", gt.Key())
	}
}

// TestGenerate_BindingErrors verifies unknown roots fail generation.
func TestGenerate_BindingErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		wantOK bool
	}{
		{name: "model root", source: "@Model.Name", wantOK: true},
		{name: "injected member", source: "@inject clock \"clock\"\n@clock.Hour", wantOK: true},
		{name: "loop variable", source: "@each t in Model.Tags\n@t.Name\n@end", wantOK: true},
		{name: "unknown root", source: "@author.Name", wantOK: false},
		{name: "loop var out of scope", source: "@each t in Model.Tags\nx\n@end\n@t", wantOK: false},
		{name: "unknown root in call arg", source: "@upper(writer.Name)", wantOK: false},
		{name: "unknown root in condition", source: "@if visible\nx\n@end", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Generate(project.Item{Key: "p", Source: tt.source, Exists: true})
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				return
			}
			var ge *TemplateGenerationError
			if !errors.As(err, &ge) {
				t.Fatalf("error = %v, want *TemplateGenerationError", err)
			}
			if ge.Key != "p" {
				t.Errorf("Key = %q", ge.Key)
			}
			if !strings.Contains(err.Error(), "unknown name") {
				t.Errorf("error %q missing root diagnostic", err)
			}
		})
	}
}

// TestGenerate_ParseErrors verifies parser diagnostics surface.
func TestGenerate_ParseErrors(t *testing.T) {
	_, err := New().Generate(project.Item{Key: "p", Source: "@if Model.X\nno end", Exists: true})
	var ge *TemplateGenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *TemplateGenerationError", err)
	}
	if len(ge.Diagnostics) == 0 {
		t.Error("no diagnostics carried")
	}
}

// TestGenerate_MissingSource verifies non-existent items are rejected.
func TestGenerate_MissingSource(t *testing.T) {
	_, err := New().Generate(project.Item{Key: "p"})
	if err == nil {
		t.Fatal("Generate succeeded on a missing item")
	}
}

// TestGenerate_RoundTripLiterals verifies literals with quotes and
// newlines survive into listing form.
func TestGenerate_RoundTripLiterals(t *testing.T) {
	source := "say \"hi\"\nsecond @@line"
	gt := generate(t, "p", source)
	lines, ds := pageasm.Scan(gt.Code)
	if len(ds) > 0 {
		t.Fatalf("scan: %v", ds)
	}
	var lits []string
	for _, l := range lines {
		if l.Op() == pageasm.OpEmit {
			lits = append(lits, l.Fields[1].Text)
		}
	}
	joined := strings.Join(lits, "")
	if joined != "say \"hi\"\nsecond @line" {
		t.Errorf("emitted literals = %q", joined)
	}
}
