// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package diag defines the diagnostic records produced by the page parser
// and the program compiler. Both report problems the same way: a severity,
// a 1-based source position, and a message, formatted as
// "name:line:col: severity: message".
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Warning marks a suspicious construct that does not stop compilation
	// unless the compiler runs with warnings-as-errors.
	Warning Severity = iota
	// Error marks a construct that always fails parsing or compilation.
	Error
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single parser or compiler finding, anchored to a
// 1-based line and column in the source it was produced from.
type Diagnostic struct {
	Severity Severity
	Line     int
	Col      int
	Message  string
}

// Errorf builds an error-severity diagnostic at the given position.
func Errorf(line, col int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Line: line, Col: col, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity diagnostic at the given position.
func Warnf(line, col int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Line: line, Col: col, Message: fmt.Sprintf(format, args...)}
}

// Format renders the diagnostic with the owning source name prepended.
func (d Diagnostic) Format(name string) string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", name, d.Line, d.Col, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic in ds has error severity.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// FormatAll renders all diagnostics, one per line, in input order.
func FormatAll(name string, ds []Diagnostic) string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Format(name)
	}
	return strings.Join(lines, "\n")
}

// Position derives a 1-based (line, col) pair from a byte offset into body.
func Position(body string, offset int) (line, col int) {
	line, col = 1, 1
	for i, ch := range body {
		if i >= offset {
			break
		}
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
