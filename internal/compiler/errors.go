// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"fmt"

	"pressroom/internal/diag"
)

// CompilationError reports a failed compilation with every diagnostic
// collected, not just the first.
type CompilationError struct {
	Unit        string
	Diagnostics []diag.Diagnostic
}

func (e *CompilationError) Error() string {
	errs := 0
	for _, d := range e.Diagnostics {
		if d.Severity == diag.Error {
			errs++
		}
	}
	return fmt.Sprintf("compiling unit %q: %d problem(s), %d fatal\n%s",
		e.Unit, len(e.Diagnostics), errs, diag.FormatAll(e.Unit, e.Diagnostics))
}
