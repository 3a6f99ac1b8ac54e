// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"fmt"

	"pressroom/internal/generator"
)

// TemplateNotFoundError reports a template key the project cannot resolve.
type TemplateNotFoundError struct {
	Key string
}

// Error implements the error interface.
func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Key)
}

// TemplateGenerationError carries the parser diagnostics of a template
// that failed generation.
type TemplateGenerationError = generator.TemplateGenerationError

// ModelTypeMismatchError reports a render whose model does not satisfy the
// template's declared model type.
type ModelTypeMismatchError struct {
	Key  string // template key
	Want string // declared model type name
	Got  string // supplied model type name
}

// Error implements the error interface.
func (e *ModelTypeMismatchError) Error() string {
	return fmt.Sprintf("template %q expects model %s, got %s", e.Key, e.Want, e.Got)
}
