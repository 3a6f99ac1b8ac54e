package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for template sources and render models.
const (
	maxSourceLen = 500_000 // template source characters accepted on save
	maxModelLen  = 1 << 20 // model JSON bytes accepted on render
)

// validateSourceInput checks a template source and returns the first
// problem found, or the empty string when the source is acceptable.
func validateSourceInput(source string) string {
	if strings.TrimSpace(source) == "" {
		return "Template source is required."
	}
	if utf8.RuneCountInString(source) > maxSourceLen {
		return "Template source is too long (max 500,000 characters)."
	}
	return ""
}
