// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package keys validates and normalizes template keys. A key is one or
// more slug segments separated by "/", e.g. "shared/layout" or
// "emails/welcome". Keys never contain ".", "..", or path separators
// other than "/".
package keys

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxLength bounds total key length in bytes.
const MaxLength = 256

var (
	// segment matches one valid key segment.
	segment = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
	// nonAlphanumeric matches anything that isn't a letter, digit, space, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s/_-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Valid reports whether key is already in canonical form.
func Valid(key string) bool {
	return Validate(key) == nil
}

// Validate checks key against the canonical form and returns a
// descriptive error for the first violation found.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("template key is empty")
	}
	if len(key) > MaxLength {
		return fmt.Errorf("template key exceeds %d bytes", MaxLength)
	}
	for _, part := range strings.Split(key, "/") {
		switch part {
		case "":
			return fmt.Errorf("template key %q has an empty segment", key)
		case ".", "..":
			return fmt.Errorf("template key %q contains a path traversal segment", key)
		}
		if !segment.MatchString(part) {
			return fmt.Errorf("template key %q has invalid segment %q", key, part)
		}
	}
	return nil
}

// Normalize creates a canonical key from the given string. Segments are
// lowercased, non-slug characters dropped, and runs of spaces or hyphens
// collapsed. Example: "Emails/Welcome Letter!" → "emails/welcome-letter".
func Normalize(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = strings.ReplaceAll(result, "\\", "/")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")

	parts := strings.Split(result, "/")
	kept := parts[:0]
	for _, part := range parts {
		part = strings.Trim(part, "-")
		if part != "" && part != "." && part != ".." {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}
