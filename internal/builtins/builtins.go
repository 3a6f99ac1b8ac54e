// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package builtins provides the standard page function libraries:
// core string and formatting helpers, Markdown conversion, and QR code
// generation. Engines hand the resolver to the compiler service; pages
// then call these with @fn(...) expressions.
package builtins

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	qrcode "github.com/skip2/go-qrcode"

	"pressroom/internal/compiler"
	"pressroom/internal/markdown"
)

// Resolver returns the full builtin set: core, markdown, and qr.
func Resolver() compiler.ReferenceResolver {
	return compiler.ResolverFunc(func() ([]compiler.Library, error) {
		return []compiler.Library{Core(), Markdown(), QR()}, nil
	})
}

// Core returns string, sequence, and time helpers.
func Core() compiler.Library {
	return compiler.Library{
		Name: "core",
		Funcs: map[string]compiler.Func{
			"upper": single(func(v any) (any, error) {
				return strings.ToUpper(str(v)), nil
			}),
			"lower": single(func(v any) (any, error) {
				return strings.ToLower(str(v)), nil
			}),
			"trim": single(func(v any) (any, error) {
				return strings.TrimSpace(str(v)), nil
			}),
			"len":  single(length),
			"join": join,
			"fmt":  sprintf,
			"now":  now,
		},
	}
}

// Markdown returns the markdown() function, converting Markdown text to
// HTML through the goldmark pipeline.
func Markdown() compiler.Library {
	return compiler.Library{
		Name: "markdown",
		Funcs: map[string]compiler.Func{
			"markdown": single(func(v any) (any, error) {
				return markdown.ToHTML(str(v))
			}),
		},
	}
}

// QR returns the qr() function: a PNG QR code of the argument text as a
// data URI, ready for an <img src>.
func QR() compiler.Library {
	return compiler.Library{
		Name: "qr",
		Funcs: map[string]compiler.Func{
			"qr": single(func(v any) (any, error) {
				png, err := qrcode.Encode(str(v), qrcode.Medium, 256)
				if err != nil {
					return nil, fmt.Errorf("encode qr: %w", err)
				}
				return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
			}),
		},
	}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// single adapts a one-argument function with arity checking.
func single(fn func(v any) (any, error)) compiler.Func {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expects 1 argument, got %d", len(args))
		}
		return fn(args[0])
	}
}

// length counts runes for strings and elements for slices, arrays, and
// maps.
func length(v any) (any, error) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return nil, fmt.Errorf("len of %T", v)
	}
}

// join concatenates the elements of a sequence with a separator.
func join(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expects 2 arguments, got %d", len(args))
	}
	rv := reflect.ValueOf(args[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("join of %T", args[0])
	}
	sep := str(args[1])
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = str(rv.Index(i).Interface())
	}
	return strings.Join(parts, sep), nil
}

// sprintf is printf-style formatting: fmt("%s: %d", name, count).
func sprintf(args []any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("expects a format string")
	}
	format, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("format must be a string, got %T", args[0])
	}
	return fmt.Sprintf(format, args[1:]...), nil
}

// now returns the current time, RFC 3339 by default or formatted with a
// Go layout argument: now("January 2, 2006").
func now(args []any) (any, error) {
	switch len(args) {
	case 0:
		return time.Now().Format(time.RFC3339), nil
	case 1:
		return time.Now().Format(str(args[0])), nil
	default:
		return nil, fmt.Errorf("expects at most 1 argument, got %d", len(args))
	}
}
