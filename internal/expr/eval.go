// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package expr

import (
	"fmt"
	"reflect"
)

// Env supplies the names and functions an expression can reach during
// evaluation.
type Env interface {
	// Root resolves a path root: the model, an injected member, or a
	// loop variable. ok is false when the name is not in scope.
	Root(name string) (v any, ok bool)
	// Call invokes a registered function with already-evaluated args.
	Call(name string, args []any) (any, error)
}

// Eval evaluates e against env.
func Eval(e Expr, env Env) (any, error) {
	switch e := e.(type) {
	case *Str:
		return e.V, nil
	case *Int:
		return e.V, nil
	case *Bool:
		return e.V, nil
	case *Path:
		root, ok := env.Root(e.Root)
		if !ok {
			return nil, fmt.Errorf("unknown name %q", e.Root)
		}
		return walk(root, e)
	case *Call:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			v, err := Eval(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return env.Call(e.Name, args)
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

// walk resolves the dotted segments of a path against a root value.
// Structs resolve exported fields, maps resolve string keys, and
// pointers and interfaces are unwrapped along the way.
func walk(v any, path *Path) (any, error) {
	for i, seg := range path.Segs {
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, fmt.Errorf("%s is nil", prefix(path, i))
			}
			rv = rv.Elem()
		}
		switch rv.Kind() {
		case reflect.Struct:
			f := rv.FieldByName(seg)
			if !f.IsValid() {
				return nil, fmt.Errorf("%s has no field %q", prefix(path, i), seg)
			}
			if !f.CanInterface() {
				return nil, fmt.Errorf("%s field %q is unexported", prefix(path, i), seg)
			}
			v = f.Interface()
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil, fmt.Errorf("%s is a map without string keys", prefix(path, i))
			}
			mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
			if !mv.IsValid() {
				return nil, fmt.Errorf("%s has no key %q", prefix(path, i), seg)
			}
			v = mv.Interface()
		case reflect.Invalid:
			return nil, fmt.Errorf("%s is nil", prefix(path, i))
		default:
			return nil, fmt.Errorf("%s is a %s, cannot access %q", prefix(path, i), rv.Kind(), seg)
		}
	}
	return v, nil
}

// prefix renders the path up to but excluding segment i, for error text.
func prefix(path *Path, i int) string {
	return (&Path{Root: path.Root, Segs: path.Segs[:i]}).String()
}

// Truthy reports how a value steers @if and loop guards: nil, false,
// zero numbers, empty strings, and empty collections are falsy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.Len() > 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// Format renders a value for page output. nil renders as the empty
// string rather than "<nil>".
func Format(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
