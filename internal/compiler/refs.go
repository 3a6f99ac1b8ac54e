// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import "fmt"

// Func is a page function callable from eval expressions. Arguments
// arrive already evaluated.
type Func func(args []any) (any, error)

// Library is a named table of page functions contributed by a resolver.
type Library struct {
	Name  string
	Funcs map[string]Func
}

// ReferenceResolver supplies the function libraries compiled units may
// call. Resolution happens once per compiler service, on first use.
type ReferenceResolver interface {
	Resolve() ([]Library, error)
}

// ResolverFunc adapts a plain function to the ReferenceResolver
// interface.
type ResolverFunc func() ([]Library, error)

// Resolve implements ReferenceResolver.
func (f ResolverFunc) Resolve() ([]Library, error) { return f() }

// references is the flattened function table built from resolved
// libraries. Immutable after construction.
type references struct {
	funcs map[string]Func
	libs  map[string]string // function name -> owning library, for errors
}

func newReferences(libs []Library) (*references, error) {
	r := &references{
		funcs: make(map[string]Func),
		libs:  make(map[string]string),
	}
	for _, lib := range libs {
		for name, fn := range lib.Funcs {
			if prev, ok := r.libs[name]; ok {
				return nil, fmt.Errorf("function %q defined by both %q and %q", name, prev, lib.Name)
			}
			r.funcs[name] = fn
			r.libs[name] = lib.Name
		}
	}
	return r, nil
}

func (r *references) has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

func (r *references) call(name string, args []any) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	v, err := fn(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
