// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"reflect"

	"pressroom/internal/expr"
)

// Page is one render instance of a unit. It owns its output buffer and
// model reference and is used by a single goroutine for a single render.
type Page struct {
	unit    *Unit
	buf     bytes.Buffer
	model   any
	members map[string]any
	vars    []loopVar
}

type loopVar struct {
	name string
	val  any
}

// Unit returns the compiled unit this page renders.
func (p *Page) Unit() *Unit { return p.unit }

// SetModel assigns the runtime model the page renders against.
func (p *Page) SetModel(model any) { p.model = model }

// Model returns the assigned runtime model.
func (p *Page) Model() any { return p.model }

// Member returns an injected member by name.
func (p *Page) Member(name string) (any, bool) {
	v, ok := p.members[name]
	return v, ok
}

// Output returns everything the page has written so far.
func (p *Page) Output() string { return p.buf.String() }

// ExecEnv carries the per-render surroundings of a page execution:
// cancellation, cross-template resolution, and layout body content.
type ExecEnv struct {
	Ctx context.Context

	// Include renders another template with the current model into w.
	// depth counts nested includes so cycles terminate.
	Include func(ctx context.Context, key string, model any, w *bytes.Buffer, depth int) error

	// Depth is the include depth this page executes at. Zero for the
	// entry page.
	Depth int

	// Body holds the rendered inner page when executing a layout.
	Body    string
	HasBody bool
}

// Execute runs the unit's program, writing into the page's buffer.
// Cancellation is observed at include boundaries and loop back-edges.
func (p *Page) Execute(env *ExecEnv) error {
	if env == nil {
		env = &ExecEnv{}
	}
	if env.Ctx == nil {
		env.Ctx = context.Background()
	}

	// frames holds active loop state; frames[i] binds p.vars[i].
	type frame struct {
		items reflect.Value
		n     int
		idx   int
	}
	var frames []frame

	prog := p.unit.prog
	for pc := 0; pc < len(prog); pc++ {
		in := &prog[pc]
		switch in.op {
		case opEmit:
			p.buf.WriteString(in.lit)

		case opEval:
			v, err := expr.Eval(in.ex, p)
			if err != nil {
				return p.faultf(in, "eval %s: %w", in.ex, err)
			}
			s := expr.Format(v)
			if !in.raw {
				s = html.EscapeString(s)
			}
			p.buf.WriteString(s)

		case opIncl:
			if err := env.Ctx.Err(); err != nil {
				return err
			}
			if env.Include == nil {
				return p.faultf(in, "include %q: no include resolver", in.lit)
			}
			if err := env.Include(env.Ctx, in.lit, p.model, &p.buf, env.Depth+1); err != nil {
				return p.faultf(in, "include %q: %w", in.lit, err)
			}

		case opBody:
			if !env.HasBody {
				return p.faultf(in, "body used outside a layout render")
			}
			p.buf.WriteString(env.Body)

		case opJmp:
			pc = in.a - 1

		case opJmpF:
			v, err := expr.Eval(in.ex, p)
			if err != nil {
				return p.faultf(in, "eval %s: %w", in.ex, err)
			}
			if !expr.Truthy(v) {
				pc = in.a - 1
			}

		case opIter:
			v, err := expr.Eval(in.ex, p)
			if err != nil {
				return p.faultf(in, "eval %s: %w", in.ex, err)
			}
			items, n, err := sequence(v)
			if err != nil {
				return p.faultf(in, "iterate %s: %w", in.ex, err)
			}
			if n == 0 {
				pc = in.a - 1
				continue
			}
			frames = append(frames, frame{items: items, n: n})
			p.vars = append(p.vars, loopVar{name: in.v, val: items.Index(0).Interface()})

		case opNext:
			if err := env.Ctx.Err(); err != nil {
				return err
			}
			if len(frames) == 0 {
				return p.faultf(in, "next without open loop")
			}
			f := &frames[len(frames)-1]
			f.idx++
			if f.idx < f.n {
				p.vars[len(p.vars)-1].val = f.items.Index(f.idx).Interface()
				pc = in.a - 1
				continue
			}
			frames = frames[:len(frames)-1]
			p.vars = p.vars[:len(p.vars)-1]

		case opNote:
			slog.Debug("page note", "unit", p.unit.name, "note", in.lit)

		case opNop:
			// label placeholder in debug builds
		}
	}
	return nil
}

// faultf wraps a runtime fault with the unit name and listing line.
func (p *Page) faultf(in *instr, format string, args ...any) error {
	return fmt.Errorf("unit %q line %d: %w", p.unit.name, in.line, fmt.Errorf(format, args...))
}

// sequence views a value as an indexable sequence for iteration.
// nil counts as empty rather than an error.
func sequence(v any) (reflect.Value, int, error) {
	if v == nil {
		return reflect.Value{}, 0, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, 0, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv, rv.Len(), nil
	default:
		return reflect.Value{}, 0, fmt.Errorf("cannot iterate %s", rv.Kind())
	}
}

// Root resolves expression roots during execution: loop variables
// shadow the model name, which shadows injected members.
func (p *Page) Root(name string) (any, bool) {
	for i := len(p.vars) - 1; i >= 0; i-- {
		if p.vars[i].name == name {
			return p.vars[i].val, true
		}
	}
	if name == "Model" {
		return p.model, true
	}
	v, ok := p.members[name]
	return v, ok
}

// Call dispatches a page function through the unit's references.
func (p *Page) Call(name string, args []any) (any, error) {
	if p.unit.refs == nil {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	return p.unit.refs.call(name, args)
}
