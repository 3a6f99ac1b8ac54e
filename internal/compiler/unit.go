// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"fmt"

	"pressroom/internal/expr"
)

// Binding declares one injected member: before a page renders, the
// injector assigns the service named Service to the member named Member.
type Binding struct {
	Member  string
	Service string
}

// Unit is a compiled, loadable program. Units are immutable once built
// and safe for concurrent use; per-render state lives on pages created
// through NewPage.
type Unit struct {
	name    string
	model   string
	layout  string
	injects []Binding
	prog    []instr
	refs    *references
}

// Name returns the unit name given at compile time.
func (u *Unit) Name() string { return u.name }

// ModelName returns the declared model type name, empty when the source
// had no .model directive.
func (u *Unit) ModelName() string { return u.model }

// LayoutKey returns the declared layout template key, empty when the
// unit renders standalone.
func (u *Unit) LayoutKey() string { return u.layout }

// Injects returns the declared member bindings in declaration order.
// The returned slice is shared; callers must not modify it.
func (u *Unit) Injects() []Binding { return u.injects }

// NewPage creates a fresh page instance for one render. Pages are never
// pooled or reused.
func (u *Unit) NewPage() *Page {
	return &Page{
		unit:    u,
		members: make(map[string]any, len(u.injects)),
	}
}

// Setter returns the assignment function for a declared member, or
// false when the unit declares no such member. The returned function is
// safe to cache for the unit's lifetime.
func (u *Unit) Setter(member string) (func(p *Page, v any) error, bool) {
	declared := false
	for _, b := range u.injects {
		if b.Member == member {
			declared = true
			break
		}
	}
	if !declared {
		return nil, false
	}
	return func(p *Page, v any) error {
		if p.unit != u {
			return fmt.Errorf("setter for unit %q applied to page of unit %q", u.name, p.unit.name)
		}
		p.members[member] = v
		return nil
	}, true
}

// instruction opcodes after assembly.
const (
	opEmit = iota // write lit
	opEval        // evaluate ex, write formatted result (escaped unless raw)
	opIncl        // render template lit into the output
	opBody        // write the layout body content
	opJmp         // jump to pc a
	opJmpF        // jump to pc a when ex is falsy
	opIter        // begin iterating ex as v; jump to pc a when exhausted
	opNext        // advance innermost iteration; jump to pc a while elements remain
	opNote        // trace marker, writes nothing
	opNop         // alignment placeholder kept in debug builds
)

// instr is one assembled instruction. line preserves the program
// listing line for runtime error context.
type instr struct {
	op   int
	lit  string
	ex   expr.Expr
	raw  bool
	v    string
	a    int
	line int
}

// UnitSource is the rewritable pre-assembly form of a unit: header
// metadata plus the statement list parsed from the program listing.
// Rewrite hooks receive it after parsing and may modify it freely.
type UnitSource struct {
	Name    string
	Model   string
	Layout  string
	Injects []Binding
	Stmts   []Stmt
}

// Stmt is one parsed program statement. Which fields are meaningful
// depends on Op (a pageasm opcode): Lit for emit/incl/note, Expr and
// Mode for eval, Expr/Var/Label for iter, Label for jmp/jmpf/mark/next.
type Stmt struct {
	Line  int
	Op    string
	Lit   string
	Expr  string
	Mode  string
	Var   string
	Label string
}
