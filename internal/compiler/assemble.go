// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"pressroom/internal/diag"
	"pressroom/internal/expr"
	"pressroom/internal/pageasm"
)

// assemble lowers a linted unit source into an executable unit. In
// optimized builds adjacent emits fold into one instruction and mark
// statements vanish, with jump targets rewritten to the surviving
// program counters. Debug builds keep a one-to-one statement mapping.
func assemble(name string, src *UnitSource, opts Options, refs *references) (*Unit, []diag.Diagnostic) {
	stmts := src.Stmts
	if opts.Optimize {
		stmts = foldEmits(stmts)
	}

	// First pass: assign program counters and collect label addresses.
	labels := make(map[string]int)
	pc := 0
	for _, s := range stmts {
		if s.Op == pageasm.OpMark {
			labels[s.Label] = pc
			if opts.Optimize {
				continue
			}
		}
		pc++
	}

	var ds []diag.Diagnostic
	u := &Unit{
		name:    name,
		model:   src.Model,
		layout:  src.Layout,
		injects: src.Injects,
		prog:    make([]instr, 0, pc),
		refs:    refs,
	}

	target := func(s Stmt) int {
		a, ok := labels[s.Label]
		if !ok {
			ds = append(ds, diag.Errorf(s.Line, 1, "%s targets undefined label %q", s.Op, s.Label))
			return 0
		}
		return a
	}
	parse := func(s Stmt) expr.Expr {
		e, err := expr.Parse(s.Expr)
		if err != nil {
			ds = append(ds, diag.Errorf(s.Line, 1, "invalid expression %q: %v", s.Expr, err))
		}
		return e
	}

	// Second pass: materialize instructions.
	for _, s := range stmts {
		in := instr{line: s.Line}
		switch s.Op {
		case pageasm.OpEmit:
			in.op, in.lit = opEmit, s.Lit
		case pageasm.OpEval:
			in.op, in.ex, in.raw = opEval, parse(s), s.Mode == pageasm.ModeRaw
		case pageasm.OpIncl:
			in.op, in.lit = opIncl, s.Lit
		case pageasm.OpBody:
			in.op = opBody
		case pageasm.OpJmp:
			in.op, in.a = opJmp, target(s)
		case pageasm.OpJmpF:
			in.op, in.ex, in.a = opJmpF, parse(s), target(s)
		case pageasm.OpIter:
			in.op, in.ex, in.v, in.a = opIter, parse(s), s.Var, target(s)
		case pageasm.OpNext:
			in.op, in.a = opNext, target(s)
		case pageasm.OpNote:
			in.op, in.lit = opNote, s.Lit
		case pageasm.OpMark:
			if opts.Optimize {
				continue
			}
			in.op, in.lit = opNop, s.Label
		}
		u.prog = append(u.prog, in)
	}
	return u, ds
}

// foldEmits merges runs of adjacent emit statements and drops empty
// ones. Any other statement, including mark, breaks a run so jump
// landing points keep their exact output.
func foldEmits(stmts []Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		if s.Op == pageasm.OpEmit {
			if s.Lit == "" {
				continue
			}
			if n := len(out) - 1; n >= 0 && out[n].Op == pageasm.OpEmit {
				out[n].Lit += s.Lit
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
