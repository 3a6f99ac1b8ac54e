// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"pressroom/internal/diag"
	"pressroom/internal/pageasm"
)

// operand kinds for statement shape checks.
const (
	argQuoted = iota
	argBare
)

// parseListing reads program listing text into a UnitSource, applying
// the preprocessor against the defined symbols. All problems are
// collected as diagnostics; the result is only meaningful when none has
// error severity.
func parseListing(code string, defined map[string]bool) (*UnitSource, []diag.Diagnostic) {
	lines, ds := pageasm.Scan(code)
	p := &listingParser{src: &UnitSource{}, ds: ds}

	// Preprocessor branch stack: each frame remembers whether its
	// branch emits statements.
	type ppFrame struct {
		line   int
		active bool
		inElse bool
	}
	var pp []ppFrame
	active := func() bool {
		for _, f := range pp {
			if !f.active {
				return false
			}
		}
		return true
	}

	for _, l := range lines {
		switch l.Op() {
		case pageasm.PreIf:
			if args, ok := p.shape(l, argBare); ok {
				on := active() && defined[args[0].Text]
				pp = append(pp, ppFrame{line: l.No, active: on})
			}
			continue
		case pageasm.PreElse:
			if len(pp) == 0 {
				p.errf(l, "#else without open #if")
				continue
			}
			f := &pp[len(pp)-1]
			if f.inElse {
				p.errf(l, "duplicate #else")
				continue
			}
			f.inElse = true
			// The else branch runs when the if branch did not, under an
			// active parent.
			parent := true
			for _, g := range pp[:len(pp)-1] {
				parent = parent && g.active
			}
			f.active = parent && !f.active
			continue
		case pageasm.PreEndIf:
			if len(pp) == 0 {
				p.errf(l, "#endif without open #if")
				continue
			}
			pp = pp[:len(pp)-1]
			continue
		}

		if !active() {
			continue
		}
		p.statement(l)
	}

	for _, f := range pp {
		p.ds = append(p.ds, diag.Errorf(f.line, 1, "#if without matching #endif"))
	}
	return p.src, p.ds
}

type listingParser struct {
	src *UnitSource
	ds  []diag.Diagnostic
}

func (p *listingParser) errf(l pageasm.Line, format string, args ...any) {
	p.ds = append(p.ds, diag.Errorf(l.No, l.Fields[0].Col, format, args...))
}

// shape validates operand count and quoting for one statement and
// returns the operands on success.
func (p *listingParser) shape(l pageasm.Line, kinds ...int) ([]pageasm.Field, bool) {
	args := l.Fields[1:]
	if len(args) != len(kinds) {
		p.errf(l, "%s expects %d operand(s), got %d", l.Op(), len(kinds), len(args))
		return nil, false
	}
	for i, k := range kinds {
		if k == argQuoted && !args[i].Quoted {
			p.errf(l, "%s operand %d must be a quoted string", l.Op(), i+1)
			return nil, false
		}
		if k == argBare && args[i].Quoted {
			p.errf(l, "%s operand %d must be bare", l.Op(), i+1)
			return nil, false
		}
	}
	return args, true
}

func (p *listingParser) statement(l pageasm.Line) {
	s := Stmt{Line: l.No, Op: l.Op()}
	switch s.Op {
	case pageasm.DirUnit:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		if p.src.Name != "" {
			p.errf(l, "duplicate .unit directive")
			return
		}
		p.src.Name = args[0].Text
	case pageasm.DirModel:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		if p.src.Model != "" {
			p.errf(l, "duplicate .model directive")
			return
		}
		p.src.Model = args[0].Text
	case pageasm.DirLayout:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		if p.src.Layout != "" {
			p.errf(l, "duplicate .layout directive")
			return
		}
		p.src.Layout = args[0].Text
	case pageasm.DirInject:
		args, ok := p.shape(l, argQuoted, argQuoted)
		if !ok {
			return
		}
		for _, b := range p.src.Injects {
			if b.Member == args[0].Text {
				p.errf(l, "duplicate .inject member %q", b.Member)
				return
			}
		}
		p.src.Injects = append(p.src.Injects, Binding{Member: args[0].Text, Service: args[1].Text})
	case pageasm.OpEmit:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		s.Lit = args[0].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpEval:
		args, ok := p.shape(l, argQuoted, argBare)
		if !ok {
			return
		}
		if m := args[1].Text; m != pageasm.ModeEsc && m != pageasm.ModeRaw {
			p.errf(l, "eval mode must be esc or raw, got %q", m)
			return
		}
		s.Expr, s.Mode = args[0].Text, args[1].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpIncl:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		s.Lit = args[0].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpBody:
		if _, ok := p.shape(l); !ok {
			return
		}
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpJmp, pageasm.OpMark, pageasm.OpNext:
		args, ok := p.shape(l, argBare)
		if !ok {
			return
		}
		s.Label = args[0].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpJmpF:
		args, ok := p.shape(l, argQuoted, argBare)
		if !ok {
			return
		}
		s.Expr, s.Label = args[0].Text, args[1].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpIter:
		args, ok := p.shape(l, argQuoted, argBare, argBare)
		if !ok {
			return
		}
		s.Expr, s.Var, s.Label = args[0].Text, args[1].Text, args[2].Text
		p.src.Stmts = append(p.src.Stmts, s)
	case pageasm.OpNote:
		args, ok := p.shape(l, argQuoted)
		if !ok {
			return
		}
		s.Lit = args[0].Text
		p.src.Stmts = append(p.src.Stmts, s)
	default:
		p.errf(l, "unknown statement %q", s.Op)
	}
}
