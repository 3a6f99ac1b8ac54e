// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"pressroom/internal/diag"
	"pressroom/internal/expr"
	"pressroom/internal/keys"
	"pressroom/internal/pageasm"
)

// lint checks a unit source after rewrite hooks have run: label
// integrity, expression syntax, reference resolution, and the warning
// set (unused labels, constant eval, empty emit).
func lint(src *UnitSource, refs *references) []diag.Diagnostic {
	var ds []diag.Diagnostic

	if src.Layout != "" {
		if err := keys.Validate(src.Layout); err != nil {
			ds = append(ds, diag.Errorf(1, 1, "invalid .layout key: %v", err))
		}
	}

	defined := map[string]int{} // label -> defining line
	targeted := map[string]bool{}
	for _, s := range src.Stmts {
		if s.Op == pageasm.OpMark {
			if prev, ok := defined[s.Label]; ok {
				ds = append(ds, diag.Errorf(s.Line, 1, "label %q already defined at line %d", s.Label, prev))
				continue
			}
			defined[s.Label] = s.Line
		}
	}

	for _, s := range src.Stmts {
		switch s.Op {
		case pageasm.OpEmit:
			if s.Lit == "" {
				ds = append(ds, diag.Warnf(s.Line, 1, "empty emit"))
			}
		case pageasm.OpEval:
			e, ok := lintExpr(&ds, s, refs)
			if ok {
				switch e.(type) {
				case *expr.Str, *expr.Int, *expr.Bool:
					ds = append(ds, diag.Warnf(s.Line, 1, "eval of constant %s; prefer emit", e))
				}
			}
		case pageasm.OpIncl:
			if err := keys.Validate(s.Lit); err != nil {
				ds = append(ds, diag.Errorf(s.Line, 1, "invalid incl key: %v", err))
			}
		case pageasm.OpJmp, pageasm.OpNext:
			lintTarget(&ds, s, defined, targeted)
		case pageasm.OpJmpF:
			lintExpr(&ds, s, refs)
			lintTarget(&ds, s, defined, targeted)
		case pageasm.OpIter:
			lintExpr(&ds, s, refs)
			lintTarget(&ds, s, defined, targeted)
			if _, n := identLen(s.Var); n != len(s.Var) || n == 0 {
				ds = append(ds, diag.Errorf(s.Line, 1, "invalid loop variable %q", s.Var))
			}
		}
	}

	for label, line := range defined {
		if !targeted[label] {
			ds = append(ds, diag.Warnf(line, 1, "label %q defined but never targeted", label))
		}
	}
	return ds
}

// lintExpr parses a statement's expression operand and checks every
// call against the resolved references.
func lintExpr(ds *[]diag.Diagnostic, s Stmt, refs *references) (expr.Expr, bool) {
	e, err := expr.Parse(s.Expr)
	if err != nil {
		*ds = append(*ds, diag.Errorf(s.Line, 1, "invalid expression %q: %v", s.Expr, err))
		return nil, false
	}
	expr.Walk(e, func(sub expr.Expr) {
		if c, ok := sub.(*expr.Call); ok && !refs.has(c.Name) {
			*ds = append(*ds, diag.Errorf(s.Line, 1, "call to unknown function %q", c.Name))
		}
	})
	return e, true
}

func lintTarget(ds *[]diag.Diagnostic, s Stmt, defined map[string]int, targeted map[string]bool) {
	if _, ok := defined[s.Label]; !ok {
		*ds = append(*ds, diag.Errorf(s.Line, 1, "%s targets undefined label %q", s.Op, s.Label))
		return
	}
	targeted[s.Label] = true
}

// identLen returns the leading identifier of s and its length.
func identLen(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	c := s[0]
	if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return "", 0
	}
	i := 1
	for i < len(s) {
		c := s[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			break
		}
		i++
	}
	return s[:i], i
}
