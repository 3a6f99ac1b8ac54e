// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package expr parses and evaluates page expressions. The grammar is
// deliberately small: dotted paths rooted at a name ("Model.User.Name"),
// function calls with nested arguments ("join(Model.Tags, ", ")"), and
// string, integer, and boolean literals. There are no operators.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a parsed expression node.
type Expr interface {
	// String renders the canonical source form of the expression.
	String() string
}

// Path is a dotted lookup rooted at a name: the model, an injected
// member, or a loop variable.
type Path struct {
	Root string
	Segs []string
}

func (p *Path) String() string {
	if len(p.Segs) == 0 {
		return p.Root
	}
	return p.Root + "." + strings.Join(p.Segs, ".")
}

// Call is a function invocation.
type Call struct {
	Name string
	Args []Expr
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Str is a string literal.
type Str struct {
	V string
}

func (s *Str) String() string { return strconv.Quote(s.V) }

// Int is an integer literal.
type Int struct {
	V int
}

func (n *Int) String() string { return strconv.Itoa(n.V) }

// Bool is a boolean literal.
type Bool struct {
	V bool
}

func (b *Bool) String() string { return strconv.FormatBool(b.V) }

// Walk calls fn for e and every subexpression of e.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	if c, ok := e.(*Call); ok {
		for _, a := range c.Args {
			Walk(a, fn)
		}
	}
}

// ParseError reports a syntax error with the byte offset where it was
// detected, so callers can map it back into the surrounding source.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// Parse reads src as a single complete expression.
func Parse(src string) (Expr, error) {
	p := &parser{src: src}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errf("unexpected %q after expression", rest(p.src[p.pos:]))
	}
	return e, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errf(format string, args ...any) *ParseError {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func rest(s string) string {
	if len(s) > 12 {
		return s[:12] + "..."
	}
	return s
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) ident() (string, error) {
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		return "", p.errf("expected identifier")
	}
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *parser) expr() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errf("expected expression")
	}
	switch c := p.src[p.pos]; {
	case c == '"':
		return p.stringLit()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.intLit()
	case isIdentStart(c):
		return p.nameExpr()
	default:
		return nil, p.errf("unexpected %q", rest(p.src[p.pos:]))
	}
}

func (p *parser) stringLit() (Expr, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			v, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				p.pos = start
				return nil, p.errf("invalid string literal")
			}
			return &Str{V: v}, nil
		}
		p.pos++
	}
	p.pos = start
	return nil, p.errf("unterminated string literal")
}

func (p *parser) intLit() (Expr, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	v, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return nil, p.errf("invalid integer literal %q", p.src[start:p.pos])
	}
	return &Int{V: v}, nil
}

// nameExpr parses a bare name into a boolean literal, a call, or a path.
func (p *parser) nameExpr() (Expr, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		return p.call(name)
	}

	switch name {
	case "true":
		return &Bool{V: true}, nil
	case "false":
		return &Bool{V: false}, nil
	}

	path := &Path{Root: name}
	for p.pos+1 < len(p.src) && p.src[p.pos] == '.' && isIdentStart(p.src[p.pos+1]) {
		p.pos++
		seg, err := p.ident()
		if err != nil {
			return nil, err
		}
		path.Segs = append(path.Segs, seg)
	}
	return path, nil
}

func (p *parser) call(name string) (Expr, error) {
	p.pos++ // consume '('
	call := &Call{Name: name}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return call, nil
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errf("unterminated call to %s", name)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call, nil
		default:
			return nil, p.errf("expected ',' or ')' in call to %s", name)
		}
	}
}
