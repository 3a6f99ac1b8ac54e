// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package parser turns page markup into a document tree. Markup is
// HTML-like text with @-prefixed holes and line directives:
//
//	@layout "shared/layout"
//	@model Greeting
//	@inject clock "clock"
//	<p>Hello @Model.Name, it is @clock.Now</p>
//	@if Model.Show
//	  @each tag in Model.Tags
//	    <span>@upper(tag)</span>
//	  @end
//	@end
//
// "@@" escapes a literal "@". "@raw(expr)" bypasses HTML escaping.
// Directives occupy whole lines; everything else is literal text with
// inline expressions.
package parser

import (
	"strings"

	"pressroom/internal/diag"
	"pressroom/internal/expr"
	"pressroom/internal/keys"
)

// Pos locates a node in the markup source, 1-based.
type Pos struct {
	Line int
	Col  int
}

// Node is one element of a parsed document body.
type Node interface {
	Position() Pos
}

// Text is a run of literal output.
type Text struct {
	Pos  Pos
	Text string
}

// Output writes the value of an expression. Raw output skips HTML
// escaping.
type Output struct {
	Pos  Pos
	Expr expr.Expr
	Raw  bool
}

// If renders Then when Cond is truthy, Else otherwise.
type If struct {
	Pos  Pos
	Cond expr.Expr
	Then []Node
	Else []Node
}

// Each renders Body once per element of Seq, binding Var.
type Each struct {
	Pos  Pos
	Var  string
	Seq  expr.Expr
	Body []Node
}

// Include renders another template inline.
type Include struct {
	Pos Pos
	Key string
}

// Body marks where a layout renders the inner page.
type Body struct {
	Pos Pos
}

func (n *Text) Position() Pos    { return n.Pos }
func (n *Output) Position() Pos  { return n.Pos }
func (n *If) Position() Pos      { return n.Pos }
func (n *Each) Position() Pos    { return n.Pos }
func (n *Include) Position() Pos { return n.Pos }
func (n *Body) Position() Pos    { return n.Pos }

// InjectDecl is one @inject directive: bind the named member from the
// service registry before rendering.
type InjectDecl struct {
	Pos     Pos
	Member  string
	Service string
}

// Document is a fully parsed page source.
type Document struct {
	Layout  string
	Model   string
	Injects []InjectDecl
	Nodes   []Node
}

// Parse reads markup into a document. The returned diagnostics carry
// every problem found; the document is only usable when none of them
// has error severity.
func Parse(source string) (*Document, []diag.Diagnostic) {
	p := &parser{doc: &Document{}}
	p.run(source)
	return p.doc, p.ds
}

type parser struct {
	doc *Document
	ds  []diag.Diagnostic

	// stack of open blocks; stack[0] is the document root.
	stack []*frame
}

type frame struct {
	pos    Pos
	ifNode *If
	each   *Each
	inElse bool
	nodes  []Node
}

func (p *parser) errf(pos Pos, format string, args ...any) {
	p.ds = append(p.ds, diag.Errorf(pos.Line, pos.Col, format, args...))
}

func (p *parser) top() *frame { return p.stack[len(p.stack)-1] }

func (p *parser) append(n Node) {
	t := p.top()
	t.nodes = append(t.nodes, n)
}

func (p *parser) run(source string) {
	p.stack = []*frame{{}}
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		no := i + 1
		if kw, rest, col, ok := directive(line); ok {
			p.directive(Pos{Line: no, Col: col}, kw, rest)
			continue
		}
		if i < len(lines)-1 {
			line += "\n"
		}
		if line != "" {
			p.content(no, line)
		}
	}

	for len(p.stack) > 1 {
		f := p.top()
		if f.ifNode != nil {
			p.errf(f.pos, "@if without matching @end")
		} else {
			p.errf(f.pos, "@each without matching @end")
		}
		p.pop()
	}
	p.doc.Nodes = p.stack[0].nodes
}

// directive reports whether line holds a line directive, returning the
// keyword, the remainder after it, and the column of the "@".
func directive(line string) (kw, rest string, col int, ok bool) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) || line[i] != '@' {
		return "", "", 0, false
	}
	j := i + 1
	for j < len(line) && line[j] >= 'a' && line[j] <= 'z' {
		j++
	}
	if j < len(line) && isIdent(line[j]) {
		// Word continues past the lowercase run: an expression like
		// @modelName, not a directive.
		return "", "", 0, false
	}
	switch kw = line[i+1 : j]; kw {
	case "layout", "model", "inject", "include", "renderbody", "if", "else", "end", "each":
		return kw, line[j:], i + 1, true
	}
	return "", "", 0, false
}

func (p *parser) directive(pos Pos, kw, rest string) {
	switch kw {
	case "layout":
		key, ok := p.stringArg(pos, kw, rest)
		if !ok {
			return
		}
		if p.doc.Layout != "" {
			p.errf(pos, "duplicate @layout directive")
			return
		}
		if err := keys.Validate(key); err != nil {
			p.errf(pos, "@layout: %v", err)
			return
		}
		p.doc.Layout = key
	case "model":
		name, ok := p.identArg(pos, kw, rest)
		if !ok {
			return
		}
		if p.doc.Model != "" {
			p.errf(pos, "duplicate @model directive")
			return
		}
		p.doc.Model = name
	case "inject":
		p.inject(pos, rest)
	case "include":
		key, ok := p.stringArg(pos, kw, rest)
		if !ok {
			return
		}
		if err := keys.Validate(key); err != nil {
			p.errf(pos, "@include: %v", err)
			return
		}
		p.append(&Include{Pos: pos, Key: key})
	case "renderbody":
		if !p.noArgs(pos, kw, rest) {
			return
		}
		p.append(&Body{Pos: pos})
	case "if":
		cond, ok := p.exprArg(pos, kw, rest)
		if !ok {
			return
		}
		n := &If{Pos: pos, Cond: cond}
		p.stack = append(p.stack, &frame{pos: pos, ifNode: n})
	case "else":
		if !p.noArgs(pos, kw, rest) {
			return
		}
		f := p.top()
		if f.ifNode == nil {
			p.errf(pos, "@else without open @if")
			return
		}
		if f.inElse {
			p.errf(pos, "duplicate @else")
			return
		}
		f.ifNode.Then = f.nodes
		f.nodes = nil
		f.inElse = true
	case "end":
		if !p.noArgs(pos, kw, rest) {
			return
		}
		if len(p.stack) == 1 {
			p.errf(pos, "@end without open block")
			return
		}
		p.pop()
	case "each":
		p.eachHeader(pos, rest)
	}
}

// pop closes the innermost block and appends its node to the parent.
func (p *parser) pop() {
	f := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	switch {
	case f.ifNode != nil:
		if f.inElse {
			f.ifNode.Else = f.nodes
		} else {
			f.ifNode.Then = f.nodes
		}
		p.append(f.ifNode)
	case f.each != nil:
		f.each.Body = f.nodes
		p.append(f.each)
	}
}

func (p *parser) inject(pos Pos, rest string) {
	s := strings.TrimLeft(rest, " \t")
	member, n := ident(s)
	if member == "" {
		p.errf(pos, "@inject requires a member name")
		return
	}
	s = strings.TrimLeft(s[n:], " \t")
	service, n, ok := quoted(s)
	if !ok || strings.TrimSpace(s[n:]) != "" {
		p.errf(pos, `@inject requires a quoted service name: @inject %s "service"`, member)
		return
	}
	for _, d := range p.doc.Injects {
		if d.Member == member {
			p.errf(pos, "duplicate @inject member %q", member)
			return
		}
	}
	p.doc.Injects = append(p.doc.Injects, InjectDecl{Pos: pos, Member: member, Service: service})
}

func (p *parser) eachHeader(pos Pos, rest string) {
	s := strings.TrimLeft(rest, " \t")
	v, n := ident(s)
	if v == "" {
		p.errf(pos, "@each requires a loop variable: @each item in Model.Items")
		return
	}
	s = strings.TrimLeft(s[n:], " \t")
	if !strings.HasPrefix(s, "in") || (len(s) > 2 && s[2] != ' ' && s[2] != '\t') {
		p.errf(pos, "@each requires 'in': @each %s in Model.Items", v)
		return
	}
	seq, err := expr.Parse(s[2:])
	if err != nil {
		p.errf(pos, "invalid @each sequence: %v", err)
		return
	}
	n2 := &Each{Pos: pos, Var: v, Seq: seq}
	p.stack = append(p.stack, &frame{pos: pos, each: n2})
}

func (p *parser) stringArg(pos Pos, kw, rest string) (string, bool) {
	s := strings.TrimLeft(rest, " \t")
	v, n, ok := quoted(s)
	if !ok || strings.TrimSpace(s[n:]) != "" {
		p.errf(pos, `@%s requires one quoted argument: @%s "key"`, kw, kw)
		return "", false
	}
	if v == "" {
		p.errf(pos, "@%s key is empty", kw)
		return "", false
	}
	return v, true
}

func (p *parser) identArg(pos Pos, kw, rest string) (string, bool) {
	s := strings.TrimLeft(rest, " \t")
	v, n := ident(s)
	if v == "" || strings.TrimSpace(s[n:]) != "" {
		p.errf(pos, "@%s requires one type name: @%s Greeting", kw, kw)
		return "", false
	}
	return v, true
}

func (p *parser) noArgs(pos Pos, kw, rest string) bool {
	if strings.TrimSpace(rest) != "" {
		p.errf(pos, "unexpected content after @%s", kw)
		return false
	}
	return true
}

func (p *parser) exprArg(pos Pos, kw, rest string) (expr.Expr, bool) {
	if strings.TrimSpace(rest) == "" {
		p.errf(pos, "@%s requires a condition", kw)
		return nil, false
	}
	e, err := expr.Parse(rest)
	if err != nil {
		p.errf(pos, "invalid @%s condition: %v", kw, err)
		return nil, false
	}
	return e, true
}
