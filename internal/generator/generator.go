// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generator lowers parsed page markup into program listings for
// the compiler service. Generation is a pure function of the source:
// no caching, no I/O.
package generator

import (
	"fmt"

	"pressroom/internal/diag"
	"pressroom/internal/expr"
	"pressroom/internal/pageasm"
	"pressroom/internal/parser"
	"pressroom/internal/project"
)

// GeneratedTemplate pairs a source item with the program listing
// generated from it.
type GeneratedTemplate struct {
	Item project.Item
	Code string
}

// Key returns the template key the listing was generated from.
func (t *GeneratedTemplate) Key() string { return t.Item.Key }

// TemplateGenerationError reports markup that failed to parse or bind,
// with every diagnostic collected.
type TemplateGenerationError struct {
	Key         string
	Diagnostics []diag.Diagnostic
}

func (e *TemplateGenerationError) Error() string {
	return fmt.Sprintf("generating template %q: %d problem(s)\n%s",
		e.Key, len(e.Diagnostics), diag.FormatAll(e.Key, e.Diagnostics))
}

// Generator turns source items into program listings.
type Generator struct{}

// New creates a generator.
func New() *Generator {
	return &Generator{}
}

// Generate parses item's markup and emits its program listing. Failures
// return a *TemplateGenerationError carrying the parser and binding
// diagnostics.
func (g *Generator) Generate(item project.Item) (*GeneratedTemplate, error) {
	if !item.Exists {
		return nil, fmt.Errorf("template %q has no source", item.Key)
	}

	doc, ds := parser.Parse(item.Source)
	if !diag.HasErrors(ds) {
		ds = append(ds, bindCheck(doc)...)
	}
	if diag.HasErrors(ds) {
		return nil, &TemplateGenerationError{Key: item.Key, Diagnostics: ds}
	}

	var w pageasm.Writer
	w.Unit(item.Key)
	if doc.Model != "" {
		w.Model(doc.Model)
	}
	if doc.Layout != "" {
		w.Layout(doc.Layout)
	}
	for _, inj := range doc.Injects {
		w.Inject(inj.Member, inj.Service)
	}
	w.If("trace")
	w.Note("source " + item.Key)
	w.EndIf()

	emit(&w, doc.Nodes)
	return &GeneratedTemplate{Item: item, Code: w.String()}, nil
}

// emit writes the statement sequence for a node list.
func emit(w *pageasm.Writer, nodes []parser.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *parser.Text:
			w.Emit(n.Text)
		case *parser.Output:
			w.Eval(n.Expr.String(), n.Raw)
		case *parser.Include:
			w.Include(n.Key)
		case *parser.Body:
			w.Body()
		case *parser.If:
			if len(n.Else) == 0 {
				end := w.Label()
				w.JumpFalse(n.Cond.String(), end)
				emit(w, n.Then)
				w.Mark(end)
				continue
			}
			els, end := w.Label(), w.Label()
			w.JumpFalse(n.Cond.String(), els)
			emit(w, n.Then)
			w.Jump(end)
			w.Mark(els)
			emit(w, n.Else)
			w.Mark(end)
		case *parser.Each:
			end, body := w.Label(), w.Label()
			w.Iter(n.Seq.String(), n.Var, end)
			w.Mark(body)
			emit(w, n.Body)
			w.Next(body)
			w.Mark(end)
		}
	}
}

// bindCheck verifies every expression root resolves to the model, an
// injected member, or a loop variable in scope at that point.
func bindCheck(doc *parser.Document) []diag.Diagnostic {
	members := make(map[string]bool, len(doc.Injects))
	for _, inj := range doc.Injects {
		members[inj.Member] = true
	}
	c := &checker{members: members}
	c.nodes(doc.Nodes)
	return c.ds
}

type checker struct {
	members map[string]bool
	scope   []string // loop variables, innermost last
	ds      []diag.Diagnostic
}

func (c *checker) nodes(nodes []parser.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *parser.Output:
			c.expr(n.Pos, n.Expr)
		case *parser.If:
			c.expr(n.Pos, n.Cond)
			c.nodes(n.Then)
			c.nodes(n.Else)
		case *parser.Each:
			c.expr(n.Pos, n.Seq)
			c.scope = append(c.scope, n.Var)
			c.nodes(n.Body)
			c.scope = c.scope[:len(c.scope)-1]
		}
	}
}

func (c *checker) expr(pos parser.Pos, e expr.Expr) {
	expr.Walk(e, func(sub expr.Expr) {
		p, ok := sub.(*expr.Path)
		if !ok {
			return
		}
		if p.Root == "Model" || c.members[p.Root] {
			return
		}
		for _, v := range c.scope {
			if v == p.Root {
				return
			}
		}
		c.ds = append(c.ds, diag.Errorf(pos.Line, pos.Col,
			"unknown name %q; expected Model, an injected member, or a loop variable", p.Root))
	})
}
