// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package parser

import (
	"errors"
	"strconv"
	"strings"

	"pressroom/internal/expr"
)

// content scans one literal line for inline "@" holes and appends the
// resulting text and output nodes.
func (p *parser) content(no int, line string) {
	var (
		text    strings.Builder
		textCol = 1
	)
	flush := func() {
		if text.Len() > 0 {
			p.append(&Text{Pos: Pos{Line: no, Col: textCol}, Text: text.String()})
			text.Reset()
		}
	}

	i := 0
	for i < len(line) {
		c := line[i]
		if c != '@' {
			if text.Len() == 0 {
				textCol = i + 1
			}
			text.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == '@' {
			if text.Len() == 0 {
				textCol = i + 1
			}
			text.WriteByte('@')
			i += 2
			continue
		}
		if i+1 >= len(line) || !isIdentStart(line[i+1]) {
			p.errf(Pos{Line: no, Col: i + 1}, "unexpected %s after '@'; use \"@@\" for a literal '@'", after(line, i+1))
			i++
			continue
		}

		flush()
		pos := Pos{Line: no, Col: i + 1}
		span, next, err := exprSpan(line, i+1)
		if err != nil {
			p.errf(pos, "%v", err)
			i = next
			continue
		}
		p.output(pos, span, i+1)
		i = next
	}
	flush()
}

// output parses one inline expression span into an Output node. raw()
// is unwrapped here so escaping is decided at parse time.
func (p *parser) output(pos Pos, span string, startOff int) {
	raw := false
	src := span
	if inner, ok := strings.CutPrefix(span, "raw("); ok && strings.HasSuffix(span, ")") {
		raw = true
		src = strings.TrimSuffix(inner, ")")
		startOff += len("raw(")
	}
	e, err := expr.Parse(src)
	if err != nil {
		var pe *expr.ParseError
		if errors.As(err, &pe) {
			p.errf(Pos{Line: pos.Line, Col: startOff + 1 + pe.Offset}, "invalid expression: %s", pe.Msg)
		} else {
			p.errf(pos, "invalid expression: %v", err)
		}
		return
	}
	p.append(&Output{Pos: pos, Expr: e, Raw: raw})
}

// exprSpan extracts the source text of an inline expression starting at
// offset i (just past the '@'): either a call with balanced parentheses
// or a dotted path. It returns the span and the offset after it.
func exprSpan(line string, i int) (span string, next int, err error) {
	start := i
	for i < len(line) && isIdent(line[i]) {
		i++
	}

	if i < len(line) && line[i] == '(' {
		depth := 0
		for i < len(line) {
			switch line[i] {
			case '"':
				j, ok := skipString(line, i)
				if !ok {
					return "", len(line), errors.New("unterminated string in expression")
				}
				i = j
				continue
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return line[start : i+1], i + 1, nil
				}
			}
			i++
		}
		return "", len(line), errors.New("unterminated call expression")
	}

	for i+1 < len(line) && line[i] == '.' && isIdentStart(line[i+1]) {
		i++
		for i < len(line) && isIdent(line[i]) {
			i++
		}
	}
	return line[start:i], i, nil
}

// skipString advances past a double-quoted string starting at i,
// returning the offset after the closing quote.
func skipString(s string, i int) (int, bool) {
	i++
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, true
		default:
			i++
		}
	}
	return i, false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// ident reads a leading identifier from s, returning it and the number
// of bytes consumed.
func ident(s string) (string, int) {
	if s == "" || !isIdentStart(s[0]) {
		return "", 0
	}
	i := 1
	for i < len(s) && isIdent(s[i]) {
		i++
	}
	return s[:i], i
}

// quoted reads a leading Go-quoted string from s.
func quoted(s string) (string, int, bool) {
	if s == "" || s[0] != '"' {
		return "", 0, false
	}
	end, ok := skipString(s, 0)
	if !ok {
		return "", 0, false
	}
	v, err := strconv.Unquote(s[:end])
	if err != nil {
		return "", 0, false
	}
	return v, end, true
}

// after returns a short quoted preview of line content from offset i.
func after(line string, i int) string {
	if i >= len(line) || line[i] == '\n' {
		return "end of line"
	}
	end := i + 8
	if end > len(line) {
		end = len(line)
	}
	return strconv.Quote(strings.TrimSuffix(line[i:end], "\n"))
}
