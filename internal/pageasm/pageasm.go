// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pageasm defines the intermediate listing format that sits
// between the page generator and the page compiler. A listing is plain
// text, one statement per line:
//
//	.unit "home"
//	.model "Greeting"
//	emit "Hello "
//	eval "Model.Name" esc
//
// String operands are Go-quoted. Bare fields carry opcodes, labels,
// loop variables, and output modes. ";" starts a comment, and "#if",
// "#else", "#endif" lines drive the compiler's preprocessor.
package pageasm

import (
	"fmt"
	"strconv"
	"strings"

	"pressroom/internal/diag"
)

// Header directives.
const (
	DirUnit   = ".unit"
	DirModel  = ".model"
	DirLayout = ".layout"
	DirInject = ".inject"
)

// Preprocessor keywords.
const (
	PreIf    = "#if"
	PreElse  = "#else"
	PreEndIf = "#endif"
)

// Opcodes.
const (
	OpEmit = "emit" // emit "lit"            write a literal
	OpEval = "eval" // eval "expr" esc|raw   write an expression result
	OpIncl = "incl" // incl "key"            render another template inline
	OpBody = "body" // body                  render the inner page (layouts only)
	OpJmp  = "jmp"  // jmp L                 unconditional jump
	OpJmpF = "jmpf" // jmpf "expr" L         jump when expr is falsy
	OpMark = "mark" // mark L                label definition
	OpIter = "iter" // iter "expr" v L       start loop, L targets loop end
	OpNext = "next" // next L                advance loop, L targets loop body
	OpNote = "note" // note "msg"            no-op annotation
)

// Output modes for eval.
const (
	ModeEsc = "esc"
	ModeRaw = "raw"
)

// Field is one whitespace-separated operand on a listing line. Quoted
// fields hold their decoded text.
type Field struct {
	Col    int
	Text   string
	Quoted bool
}

// Line is one non-blank listing line.
type Line struct {
	No     int
	Fields []Field
}

// Op returns the first field's text, the statement's opcode or directive.
func (l Line) Op() string {
	return l.Fields[0].Text
}

// Scan splits a listing into statement lines. Blank and comment-only
// lines are dropped. Malformed string literals become diagnostics and
// the offending line is skipped.
func Scan(listing string) ([]Line, []diag.Diagnostic) {
	var (
		lines []Line
		ds    []diag.Diagnostic
	)
	for i, raw := range strings.Split(listing, "\n") {
		fields, d := scanFields(i+1, raw)
		if d != nil {
			ds = append(ds, *d)
			continue
		}
		if len(fields) > 0 {
			lines = append(lines, Line{No: i + 1, Fields: fields})
		}
	}
	return lines, ds
}

func scanFields(no int, line string) ([]Field, *diag.Diagnostic) {
	var fields []Field
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ', '\t', '\r':
			i++
		case ';':
			return fields, nil
		case '"':
			start := i
			i++
			for i < len(line) {
				if line[i] == '\\' {
					i += 2
					continue
				}
				if line[i] == '"' {
					break
				}
				i++
			}
			if i >= len(line) {
				d := diag.Errorf(no, start+1, "unterminated string literal")
				return nil, &d
			}
			i++
			text, err := strconv.Unquote(line[start:i])
			if err != nil {
				d := diag.Errorf(no, start+1, "invalid string literal %s", line[start:i])
				return nil, &d
			}
			fields = append(fields, Field{Col: start + 1, Text: text, Quoted: true})
		default:
			start := i
			for i < len(line) && !strings.ContainsRune(" \t\r;\"", rune(line[i])) {
				i++
			}
			fields = append(fields, Field{Col: start + 1, Text: line[start:i]})
		}
	}
	return fields, nil
}

// Writer builds a listing statement by statement. The zero value is
// ready to use.
type Writer struct {
	b      strings.Builder
	labels int
}

func (w *Writer) line(fields ...string) {
	w.b.WriteString(strings.Join(fields, " "))
	w.b.WriteByte('\n')
}

func q(s string) string { return strconv.Quote(s) }

// Label allocates the next label name: L1, L2, and so on.
func (w *Writer) Label() string {
	w.labels++
	return fmt.Sprintf("L%d", w.labels)
}

// Unit writes the .unit header directive.
func (w *Writer) Unit(name string) { w.line(DirUnit, q(name)) }

// Model writes the .model header directive.
func (w *Writer) Model(name string) { w.line(DirModel, q(name)) }

// Layout writes the .layout header directive.
func (w *Writer) Layout(key string) { w.line(DirLayout, q(key)) }

// Inject writes the .inject header directive.
func (w *Writer) Inject(member, service string) { w.line(DirInject, q(member), q(service)) }

// Emit writes a literal-output statement.
func (w *Writer) Emit(lit string) { w.line(OpEmit, q(lit)) }

// Eval writes an expression-output statement.
func (w *Writer) Eval(expr string, raw bool) {
	mode := ModeEsc
	if raw {
		mode = ModeRaw
	}
	w.line(OpEval, q(expr), mode)
}

// Include writes an inline-render statement for another template key.
func (w *Writer) Include(key string) { w.line(OpIncl, q(key)) }

// Body writes the layout body slot statement.
func (w *Writer) Body() { w.line(OpBody) }

// Jump writes an unconditional jump to label.
func (w *Writer) Jump(label string) { w.line(OpJmp, label) }

// JumpFalse writes a conditional jump taken when expr is falsy.
func (w *Writer) JumpFalse(expr, label string) { w.line(OpJmpF, q(expr), label) }

// Mark writes a label definition.
func (w *Writer) Mark(label string) { w.line(OpMark, label) }

// Iter writes a loop-start statement binding v to elements of expr.
// end is jumped to when the sequence is empty or exhausted.
func (w *Writer) Iter(expr, v, end string) { w.line(OpIter, q(expr), v, end) }

// Next writes a loop-advance statement jumping back to body while
// elements remain.
func (w *Writer) Next(body string) { w.line(OpNext, body) }

// Note writes a no-op annotation carried into the compiled unit.
func (w *Writer) Note(msg string) { w.line(OpNote, q(msg)) }

// If opens a preprocessor conditional on sym.
func (w *Writer) If(sym string) { w.line(PreIf, sym) }

// Else switches the open preprocessor conditional.
func (w *Writer) Else() { w.line(PreElse) }

// EndIf closes the open preprocessor conditional.
func (w *Writer) EndIf() { w.line(PreEndIf) }

// Comment writes a full-line comment.
func (w *Writer) Comment(text string) { w.line(";", text) }

// String returns the listing text written so far.
func (w *Writer) String() string { return w.b.String() }
