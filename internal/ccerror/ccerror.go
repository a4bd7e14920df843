// Package ccerror defines the closed diagnostic taxonomy rrcc's Sema and
// Codegen walkers raise. Every error aborts the current compilation; there
// is no local catch-and-continue (spec.md §7).
package ccerror

import (
	"fmt"
	"strings"
)

// Kind is one of the fixed diagnostic categories from spec.md §7.
type Kind string

const (
	Redefined             Kind = "Redefined"
	Undefined             Kind = "Undefined"
	IncompleteType        Kind = "IncompleteType"
	ConversionError       Kind = "ConversionError"
	InvalidInitializer    Kind = "InvalidInitializer"
	NonConstantInitializer Kind = "NonConstantInitializer"
	InvalidOperand        Kind = "InvalidOperand"
	DuplicatedCase        Kind = "DuplicatedCase"
	InvalidBreak          Kind = "InvalidBreak"
	InvalidContinue       Kind = "InvalidContinue"
	InvalidDefault        Kind = "InvalidDefault"
	UnknownLabel          Kind = "UnknownLabel"
	NotImplemented        Kind = "NotImplemented"
)

// NotAType, NotAVariable, NotAStruct, NotAFunction are the typed-accessor
// failures raised by internal/scope; they share the Undefined/InvalidOperand
// reporting path but keep a distinct message prefix for readability.
const (
	NotAType     Kind = "NotAType"
	NotAVariable Kind = "NotAVariable"
	NotAStruct   Kind = "NotAStruct"
	NotAFunction Kind = "NotAFunction"
)

// Pos is a source position; modernc.org/cc/v4 token positions are adapted
// into this shape by internal/lower so the rest of the compiler does not
// depend on the parser library's own position type.
type Pos struct {
	Filename string
	Line     int
	Column   int
}

func (p Pos) String() string {
	if p.Filename == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// CCError is the error type raised by Sema and Codegen. It carries the AST
// path (outermost node first) from the translation-unit root down to the
// failing node, so the diagnostic printed by cmd/rrcc can show context.
type CCError struct {
	Kind Kind
	Pos  Pos
	Msg  string
	Path []string
}

func (e *CCError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: error: %s: %s", e.Pos, e.Kind, e.Msg)
	for i := len(e.Path) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n\tin %s", e.Path[i])
	}
	return b.String()
}

// New constructs a CCError with no path; AddContext appends path frames as
// the error propagates back up through the recursive walkers.
func New(kind Kind, pos Pos, format string, args ...any) *CCError {
	return &CCError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// AddContext is called by each recursive Sema/Codegen frame as the error
// unwinds, leaving a trail from the translation-unit root to the failing
// node.
func (e *CCError) AddContext(node string) *CCError {
	e.Path = append(e.Path, node)
	return e
}

// CCNotImplemented is a subtype used for deliberate feature gaps (64-bit
// div/mod/shift, struct-by-value, K&R definitions, union, enum, alignas,
// cross-function goto, bit-fields, designated initializers, compound
// literals, anonymous fields, empty structs) so tests can filter them out
// from genuine programmer-mistake diagnostics.
type CCNotImplemented struct {
	*CCError
}

func NotImpl(pos Pos, feature string) *CCNotImplemented {
	return &CCNotImplemented{New(NotImplemented, pos, "not implemented: %s", feature)}
}

// Warning is a non-fatal diagnostic, recorded by unit.Unit.Warn (out-of-range literal wraparound,
// comparison of distinct object-pointer types). Warnings go to the same
// channel as errors but never abort compilation.
type Warning struct {
	Pos Pos
	Msg string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Msg)
}
