// Package unit holds the per-compilation-unit state that Sema and Codegen
// share but neither owns exclusively: the NodeRecord store, the AsmWriter
// (so Sema can mint control-flow labels and intern escaping string
// literals ahead of Codegen actually emitting into it), and the warning
// log (spec.md §7: warnings go to the error channel but never abort).
//
// Splitting this into its own package (rather than having internal/sema
// and internal/codegen depend on each other) mirrors spec.md §9's
// "encapsulate [global mutable counters] in the compilation context;
// never rely on process-global state".
package unit

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/asmwriter"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/record"
	"github.com/rrcc-project/rrcc/internal/scope"
)

// Unit is one translation unit's compilation context: built-in and global
// scopes, the NodeRecord store, the AsmWriter, and accumulated warnings.
// It does not escape the compilation (spec.md §5).
type Unit struct {
	Filename string
	Builtin  *scope.Scope
	Global   *scope.Scope
	Store    *record.Store
	Writer   *asmwriter.Writer
	Warnings []ccerror.Warning
}

// New constructs a fresh Unit: a process-wide built-in scope shared across
// compilations, a brand new global scope on top of it, an empty record
// store, and a fresh AsmWriter.
func New(filename string, builtin *scope.Scope) *Unit {
	return &Unit{
		Filename: filename,
		Builtin:  builtin,
		Global:   scope.NewGlobal(builtin),
		Store:    record.NewStore(),
		Writer:   asmwriter.New(),
	}
}

// Warn records a non-fatal diagnostic.
func (u *Unit) Warn(pos ccerror.Pos, format string, args ...any) {
	u.Warnings = append(u.Warnings, ccerror.Warning{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}
