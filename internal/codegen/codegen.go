// Package codegen implements Codegen (spec.md §4.5): the second AST walk,
// which reads the values and control-flow labels Sema annotated onto
// internal/record and emits assembly text through internal/asmwriter.
//
// Like internal/sema, Codegen never mutates the AST; it always dispatches
// on u.Store.Effective(node) to see Sema's lowered form, and reads a
// node's Value to decide how to reproduce it (spec.md §9).
package codegen

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/asmwriter"
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/unit"
	"github.com/rrcc-project/rrcc/internal/values"
)

// Codegen walks one translation unit's function bodies, emitting through
// u.Writer. It holds the handful of bits of state that don't belong in the
// shared NodeRecord: the current function's return label (which Sema minted
// onto the FuncDef node) and which on-demand builtins have been referenced.
type Codegen struct {
	u          *unit.Unit
	w          *asmwriter.Writer
	retLabel   string
	usesMemset bool
	usesMemcpy bool
}

// New creates a Codegen walker over u.
func New(u *unit.Unit) *Codegen {
	return &Codegen{u: u, w: u.Writer}
}

// Run emits every function definition in tu, in order, then materialises
// whichever built-in helpers got referenced (spec.md §4.5.8). Global/static
// variable storage was already written by Sema (internal/sema's
// emitGlobalStorage runs inline during the first walk), so top-level Decls
// and StructDecls need nothing further here.
func (g *Codegen) Run(tu *ast.TranslationUnit) error {
	for _, d := range tu.Decls {
		fd, ok := d.(*ast.FuncDef)
		if !ok {
			continue
		}
		if err := g.emitFunc(fd); err != nil {
			return err
		}
	}
	g.emitBuiltins()
	return nil
}

func (g *Codegen) wrap(node ast.Node, label string, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ccerror.CCError); ok {
		return ce.AddContext(fmt.Sprintf("%s at %s", label, node.Pos()))
	}
	return err
}

// effective resolves n through Store.Effective to a fixed point: a single
// Translated hop may itself have been further translated (spec.md §9,
// "Rewriting during inference" composes), so Codegen always re-resolves
// until it lands on a node with no further replacement.
func (g *Codegen) effective(n ast.Node) ast.Node {
	for {
		e := g.u.Store.Effective(n)
		if e == n {
			return e
		}
		n = e
	}
}

func (g *Codegen) valueOf(n ast.Node) values.Value {
	return g.u.Store.ValueOf(g.effective(n))
}

// emitFunc emits one function definition's prologue, body, return label,
// and epilogue (spec.md §4.5.1). Locals/arguments' frame offsets and the
// function's own max_frame_size were already computed by Sema and are read
// back off the FuncDef's own record.
func (g *Codegen) emitFunc(d *ast.FuncDef) error {
	rec := g.u.Store.Get(d)
	g.retLabel = rec.Labels[0]
	frameSize := rec.FrameSize

	g.w.SetSection(asmwriter.Text)
	g.w.OwnFragment()
	g.w.Emitf(".align 2")
	g.w.EmitLabel(d.Name)
	g.w.Emitf(".global $%s", d.Name)
	g.w.Emitf(".type $%s, \"function\"", d.Name)

	g.w.Emit("push ra")
	g.w.Emit("push fp")
	g.w.Emit("mv fp, sp")
	if frameSize > 0 {
		g.w.Emitf("addi sp, sp, -%d", frameSize)
	}

	for _, item := range d.Body.Items {
		if err := g.wrap(item, "in body of "+d.Name, g.emitBlockItem(item)); err != nil {
			return err
		}
	}

	g.w.EmitLabel(g.retLabel)
	g.w.Emit("mv sp, fp")
	g.w.Emit("pop fp")
	g.w.Emit("pop ra")
	g.w.Emit("ret")
	g.w.Emitf(".size $%s, -($. $%s)", d.Name, d.Name)
	return nil
}

// emitBlockItem mirrors sema's visitBlockItem: a CompoundStmt item is
// either a declaration (whose only codegen is its lowered initializer
// statement, if any) or a statement.
func (g *Codegen) emitBlockItem(n ast.Node) error {
	switch x := n.(type) {
	case *ast.Decl:
		return g.emitLocalDecl(x)
	case *ast.StructDecl:
		return nil // type-only; nothing to emit
	default:
		return g.emitStmt(n)
	}
}

// emitLocalDecl emits a local's lowered initializer, if Sema attached one
// (static locals instead got their storage written directly by Sema, the
// same way a global does).
func (g *Codegen) emitLocalDecl(d *ast.Decl) error {
	rec := g.u.Store.Get(d)
	if rec.Translated == nil {
		return nil
	}
	return g.emitStmt(rec.Translated)
}

func widthMnemonic(t types.Type, load bool) string {
	size := t.Size()
	unsigned := false
	if it, ok := t.(*types.Int); ok {
		unsigned = it.Unsigned
	} else {
		unsigned = true // pointers load/store as unsigned 4-byte words
	}
	if size == 8 {
		size = 4 // the two-limb forms always move one 4-byte word at a time
	}
	switch size {
	case 1:
		if load {
			if unsigned {
				return "lbu"
			}
			return "lb"
		}
		return "sb"
	case 2:
		if load {
			if unsigned {
				return "lhu"
			}
			return "lh"
		}
		return "sh"
	default:
		if load {
			return "lw"
		}
		return "sw"
	}
}

func splitWord(v int64) (lo, hi int32) {
	return int32(uint32(v)), int32(uint32(v >> 32))
}
