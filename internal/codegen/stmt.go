package codegen

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/record"
)

// emitStmt dispatches one statement node, reading back the control-flow
// labels Sema minted onto its own record (spec.md §4.4.5, §4.5.7).
func (g *Codegen) emitStmt(n ast.Node) error {
	switch x := n.(type) {
	case *ast.CompoundStmt:
		return g.emitCompound(x)
	case *ast.ExprStmt:
		_, err := g.emitExpr(x.Expr)
		return err
	case *ast.If:
		return g.emitIf(x)
	case *ast.While:
		return g.emitWhile(x)
	case *ast.DoWhile:
		return g.emitDoWhile(x)
	case *ast.For:
		return g.emitFor(x)
	case *ast.Switch:
		return g.emitSwitch(x)
	case *ast.Case:
		return g.emitCase(x)
	case *ast.Default:
		return g.emitDefault(x)
	case *ast.Break:
		return g.emitBranchTo(x)
	case *ast.Continue:
		return g.emitBranchTo(x)
	case *ast.Label:
		return g.emitLabelStmt(x)
	case *ast.Goto:
		return g.emitGoto(x)
	case *ast.Return:
		return g.emitReturn(x)
	case *ast.Pragma:
		g.w.EmitRaw(x.Line)
		return nil
	case *ast.Decl:
		return g.emitLocalDecl(x)
	case *ast.StructDecl:
		return nil
	default:
		return fmt.Errorf("codegen: unsupported statement %T at %s", n, n.Pos())
	}
}

func (g *Codegen) emitCompound(x *ast.CompoundStmt) error {
	for _, item := range x.Items {
		if err := g.emitBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (g *Codegen) emitIf(x *ast.If) error {
	labels := g.u.Store.Get(x).Labels
	falseLabel, endLabel := labels[record.IfFalse], labels[record.IfEnd]

	cv, err := g.emitExpr(x.Cond)
	if err != nil {
		return err
	}
	g.orHalves(cv.Type())
	g.w.Emitf("beqz a0, $%s", falseLabel)
	if err := g.emitStmt(x.Then); err != nil {
		return err
	}
	if x.Else != nil {
		g.w.Emitf("j $%s", endLabel)
		g.w.EmitLabel(falseLabel)
		if err := g.emitStmt(x.Else); err != nil {
			return err
		}
		g.w.EmitLabel(endLabel)
		return nil
	}
	g.w.EmitLabel(falseLabel)
	return nil
}

func (g *Codegen) emitWhile(x *ast.While) error {
	labels := g.u.Store.Get(x).Labels
	startLabel, endLabel := labels[record.WhileStart], labels[record.WhileEnd]

	g.w.EmitLabel(startLabel)
	cv, err := g.emitExpr(x.Cond)
	if err != nil {
		return err
	}
	g.orHalves(cv.Type())
	g.w.Emitf("beqz a0, $%s", endLabel)
	if err := g.emitStmt(x.Body); err != nil {
		return err
	}
	g.w.Emitf("j $%s", startLabel)
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Codegen) emitDoWhile(x *ast.DoWhile) error {
	labels := g.u.Store.Get(x).Labels
	startLabel, nextLabel, endLabel := labels[record.DoWhileStart], labels[record.DoWhileNext], labels[record.DoWhileEnd]

	g.w.EmitLabel(startLabel)
	if err := g.emitStmt(x.Body); err != nil {
		return err
	}
	g.w.EmitLabel(nextLabel)
	cv, err := g.emitExpr(x.Cond)
	if err != nil {
		return err
	}
	g.orHalves(cv.Type())
	g.w.Emitf("bnez a0, $%s", startLabel)
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Codegen) emitFor(x *ast.For) error {
	labels := g.u.Store.Get(x).Labels
	startLabel, nextLabel, endLabel := labels[record.ForStart], labels[record.ForNext], labels[record.ForEnd]

	if x.Init != nil {
		if err := g.emitBlockItem(x.Init); err != nil {
			return err
		}
	}
	g.w.EmitLabel(startLabel)
	if x.Cond != nil {
		cv, err := g.emitExpr(x.Cond)
		if err != nil {
			return err
		}
		g.orHalves(cv.Type())
		g.w.Emitf("beqz a0, $%s", endLabel)
	}
	if err := g.emitStmt(x.Body); err != nil {
		return err
	}
	g.w.EmitLabel(nextLabel)
	if x.Step != nil {
		if _, err := g.emitExpr(x.Step); err != nil {
			return err
		}
	}
	g.w.Emitf("j $%s", startLabel)
	g.w.EmitLabel(endLabel)
	return nil
}

// emitSwitch evaluates the tag once, then emits a linear chain of
// compare-and-branch tests against each case's constant (spec.md §4.5.7);
// no jump table is attempted. A bare default branches to its own label
// unconditionally once every case has been tested.
func (g *Codegen) emitSwitch(x *ast.Switch) error {
	rec := g.u.Store.Get(x)
	endLabel := rec.Labels[record.SwitchEnd]

	tv, err := g.emitExpr(x.Tag)
	if err != nil {
		return err
	}
	g.w.Emit("mv t5, a0")
	_ = tv

	var defaultLabel string
	for _, c := range rec.Cases {
		if c.Value == nil {
			defaultLabel = c.Label
			continue
		}
		g.w.Emitf("li a0, %d", *c.Value)
		g.w.Emitf("beq t5, a0, $%s", c.Label)
	}
	if defaultLabel != "" {
		g.w.Emitf("j $%s", defaultLabel)
	} else {
		g.w.Emitf("j $%s", endLabel)
	}

	if err := g.emitStmt(x.Body); err != nil {
		return err
	}
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Codegen) emitCase(x *ast.Case) error {
	g.w.EmitLabel(g.u.Store.Get(x).Labels[0])
	return g.emitStmt(x.Stmt)
}

func (g *Codegen) emitDefault(x *ast.Default) error {
	g.w.EmitLabel(g.u.Store.Get(x).Labels[0])
	return g.emitStmt(x.Stmt)
}

// emitBranchTo handles both Break and Continue, which Sema already
// resolved to the single label each jumps to.
func (g *Codegen) emitBranchTo(n ast.Node) error {
	rec := g.u.Store.Get(n)
	g.w.Emitf("j $%s", rec.Labels[0])
	return nil
}

func (g *Codegen) emitLabelStmt(x *ast.Label) error {
	g.w.EmitLabel(g.u.Store.Get(x).Labels[0])
	return g.emitStmt(x.Stmt)
}

func (g *Codegen) emitGoto(x *ast.Goto) error {
	g.w.Emitf("j $%s", g.u.Store.Get(x).Labels[0])
	return nil
}

func (g *Codegen) emitReturn(x *ast.Return) error {
	if x.Expr != nil {
		if _, err := g.emitExpr(x.Expr); err != nil {
			return err
		}
	}
	g.w.Emitf("j $%s", g.retLabel)
	return nil
}
