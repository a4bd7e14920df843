package sema

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/record"
	"github.com/rrcc-project/rrcc/internal/types"
)

// visitStmt dispatches one statement node, minting whatever control-flow
// labels its kind owns (spec.md §4.4.5) before/while visiting children.
func (s *Sema) visitStmt(n ast.Node) error {
	switch x := n.(type) {
	case *ast.CompoundStmt:
		return s.visitCompound(x)
	case *ast.ExprStmt:
		_, err := s.visitExpr(x.Expr)
		return err
	case *ast.If:
		return s.visitIf(x)
	case *ast.While:
		return s.visitWhile(x)
	case *ast.DoWhile:
		return s.visitDoWhile(x)
	case *ast.For:
		return s.visitFor(x)
	case *ast.Switch:
		return s.visitSwitch(x)
	case *ast.Case:
		return s.visitCase(x)
	case *ast.Default:
		return s.visitDefault(x)
	case *ast.Break:
		return s.visitBreak(x)
	case *ast.Continue:
		return s.visitContinue(x)
	case *ast.Label:
		return s.visitLabel(x)
	case *ast.Goto:
		return s.visitGoto(x)
	case *ast.Return:
		return s.visitReturn(x)
	case *ast.Pragma:
		return nil
	default:
		return ccerror.New(ccerror.NotImplemented, n.Pos(), "unsupported statement %T", n)
	}
}

func (s *Sema) visitCompound(x *ast.CompoundStmt) error {
	outer := s.scope
	s.scope = outer.NewChild()
	defer func() { s.scope = outer }()
	for _, item := range x.Items {
		if err := s.visitBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sema) mintLabels(n ast.Node, prefix string, count int) []string {
	labels := make([]string, count)
	for i := range labels {
		labels[i] = s.u.Writer.MintLabel(prefix)
	}
	s.u.Store.Get(n).Labels = labels
	return labels
}

func (s *Sema) visitIf(x *ast.If) error {
	if _, err := s.visitExpr(x.Cond); err != nil {
		return err
	}
	s.mintLabels(x, "L.if", 2) // record.IfFalse, record.IfEnd
	if err := s.visitStmt(x.Then); err != nil {
		return err
	}
	if x.Else != nil {
		return s.visitStmt(x.Else)
	}
	return nil
}

func (s *Sema) visitWhile(x *ast.While) error {
	labels := s.mintLabels(x, "L.while", 2) // record.WhileStart, record.WhileEnd
	s.loops = append(s.loops, loopCtx{breakLabel: labels[record.WhileEnd], continueLabel: labels[record.WhileStart]})
	defer s.popLoop()
	if _, err := s.visitExpr(x.Cond); err != nil {
		return err
	}
	return s.visitStmt(x.Body)
}

func (s *Sema) visitDoWhile(x *ast.DoWhile) error {
	labels := s.mintLabels(x, "L.do", 3) // Start, Next, End
	s.loops = append(s.loops, loopCtx{breakLabel: labels[record.DoWhileEnd], continueLabel: labels[record.DoWhileNext]})
	defer s.popLoop()
	if err := s.visitStmt(x.Body); err != nil {
		return err
	}
	_, err := s.visitExpr(x.Cond)
	return err
}

func (s *Sema) visitFor(x *ast.For) error {
	outer := s.scope
	s.scope = outer.NewChild()
	defer func() { s.scope = outer }()

	if x.Init != nil {
		inits := []ast.Node{x.Init}
		if cs, ok := x.Init.(*ast.CompoundStmt); ok {
			inits = cs.Items
		}
		for _, item := range inits {
			if err := s.visitBlockItem(item); err != nil {
				return err
			}
		}
	}
	labels := s.mintLabels(x, "L.for", 3) // Start, Next, End
	s.loops = append(s.loops, loopCtx{breakLabel: labels[record.ForEnd], continueLabel: labels[record.ForNext]})
	defer s.popLoop()
	if x.Cond != nil {
		if _, err := s.visitExpr(x.Cond); err != nil {
			return err
		}
	}
	if err := s.visitStmt(x.Body); err != nil {
		return err
	}
	if x.Step != nil {
		_, err := s.visitExpr(x.Step)
		return err
	}
	return nil
}

func (s *Sema) popLoop() { s.loops = s.loops[:len(s.loops)-1] }

func (s *Sema) visitSwitch(x *ast.Switch) error {
	tv, err := s.visitExpr(x.Tag)
	if err != nil {
		return err
	}
	if _, ok := types.PromoteInt(tv.Type()).(*types.Int); !ok {
		return ccerror.New(ccerror.InvalidOperand, x.Pos(), "switch tag must have integer type")
	}
	labels := s.mintLabels(x, "L.switch", 1) // SwitchEnd
	s.loops = append(s.loops, loopCtx{breakLabel: labels[record.SwitchEnd], isSwitch: true})
	defer s.popLoop()

	outer := s.switchCase
	s.switchCase = &switchState{seen: map[int64]bool{}}
	defer func() { s.switchCase = outer }()

	if err := s.visitStmt(x.Body); err != nil {
		return err
	}
	s.u.Store.Get(x).Cases = s.switchCase.cases
	return nil
}

// switchState accumulates the enclosing Switch's case/default labels as
// nested Case/Default statements are visited; it is swapped out so
// switches can nest.
type switchState struct {
	seen    map[int64]bool
	cases   []record.CaseLabel
	hasDflt bool
}

func (s *Sema) visitCase(x *ast.Case) error {
	if s.switchCase == nil {
		return ccerror.New(ccerror.InvalidOperand, x.Pos(), "case label not within a switch statement")
	}
	val, err := s.constIntValue(x.Value)
	if err != nil {
		return err
	}
	if s.switchCase.seen[val] {
		return ccerror.New(ccerror.DuplicatedCase, x.Pos(), "duplicate case value %d", val)
	}
	s.switchCase.seen[val] = true
	label := s.u.Writer.MintLabel("L.case")
	s.u.Store.Get(x).Labels = []string{label}
	v := val
	s.switchCase.cases = append(s.switchCase.cases, record.CaseLabel{Value: &v, Label: label})
	return s.visitStmt(x.Stmt)
}

func (s *Sema) visitDefault(x *ast.Default) error {
	if s.switchCase == nil {
		return ccerror.New(ccerror.InvalidOperand, x.Pos(), "default label not within a switch statement")
	}
	if s.switchCase.hasDflt {
		return ccerror.New(ccerror.InvalidDefault, x.Pos(), "multiple default labels in one switch")
	}
	s.switchCase.hasDflt = true
	label := s.u.Writer.MintLabel("L.default")
	s.u.Store.Get(x).Labels = []string{label}
	s.switchCase.cases = append(s.switchCase.cases, record.CaseLabel{Value: nil, Label: label})
	return s.visitStmt(x.Stmt)
}

func (s *Sema) visitBreak(x *ast.Break) error {
	if len(s.loops) == 0 {
		return ccerror.New(ccerror.InvalidBreak, x.Pos(), "break statement not within a loop or switch")
	}
	s.u.Store.Get(x).Labels = []string{s.loops[len(s.loops)-1].breakLabel}
	return nil
}

func (s *Sema) visitContinue(x *ast.Continue) error {
	for i := len(s.loops) - 1; i >= 0; i-- {
		if !s.loops[i].isSwitch {
			s.u.Store.Get(x).Labels = []string{s.loops[i].continueLabel}
			return nil
		}
	}
	return ccerror.New(ccerror.InvalidContinue, x.Pos(), "continue statement not within a loop")
}

func (s *Sema) visitLabel(x *ast.Label) error {
	s.scope.Frame.Labels[x.Name] = true
	s.u.Store.Get(x).Labels = []string{labelName(s.funcName, x.Name)}
	return s.visitStmt(x.Stmt)
}

func (s *Sema) visitGoto(x *ast.Goto) error {
	s.scope.Frame.Gotos[x.Name] = true
	s.u.Store.Get(x).Labels = []string{labelName(s.funcName, x.Name)}
	return nil
}

// labelName namespaces a source-level label under its enclosing function,
// since rrcc's labels are function-local (spec.md §4.3).
func labelName(funcName, label string) string {
	return funcName + ".user." + label
}

func (s *Sema) visitReturn(x *ast.Return) error {
	if x.Expr == nil {
		if _, ok := s.funcRet.(types.Void); !ok {
			return ccerror.New(ccerror.InvalidOperand, x.Pos(), "non-void function must return a value")
		}
		return nil
	}
	if _, ok := s.funcRet.(types.Void); ok {
		return ccerror.New(ccerror.InvalidOperand, x.Pos(), "void function must not return a value")
	}
	_, err := s.convert(s.funcRet, x.Expr)
	return err
}
