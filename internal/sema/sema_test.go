package sema_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/sema"
	"github.com/rrcc-project/rrcc/internal/unit"
)

func newUnit() *unit.Unit {
	builtin := scope.NewBuiltin()
	return unit.New("test.c", builtin)
}

func intType() ast.TypeExpr {
	return &ast.NamedType{Name: "int"}
}

// funcDef builds `void name(void) { body }`, reusing Body.Items as given.
func funcDef(name string, body []ast.Node) *ast.FuncDef {
	return &ast.FuncDef{
		Name:        name,
		RetTypeExpr: &ast.NamedType{Name: "void"},
		Body:        &ast.CompoundStmt{Items: body},
	}
}

// TestGotoToKnownLabelResolves checks spec.md §8 Universal invariant 6:
// a goto whose target label is defined somewhere in the same function
// resolves without error.
func TestGotoToKnownLabelResolves(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	body := []ast.Node{
		&ast.Goto{Name: "done"},
		&ast.Label{Name: "done", Stmt: &ast.Return{}},
	}
	tu := &ast.TranslationUnit{Decls: []ast.Node{funcDef("f", body)}}
	if err := s.Run(tu); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// TestGotoToUnknownLabelFails checks the other half of invariant 6: a
// goto to a label never defined in the function is rejected with
// UnknownLabel, not silently accepted or resolved against another
// function's label.
func TestGotoToUnknownLabelFails(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	body := []ast.Node{
		&ast.Goto{Name: "nowhere"},
		&ast.Return{},
	}
	tu := &ast.TranslationUnit{Decls: []ast.Node{funcDef("f", body)}}
	err := s.Run(tu)
	if err == nil {
		t.Fatal("goto to an undefined label did not fail")
	}
	ce, ok := err.(*ccerror.CCError)
	if !ok {
		t.Fatalf("error = %v (%T), want *ccerror.CCError", err, err)
	}
	if ce.Kind != ccerror.UnknownLabel {
		t.Errorf("error kind = %v, want UnknownLabel", ce.Kind)
	}
}

// TestLabelsAreFunctionLocal checks that a goto in one function cannot
// resolve against a same-named label defined only in a different
// function (spec.md §4.3: labels are function-local).
func TestLabelsAreFunctionLocal(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	fBody := []ast.Node{&ast.Goto{Name: "L"}, &ast.Return{}}
	gBody := []ast.Node{&ast.Label{Name: "L", Stmt: &ast.Return{}}}
	tu := &ast.TranslationUnit{Decls: []ast.Node{funcDef("f", fBody), funcDef("g", gBody)}}

	err := s.Run(tu)
	if err == nil {
		t.Fatal("goto resolved against a label defined in a different function")
	}
}

// TestDuplicateCaseRejected checks that two case labels with the same
// constant value in one switch are rejected.
func TestDuplicateCaseRejected(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	sw := &ast.Switch{
		Tag: &ast.IntLit{Value: 0},
		Body: &ast.CompoundStmt{Items: []ast.Node{
			&ast.Case{Value: &ast.IntLit{Value: 1}, Stmt: &ast.Break{}},
			&ast.Case{Value: &ast.IntLit{Value: 1}, Stmt: &ast.Break{}},
		}},
	}
	body := []ast.Node{sw, &ast.Return{}}
	tu := &ast.TranslationUnit{Decls: []ast.Node{funcDef("f", body)}}

	err := s.Run(tu)
	if err == nil {
		t.Fatal("duplicate case value was not rejected")
	}
	ce, ok := err.(*ccerror.CCError)
	if !ok || ce.Kind != ccerror.DuplicatedCase {
		t.Errorf("error = %v, want a DuplicatedCase CCError", err)
	}
}

// TestBreakOutsideLoopOrSwitchRejected checks a break statement with no
// enclosing loop/switch is rejected rather than silently ignored.
func TestBreakOutsideLoopOrSwitchRejected(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	body := []ast.Node{&ast.Break{}, &ast.Return{}}
	tu := &ast.TranslationUnit{Decls: []ast.Node{funcDef("f", body)}}
	err := s.Run(tu)
	if err == nil {
		t.Fatal("break outside a loop/switch was not rejected")
	}
	ce, ok := err.(*ccerror.CCError)
	if !ok || ce.Kind != ccerror.InvalidBreak {
		t.Errorf("error = %v, want an InvalidBreak CCError", err)
	}
}

// TestDuplicateStructFieldRejected checks the lo.FindDuplicates-backed
// validation added to visitStructDecl: a struct with two fields sharing a
// name is rejected instead of silently letting the later one win.
func TestDuplicateStructFieldRejected(t *testing.T) {
	u := newUnit()
	s := sema.New(u)

	sd := &ast.StructDecl{
		Tag: "P",
		Fields: []ast.FieldDecl{
			{Name: "x", TypeExpr: intType()},
			{Name: "x", TypeExpr: intType()},
		},
	}
	tu := &ast.TranslationUnit{Decls: []ast.Node{sd}}
	err := s.Run(tu)
	if err == nil {
		t.Fatal("duplicate struct field name was not rejected")
	}
	ce, ok := err.(*ccerror.CCError)
	if !ok || ce.Kind != ccerror.Redefined {
		t.Errorf("error = %v, want a Redefined CCError", err)
	}
}
