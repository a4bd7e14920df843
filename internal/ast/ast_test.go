package ast_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
)

func TestBasePos(t *testing.T) {
	pos := ccerror.Pos{Filename: "a.c", Line: 4, Column: 2}
	n := &ast.Ident{Base: ast.Base{P: pos}, Name: "x"}
	if n.Pos() != pos {
		t.Errorf("Pos() = %v, want %v", n.Pos(), pos)
	}
}

// TestExprPairFields documents that ExprPair is never produced by
// Lower: it exists purely as a Sema-synthesized node for sequencing a
// side effect before a value (spec.md §4.4.4's temp-pointer compound
// assignment lowering). This test just pins its field shape since nothing
// in Lower ever constructs one.
func TestExprPairFields(t *testing.T) {
	first := &ast.ExprStmt{}
	second := &ast.Ident{Name: "tmp"}
	pair := &ast.ExprPair{First: first, Second: second}
	if pair.First != ast.Node(first) || pair.Second != ast.Node(second) {
		t.Error("ExprPair did not preserve First/Second")
	}
}

func TestArrayTypeIncompleteWhenDimNil(t *testing.T) {
	at := &ast.ArrayType{Of: &ast.NamedType{Name: "int"}}
	if at.Dim != nil {
		t.Error("a bare ArrayType{Of: ...} should have a nil Dim (incomplete array)")
	}
}

func TestStructDeclForwardDeclarationHasNilFields(t *testing.T) {
	sd := &ast.StructDecl{Tag: "Foo"}
	if sd.Fields != nil {
		t.Error("a forward-declared StructDecl should have nil Fields")
	}
}
