package record_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/record"
	"github.com/rrcc-project/rrcc/internal/values"
)

func TestGetCreatesEmptyRecordOnFirstAccess(t *testing.T) {
	s := record.NewStore()
	n := &ast.Ident{Name: "x"}
	r := s.Get(n)
	if r == nil {
		t.Fatal("Get returned nil")
	}
	if r.Value != nil || r.Translated != nil || r.Visited {
		t.Errorf("fresh record is not zero-valued: %+v", r)
	}
	if r2 := s.Get(n); r2 != r {
		t.Error("a second Get of the same node returned a different record")
	}
}

func TestLookupDoesNotCreate(t *testing.T) {
	s := record.NewStore()
	n := &ast.Ident{Name: "x"}
	if _, ok := s.Lookup(n); ok {
		t.Fatal("Lookup reported a record existing before any Get/SetValue")
	}
	s.Get(n)
	if _, ok := s.Lookup(n); !ok {
		t.Error("Lookup did not find a record created by Get")
	}
}

func TestSetValueAndValueOf(t *testing.T) {
	s := record.NewStore()
	n := &ast.IntLit{Value: 42}
	if v := s.ValueOf(n); v != nil {
		t.Fatalf("ValueOf before SetValue = %v, want nil", v)
	}
	iv := &values.IntConstant{Value: 42}
	s.SetValue(n, iv)
	if s.ValueOf(n) != iv {
		t.Error("ValueOf did not return the value set by SetValue")
	}
}

// TestEffectiveFallsBackToNodeItself checks spec.md §9's rewriting rule:
// a node with no Translated replacement is its own effective form.
func TestEffectiveFallsBackToNodeItself(t *testing.T) {
	s := record.NewStore()
	n := &ast.Ident{Name: "x"}
	if s.Effective(n) != n {
		t.Error("Effective(n) with no translation did not return n itself")
	}
}

func TestEffectiveReturnsTranslatedReplacement(t *testing.T) {
	s := record.NewStore()
	n := &ast.Ident{Name: "x"}
	replacement := &ast.IntLit{Value: 0}
	s.Get(n).Translated = replacement
	if s.Effective(n) != replacement {
		t.Error("Effective(n) did not return the node's Translated replacement")
	}
}

// TestRecordsAreKeyedByIdentityNotValue checks two distinct node pointers
// with equal field values get distinct records, since the Store keys on
// pointer identity (spec.md §9, "AST-node identity").
func TestRecordsAreKeyedByIdentityNotValue(t *testing.T) {
	s := record.NewStore()
	a := &ast.Ident{Name: "x"}
	b := &ast.Ident{Name: "x"}
	s.Get(a).Visited = true
	if s.Get(b).Visited {
		t.Error("a record for a distinct node pointer with equal contents was conflated with another's")
	}
}
