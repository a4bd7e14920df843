// Package record implements the NodeRecord side-table of spec.md §3: a
// map from AST-node identity to the annotations Sema computes and Codegen
// later reads.
//
// Grounded on spec.md §9 ("Cyclic AST-node <-> record association"): the
// AST stays read-only and structural; all Sema/Codegen state lives here
// instead, keyed by the node's own identity (its pointer, since every
// internal/ast node is used behind a pointer).
package record

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/values"
)

// CaseLabel pairs a switch arm's optional constant (nil for `default`)
// with the assembly label Codegen emits for it.
type CaseLabel struct {
	Value *int64
	Label string
}

// Record is one AST node's full annotation set. Fields are populated
// incrementally as Sema visits the node; Codegen only reads fields whose
// owning node kind guarantees they're set.
type Record struct {
	Value      values.Value
	Translated ast.Node // Sema's lowered replacement subtree, if any
	Visited    bool      // not set or read by Sema or Codegen
	Labels     []string  // control-flow node's own labels (spec.md §4.4.5)
	Cases      []CaseLabel
	FrameSize  int // a FuncDef's max_frame_size, for Codegen's prologue (spec.md §4.5.1)
}

// Store is the per-compilation side-table. It owns all Records for the
// whole compilation; nothing is ever evicted mid-compilation, since a
// failing compilation aborts entirely (spec.md §5) and a successful one
// discards the Store along with the rest of the compilation context.
type Store struct {
	records map[ast.Node]*Record
}

func NewStore() *Store {
	return &Store{records: make(map[ast.Node]*Record)}
}

// Get returns the node's Record, creating an empty one on first access.
func (s *Store) Get(n ast.Node) *Record {
	if r, ok := s.records[n]; ok {
		return r
	}
	r := &Record{}
	s.records[n] = r
	return r
}

// Lookup returns the node's Record without creating one, and whether it
// existed.
func (s *Store) Lookup(n ast.Node) (*Record, bool) {
	r, ok := s.records[n]
	return r, ok
}

// SetValue is a convenience used by nearly every Sema visit method.
func (s *Store) SetValue(n ast.Node, v values.Value) {
	s.Get(n).Value = v
}

// ValueOf returns the node's annotated value, or nil if Sema has not
// visited it yet.
func (s *Store) ValueOf(n ast.Node) values.Value {
	if r, ok := s.records[n]; ok {
		return r.Value
	}
	return nil
}

// Effective returns n's translated replacement if Sema produced one,
// otherwise n itself. Codegen calls this at the start of every dispatch so
// it always walks the lowered form (spec.md §4.4.4, §9 "Rewriting during
// inference").
func (s *Store) Effective(n ast.Node) ast.Node {
	if r, ok := s.records[n]; ok && r.Translated != nil {
		return r.Translated
	}
	return n
}
