// Package scope implements ScopeTable: nested lexical scopes with
// redefinition-checked insertion and chained lookup (spec.md §4.2).
package scope

import (
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// Symbol is whatever a name can be bound to in a scope: a type (built-in,
// struct tag, or typedef) or a value (variable or function).
type Symbol struct {
	Type  types.Type
	Value values.Value
}

func TypeSymbol(t types.Type) Symbol   { return Symbol{Type: t} }
func ValueSymbol(v values.Value) Symbol { return Symbol{Value: v} }

func (s Symbol) IsType() bool  { return s.Type != nil }
func (s Symbol) IsValue() bool { return s.Value != nil }

// Scope is one lexical level: a local symbol map plus a parent pointer.
// Popped scopes are not explicitly freed; symbols they introduced may
// still be reachable from AST-node annotations recorded while the scope
// was live (spec.md §9, "Scope/symbol lifetime"), so Scope relies on Go's
// GC rather than any explicit teardown.
type Scope struct {
	parent *Scope
	names  map[string]Symbol

	// Frame holds the running byte offset used to place locals below fp.
	// Only meaningful for function-body scopes and their nested compounds;
	// it is inherited (by sharing the function-level scope's pointer) from
	// a for/compound scope down to its own, never reset independently,
	// since a whole function has one running total (spec.md §4.4.3).
	Frame *FrameState
}

// FrameState is shared (by pointer) across every nested scope within one
// function body, so locals declared inside a nested compound or for-loop
// still land at the next free offset of the function's frame rather than
// restarting at 0.
type FrameState struct {
	Offset       int
	MaxFrameSize int
	Labels       map[string]bool
	Gotos        map[string]bool
}

// NewBuiltin constructs the process-wide, immutable built-in scope, seeded
// with the numeric types and aliases of the Glossary. It has no parent.
func NewBuiltin() *Scope {
	s := &Scope{names: make(map[string]Symbol)}
	for name, t := range types.BuiltinNames() {
		s.names[name] = TypeSymbol(t)
	}
	return s
}

// NewGlobal builds a fresh global scope on top of the built-in scope; every
// compilation unit gets its own.
func NewGlobal(builtin *Scope) *Scope {
	return &Scope{parent: builtin, names: make(map[string]Symbol)}
}

// NewChild opens a nested scope (function body, for-init, or any
// non-function compound), sharing the nearest enclosing FrameState so
// frame offsets keep accumulating across nested blocks.
func (s *Scope) NewChild() *Scope {
	return &Scope{parent: s, names: make(map[string]Symbol), Frame: s.Frame}
}

// NewFunctionScope opens the top-level scope of a function body, with a
// fresh FrameState.
func (s *Scope) NewFunctionScope() *Scope {
	return &Scope{
		parent: s,
		names:  make(map[string]Symbol),
		Frame: &FrameState{
			Labels: make(map[string]bool),
			Gotos:  make(map[string]bool),
		},
	}
}

// Add inserts name -> sym in this scope. It fails with Redefined if name is
// already bound *in this scope* (shadowing an outer scope's binding is
// allowed and is not a redefinition).
func (s *Scope) Add(pos ccerror.Pos, name string, sym Symbol) error {
	if _, ok := s.names[name]; ok {
		return ccerror.New(ccerror.Redefined, pos, "%q is already defined in this scope", name)
	}
	s.names[name] = sym
	return nil
}

// Find walks up the parent chain looking for name, returning (sym, true)
// on success.
func (s *Scope) Find(name string) (Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.names[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Get is Find but raises Undefined on failure.
func (s *Scope) Get(pos ccerror.Pos, name string) (Symbol, error) {
	if sym, ok := s.Find(name); ok {
		return sym, nil
	}
	return Symbol{}, ccerror.New(ccerror.Undefined, pos, "%q is not defined", name)
}

// GetType is a typed accessor: Get, then assert the symbol is a type.
func (s *Scope) GetType(pos ccerror.Pos, name string) (types.Type, error) {
	sym, err := s.Get(pos, name)
	if err != nil {
		return nil, err
	}
	if !sym.IsType() {
		return nil, ccerror.New(ccerror.NotAType, pos, "%q is not a type", name)
	}
	return sym.Type, nil
}

// GetVariable is a typed accessor: Get, then assert the symbol is a value
// (variable or function).
func (s *Scope) GetVariable(pos ccerror.Pos, name string) (values.Value, error) {
	sym, err := s.Get(pos, name)
	if err != nil {
		return nil, err
	}
	if !sym.IsValue() {
		return nil, ccerror.New(ccerror.NotAVariable, pos, "%q is not a variable", name)
	}
	return sym.Value, nil
}

// GetStruct is a typed accessor: GetType, then assert the type is a struct.
func (s *Scope) GetStruct(pos ccerror.Pos, name string) (*types.Struct, error) {
	t, err := s.GetType(pos, name)
	if err != nil {
		return nil, err
	}
	st, ok := t.(*types.Struct)
	if !ok {
		return nil, ccerror.New(ccerror.NotAStruct, pos, "%q is not a struct", name)
	}
	return st, nil
}

// GetFunction is a typed accessor: GetVariable, then assert the value is a
// Function.
func (s *Scope) GetFunction(pos ccerror.Pos, name string) (*values.Function, error) {
	v, err := s.GetVariable(pos, name)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(*values.Function)
	if !ok {
		return nil, ccerror.New(ccerror.NotAFunction, pos, "%q is not a function", name)
	}
	return fn, nil
}

// AllocLocal reserves size bytes (rounded up to 4) in the scope's frame and
// returns the local's negative offset, per spec.md §4.4.3.
func (s *Scope) AllocLocal(size int) int {
	f := s.Frame
	if size%4 != 0 {
		size += 4 - size%4
	}
	f.Offset += size
	if f.Offset > f.MaxFrameSize {
		f.MaxFrameSize = f.Offset
	}
	return -f.Offset
}
