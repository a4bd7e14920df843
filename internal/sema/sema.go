// Package sema implements Sema (spec.md §4.4): the recursive AST walker
// that performs type inference, implicit-conversion insertion, constant
// folding, scope/symbol resolution, initializer validation, control-flow
// label assignment, and AST-to-AST translation of high-level constructs
// into lower-level equivalents.
package sema

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/unit"
	"github.com/rrcc-project/rrcc/internal/values"
)

// Sema walks one translation unit. Its own state is the current scope, the
// loop/switch context, the error-context path, the names of functions
// already defined, and the current function's name and return type;
// everything it learns about an AST node is written into u.Store (spec.md §9).
type Sema struct {
	u     *unit.Unit
	scope *scope.Scope
	loops []loopCtx
	path  []string

	definedFuncs map[string]bool
	funcName     string
	funcRet      types.Type
	switchCase   *switchState
}

// loopCtx is one entry of the break/continue resolution stack (spec.md
// §4.4.5): every While/DoWhile/For/Switch push their own end label as
// the break target; only While/DoWhile/For also set a continue target.
type loopCtx struct {
	breakLabel    string
	continueLabel string // "" inside a Switch, which does not accept continue
	isSwitch      bool
}

// New creates a Sema walker over u, rooted at u.Global.
func New(u *unit.Unit) *Sema {
	return &Sema{u: u, scope: u.Global}
}

// Run visits every top-level declaration/definition of tu in order.
func (s *Sema) Run(tu *ast.TranslationUnit) error {
	for _, d := range tu.Decls {
		if err := s.visitTop(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sema) wrap(node ast.Node, label string, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ccerror.CCError); ok {
		return ce.AddContext(fmt.Sprintf("%s at %s", label, node.Pos()))
	}
	return err
}

func (s *Sema) visitTop(n ast.Node) error {
	switch d := n.(type) {
	case *ast.FuncDef:
		return s.wrap(n, "function "+d.Name, s.visitFuncDef(d))
	case *ast.Decl:
		return s.wrap(n, "declaration "+d.Name, s.visitGlobalDecl(d))
	case *ast.StructDecl:
		return s.wrap(n, "struct "+d.Tag, s.visitStructDecl(d))
	case *ast.CompoundStmt:
		for _, item := range d.Items {
			if err := s.visitTop(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return ccerror.New(ccerror.NotImplemented, n.Pos(), "unsupported top-level node %T", n)
	}
}

// resolveType resolves a TypeExpr into a types.Type against the current
// scope (spec.md §4.4.1-adjacent: used everywhere a declarator or cast
// names a type).
func (s *Sema) resolveType(te ast.TypeExpr) (types.Type, error) {
	switch t := te.(type) {
	case *ast.NamedType:
		if t.IsStruct {
			st, err := s.scope.GetStruct(t.Pos(), t.Name)
			if err != nil {
				return nil, err
			}
			return st, nil
		}
		return s.scope.GetType(t.Pos(), t.Name)
	case *ast.PointerType:
		base, err := s.resolveType(t.To)
		if err != nil {
			return nil, err
		}
		return &types.Pointer{Base: base}, nil
	case *ast.ArrayType:
		base, err := s.resolveType(t.Of)
		if err != nil {
			return nil, err
		}
		arr := &types.Array{Base: base}
		if t.Dim != nil {
			v, err := s.constIntValue(t.Dim)
			if err != nil {
				return nil, err
			}
			dim := int(v)
			arr.SetDim(dim)
		}
		return arr, nil
	case *ast.FuncType:
		ret, err := s.resolveType(t.Ret)
		if err != nil {
			return nil, err
		}
		args := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			a, err := s.resolveType(p.TypeExpr)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return types.NewFunction(ret, args, t.Ellipsis)
	default:
		return nil, ccerror.New(ccerror.NotImplemented, te.Pos(), "unsupported type expression %T", te)
	}
}

// constIntValue evaluates a constant expression (e.g. an array dimension)
// to an int64, folding via visitExpr and requiring the result to be an
// IntConstant.
func (s *Sema) constIntValue(n ast.Node) (int64, error) {
	v, err := s.visitExpr(n)
	if err != nil {
		return 0, err
	}
	ic, ok := v.(*values.IntConstant)
	if !ok {
		return 0, ccerror.New(ccerror.NonConstantInitializer, n.Pos(), "expected a constant expression")
	}
	return ic.Value, nil
}
