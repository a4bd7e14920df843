package sema

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// conversion is what TryConvert returns: the node Codegen should read
// (possibly n itself, possibly a synthesized Cast wrapper) together with
// its value.
type conversion struct {
	node  ast.Node
	value values.Value
}

// tryConvert implements spec.md §4.4.1's try_convert(t1, node) algorithm.
// node must already have been visited (so its value/type are known); ok is
// false if no rule applies.
func (s *Sema) tryConvert(t1 types.Type, node ast.Node) (conversion, bool, error) {
	v2 := s.u.Store.ValueOf(node)
	if v2 == nil {
		var err error
		v2, err = s.visitExpr(node)
		if err != nil {
			return conversion{}, false, err
		}
	}
	t2 := v2.Type()

	// Step 1: resolve a placeholder pointer target from t2.
	if p1, ok := t1.(*types.Pointer); ok && p1.Unresolved {
		p1.ResolveBase(pointerBaseOf(t2))
	}

	// Step 2: already compatible -> retype in place.
	if types.IsCompatible(t1, t2) {
		s.u.Store.SetValue(node, retype(v2, t1))
		return conversion{node: node, value: s.u.Store.ValueOf(node)}, true, nil
	}

	// Step 3: try the deterministic rule list.
	if conv, ok, err := s.convertRules(t1, t2, v2, node); err != nil || ok {
		return conv, ok, err
	}
	return conversion{}, false, nil
}

// convert is tryConvert, raising ConversionError on failure.
func (s *Sema) convert(t1 types.Type, node ast.Node) (conversion, error) {
	conv, ok, err := s.tryConvert(t1, node)
	if err != nil {
		return conversion{}, err
	}
	if !ok {
		return conversion{}, ccerror.New(ccerror.ConversionError, node.Pos(),
			"cannot convert %s to %s", s.u.Store.ValueOf(node).Type(), t1)
	}
	return conv, nil
}

func pointerBaseOf(t2 types.Type) types.Type {
	switch v := t2.(type) {
	case *types.Array:
		return v.Base
	case *types.Pointer:
		return v.Base
	case *types.Function:
		return v
	default:
		return types.VoidType
	}
}

// retype produces a copy of v2 annotated with type t1, for the
// already-compatible case where no rewrite is needed, only a type-slot
// update (e.g. resolving a placeholder pointer through a chain of
// compatible pointer types).
func retype(v values.Value, t types.Type) values.Value {
	switch vv := v.(type) {
	case *values.IntConstant:
		it := t.(*types.Int)
		val, _ := it.Normalize(vv.Value)
		return &values.IntConstant{Value: val, Ty: it}
	case *values.PtrConstant:
		return &values.PtrConstant{Value: vv.Value, Ty: t.(*types.Pointer)}
	case *values.SymConstant:
		return &values.SymConstant{Name: vv.Name, Offset: vv.Offset, Ty: t.(*types.Pointer)}
	default:
		return v
	}
}

// convertRules applies spec.md §4.4.1's deterministic rule list, in order.
func (s *Sema) convertRules(t1, t2 types.Type, v2 values.Value, node ast.Node) (conversion, bool, error) {
	pos := node.Pos()

	// Array -> pointer.
	if arr, ok := t2.(*types.Array); ok {
		if p1, ok := t1.(*types.Pointer); ok && types.IsCompatible(p1.Base, arr.Base) {
			return s.decayArray(v2, p1, node)
		}
	}

	// Function -> pointer-to-function.
	if fn, ok := v2.(*values.Function); ok {
		if p1, ok := t1.(*types.Pointer); ok && types.IsCompatible(p1.Base, fn.Ty) {
			sc := &values.SymConstant{Name: fn.FuncName, Ty: p1}
			s.u.Store.SetValue(node, sc)
			return conversion{node: node, value: sc}, true, nil
		}
	}

	// Int -> Int.
	if it1, ok := t1.(*types.Int); ok {
		if it2, ok := t2.(*types.Int); ok {
			if ic2, ok := v2.(*values.IntConstant); ok {
				val, wrapped := it1.Normalize(ic2.Value)
				if wrapped {
					s.u.Warn(pos, "integer constant out of range for %s", it1)
				}
				folded := &values.IntConstant{Value: val, Ty: it1}
				s.u.Store.SetValue(node, folded)
				return conversion{node: node, value: folded}, true, nil
			}
			cast := &ast.Cast{Base: ast.Base{P: pos}, X: node}
			tv := &values.TemporaryValue{Ty: it1}
			s.u.Store.SetValue(cast, tv)
			s.u.Store.Get(node).Translated = cast
			return conversion{node: cast, value: tv}, true, nil
		}
	}

	// Pointer-to-void <-> pointer-to-object.
	if p1, ok := t1.(*types.Pointer); ok {
		if p2, ok := t2.(*types.Pointer); ok {
			if isVoidPtr(p1) || isVoidPtr(p2) {
				switch c2 := v2.(type) {
				case *values.PtrConstant:
					rewrapped := &values.PtrConstant{Value: c2.Value, Ty: p1}
					s.u.Store.SetValue(node, rewrapped)
					return conversion{node: node, value: rewrapped}, true, nil
				case *values.SymConstant:
					rewrapped := &values.SymConstant{Name: c2.Name, Offset: c2.Offset, Ty: p1}
					s.u.Store.SetValue(node, rewrapped)
					return conversion{node: node, value: rewrapped}, true, nil
				default:
					cast := &ast.Cast{Base: ast.Base{P: pos}, X: node}
					tv := &values.TemporaryValue{Ty: p1}
					s.u.Store.SetValue(cast, tv)
					s.u.Store.Get(node).Translated = cast
					return conversion{node: cast, value: tv}, true, nil
				}
			}
		}
	}

	// Null pointer.
	if p1, ok := t1.(*types.Pointer); ok {
		if isNullPointerValue(v2, t2) {
			pc := &values.PtrConstant{Value: 0, Ty: p1}
			s.u.Store.SetValue(node, pc)
			return conversion{node: node, value: pc}, true, nil
		}
	}

	return conversion{}, false, nil
}

func isVoidPtr(p *types.Pointer) bool {
	_, ok := p.Base.(types.Void)
	return ok
}

func isNullPointerValue(v values.Value, t types.Type) bool {
	switch vv := v.(type) {
	case *values.IntConstant:
		return vv.IsZero()
	case *values.PtrConstant:
		if p, ok := t.(*types.Pointer); ok {
			return vv.IsNull() && isVoidPtr(p)
		}
	}
	return false
}

// decayArray implements the "Array -> pointer" rule's three cases: a
// named static/global becomes a SymConstant, a string literal is
// registered in the rodata pool and becomes a SymConstant, otherwise the
// array is not addressable as a symbol (e.g. it is itself a MemoryAccess)
// and the Cast wrapper stands, carrying a TemporaryValue address computed
// by Codegen's address_of.
func (s *Sema) decayArray(v2 values.Value, p1 *types.Pointer, node ast.Node) (conversion, bool, error) {
	switch vv := v2.(type) {
	case *values.GlobalVariable:
		sc := &values.SymConstant{Name: vv.Label, Ty: p1}
		s.u.Store.SetValue(node, sc)
		return conversion{node: node, value: sc}, true, nil
	case *values.StaticVariable:
		sc := &values.SymConstant{Name: vv.Label, Ty: p1}
		s.u.Store.SetValue(node, sc)
		return conversion{node: node, value: sc}, true, nil
	case *values.StrLiteral:
		if vv.RodataLabel == "" {
			vv.RodataLabel = s.u.Writer.InternString(vv.Bytes)
		}
		sc := &values.SymConstant{Name: vv.RodataLabel, Ty: p1}
		s.u.Store.SetValue(node, sc)
		return conversion{node: node, value: sc}, true, nil
	default:
		cast := &ast.Cast{Base: ast.Base{P: node.Pos()}, X: node}
		tv := &values.TemporaryValue{Ty: p1}
		s.u.Store.SetValue(cast, tv)
		s.u.Store.Get(node).Translated = cast
		return conversion{node: cast, value: tv}, true, nil
	}
}

// explicitCastOnly applies spec.md §4.4.2's extra permissive rules that
// only an explicit `(T)e` may use, not the implicit try_convert ladder:
// Int <-> Pointer reinterpretation, and arbitrary Pointer <-> Pointer so
// long as both sides are to-object or both to-function (never mixed).
func (s *Sema) explicitCastOnly(t1, t2 types.Type, v2 values.Value, node ast.Node) (conversion, bool, error) {
	pos := node.Pos()

	if p1, ok := t1.(*types.Pointer); ok {
		if ic2, ok := v2.(*values.IntConstant); ok {
			pc := &values.PtrConstant{Value: uint32(ic2.Value), Ty: p1}
			s.u.Store.SetValue(node, pc)
			return conversion{node: node, value: pc}, true, nil
		}
		if _, ok := t2.(*types.Int); ok {
			cast := &ast.Cast{Base: ast.Base{P: pos}, X: node}
			tv := &values.TemporaryValue{Ty: p1}
			s.u.Store.SetValue(cast, tv)
			s.u.Store.Get(node).Translated = cast
			return conversion{node: cast, value: tv}, true, nil
		}
	}

	if it1, ok := t1.(*types.Int); ok {
		if p2, ok := t2.(*types.Pointer); ok {
			_ = p2
			if pc2, ok := v2.(*values.PtrConstant); ok {
				val, _ := it1.Normalize(int64(int32(pc2.Value)))
				ic := &values.IntConstant{Value: val, Ty: it1}
				s.u.Store.SetValue(node, ic)
				return conversion{node: node, value: ic}, true, nil
			}
			cast := &ast.Cast{Base: ast.Base{P: pos}, X: node}
			tv := &values.TemporaryValue{Ty: it1}
			s.u.Store.SetValue(cast, tv)
			s.u.Store.Get(node).Translated = cast
			return conversion{node: cast, value: tv}, true, nil
		}
	}

	if p1, ok := t1.(*types.Pointer); ok {
		if p2, ok := t2.(*types.Pointer); ok {
			_, f1 := p1.Base.(*types.Function)
			_, f2 := p2.Base.(*types.Function)
			if f1 == f2 {
				switch c2 := v2.(type) {
				case *values.PtrConstant:
					rewrapped := &values.PtrConstant{Value: c2.Value, Ty: p1}
					s.u.Store.SetValue(node, rewrapped)
					return conversion{node: node, value: rewrapped}, true, nil
				case *values.SymConstant:
					rewrapped := &values.SymConstant{Name: c2.Name, Offset: c2.Offset, Ty: p1}
					s.u.Store.SetValue(node, rewrapped)
					return conversion{node: node, value: rewrapped}, true, nil
				default:
					cast := &ast.Cast{Base: ast.Base{P: pos}, X: node}
					tv := &values.TemporaryValue{Ty: p1}
					s.u.Store.SetValue(cast, tv)
					s.u.Store.Get(node).Translated = cast
					return conversion{node: cast, value: tv}, true, nil
				}
			}
			return conversion{}, false, ccerror.New(ccerror.ConversionError, pos, "cannot cast between object and function pointer types")
		}
	}

	return conversion{}, false, nil
}

// tryConvertToPointer is the operand-of-binary-op / operand-of-logical
// variant: if the node is already an integer it's left alone when
// skipIfInt is set, otherwise the usual array/function-to-pointer decay is
// applied in place (spec.md §4.4.1).
func (s *Sema) tryConvertToPointer(node ast.Node, skipIfInt bool, target types.Type) (values.Value, ast.Node, error) {
	v := s.u.Store.ValueOf(node)
	if v == nil {
		var err error
		v, err = s.visitExpr(node)
		if err != nil {
			return nil, nil, err
		}
	}
	if _, ok := v.(*values.IntConstant); ok && skipIfInt {
		return v, node, nil
	}
	var want types.Type
	switch t := v.Type().(type) {
	case *types.Array:
		if target != nil {
			want = target
		} else {
			want = &types.Pointer{Base: t.Base}
		}
	case *types.Function:
		if target != nil {
			want = target
		} else {
			want = &types.Pointer{Base: t}
		}
	default:
		return v, node, nil
	}
	conv, err := s.convert(want, node)
	if err != nil {
		return nil, nil, err
	}
	return conv.value, conv.node, nil
}
