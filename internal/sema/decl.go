package sema

import (
	"github.com/samber/lo"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/asmwriter"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// visitStructDecl resolves a struct tag declaration/definition. A forward
// declaration (Fields == nil) introduces an incomplete struct only if the
// tag is not already known; a defining occurrence lays out fields and
// marks the struct complete (spec.md §3, "Field layout").
func (s *Sema) visitStructDecl(d *ast.StructDecl) error {
	existing, found := s.scope.Find("struct " + d.Tag)
	var st *types.Struct
	if found && existing.IsType() {
		var ok bool
		st, ok = existing.Type.(*types.Struct)
		if !ok {
			return ccerror.New(ccerror.NotAStruct, d.Pos(), "%q is already defined as a non-struct type", d.Tag)
		}
	} else {
		st = &types.Struct{TypeName: d.Tag}
		if err := s.scope.Add(d.Pos(), "struct "+d.Tag, scope.TypeSymbol(st)); err != nil {
			return err
		}
	}
	if d.Fields == nil {
		return nil
	}
	if st.Complete {
		return ccerror.New(ccerror.Redefined, d.Pos(), "struct %q is already defined", d.Tag)
	}
	if len(d.Fields) == 0 {
		return ccerror.NotImpl(d.Pos(), "empty struct").CCError
	}
	fields := make([]types.Field, len(d.Fields))
	for i, fd := range d.Fields {
		ft, err := s.resolveType(fd.TypeExpr)
		if err != nil {
			return err
		}
		if !ft.IsComplete() {
			return ccerror.New(ccerror.IncompleteType, fd.Pos(), "field %q has incomplete type %s", fd.Name, ft)
		}
		fields[i] = types.Field{Name: fd.Name, Type: ft}
	}
	names := lo.Map(fields, func(f types.Field, _ int) string { return f.Name })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return ccerror.New(ccerror.Redefined, d.Pos(), "struct %q has duplicate field %q", d.Tag, dups[0])
	}
	if err := st.SetFields(fields); err != nil {
		return ccerror.New(ccerror.InvalidOperand, d.Pos(), "%s", err)
	}
	return nil
}

// visitGlobalDecl binds one file-scope variable, resolving its storage
// class and (if present) validating its initializer as a constant
// expression (spec.md §4.4.3: globals may only be initialized with
// constants, never runtime computation).
func (s *Sema) visitGlobalDecl(d *ast.Decl) error {
	t, err := s.resolveType(d.TypeExpr)
	if err != nil {
		return err
	}
	if ft, ok := t.(*types.Function); ok {
		return s.declareFunctionPrototype(d, ft)
	}
	if arr, ok := t.(*types.Array); ok && arr.Dim == nil {
		if err := s.completeArrayFromInit(arr, d.Init, d.Pos()); err != nil {
			return err
		}
	}

	switch d.Storage {
	case ast.StorageExtern:
		if d.Init != nil {
			return ccerror.New(ccerror.InvalidInitializer, d.Pos(), "extern declaration %q may not have an initializer", d.Name)
		}
		ev := &values.ExternVariable{VarName: d.Name, Ty: t}
		return s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(ev))
	case ast.StorageStatic:
		label := s.u.Writer.StaticLabel("", d.Name)
		sv := &values.StaticVariable{VarName: d.Name, Ty: t, Label: label}
		if err := s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(sv)); err != nil {
			return err
		}
		return s.emitGlobalStorage(label, t, d.Init, d.Pos(), false)
	default:
		gv := &values.GlobalVariable{VarName: d.Name, Ty: t, Label: d.Name}
		if err := s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(gv)); err != nil {
			return err
		}
		return s.emitGlobalStorage(d.Name, t, d.Init, d.Pos(), true)
	}
}

// completeArrayFromInit fills in an incomplete array's dimension from its
// initializer: a string literal's length, or an initializer list's
// element count.
func (s *Sema) completeArrayFromInit(arr *types.Array, init ast.Node, pos ccerror.Pos) error {
	switch x := init.(type) {
	case nil:
		return ccerror.New(ccerror.InvalidInitializer, pos, "array of unknown size must be initialized")
	case *ast.StrLit:
		sl := newStrLiteral(x.Bytes)
		arr.SetDim(*sl.ArrayType.Dim)
		return nil
	case *ast.InitList:
		arr.SetDim(len(x.Items))
		return nil
	default:
		return ccerror.New(ccerror.InvalidInitializer, pos, "cannot deduce array size from this initializer")
	}
}

// emitGlobalStorage writes a global/static variable's definition into the
// appropriate section: .bss when uninitialized, .data with constant-
// folded content otherwise (spec.md §4.3/§4.4.3).
func (s *Sema) emitGlobalStorage(label string, t types.Type, init ast.Node, pos ccerror.Pos, global bool) error {
	if !t.IsComplete() {
		return ccerror.New(ccerror.IncompleteType, pos, "%q has incomplete type %s", label, t)
	}
	w := s.u.Writer
	if init == nil {
		w.SetSection(asmwriter.Bss)
		w.OwnFragment()
		w.EmitGlobalHeader(label, align2(t.Align()), global, "@object")
		w.Emitf(".fill %d", t.Size())
		w.EmitGlobalFooter(label, global, "@object")
		return nil
	}
	w.SetSection(asmwriter.Data)
	w.OwnFragment()
	w.EmitGlobalHeader(label, align2(t.Align()), global, "@object")
	if err := s.emitInitializer(t, init, pos); err != nil {
		return err
	}
	w.EmitGlobalFooter(label, global, "@object")
	return nil
}

// emitInitializer writes t's constant initializer content, recursing into
// InitList for array/struct initializers and padding any unspecified tail
// with zero fill.
func (s *Sema) emitInitializer(t types.Type, init ast.Node, pos ccerror.Pos) error {
	w := s.u.Writer
	switch tt := t.(type) {
	case *types.Array:
		if str, ok := init.(*ast.StrLit); ok {
			sl := newStrLiteral(str.Bytes)
			w.Emit(".asciz " + asmwriter.QuoteAsciz(sl.Bytes))
			pad := *tt.Dim - *sl.ArrayType.Dim
			w.EmitFill(pad * tt.Base.Size())
			return nil
		}
		list, ok := init.(*ast.InitList)
		if !ok {
			return ccerror.New(ccerror.InvalidInitializer, pos, "array initializer must be a brace list or string literal")
		}
		for _, item := range list.Items {
			if err := s.emitInitializer(tt.Base, item, pos); err != nil {
				return err
			}
		}
		remaining := *tt.Dim - len(list.Items)
		if remaining > 0 {
			w.EmitFill(remaining * tt.Base.Size())
		}
		return nil
	case *types.Struct:
		list, ok := init.(*ast.InitList)
		if !ok {
			return ccerror.New(ccerror.InvalidInitializer, pos, "struct initializer must be a brace list")
		}
		if len(list.Items) > len(tt.Fields) {
			return ccerror.New(ccerror.InvalidInitializer, pos, "too many initializers for struct %s", tt)
		}
		written := 0
		for i, f := range tt.Fields {
			if i < len(list.Items) {
				if err := s.emitInitializer(f.Type, list.Items[i], pos); err != nil {
					return err
				}
				written = f.Offset + f.Type.Size()
			} else {
				w.EmitFill(f.Type.Size())
				written = f.Offset + f.Type.Size()
			}
		}
		if tail := tt.Size() - written; tail > 0 {
			w.EmitFill(tail)
		}
		return nil
	default:
		v, err := s.constFoldInitializer(t, init)
		if err != nil {
			return err
		}
		return w.EmitConstant(v)
	}
}

// constFoldInitializer evaluates and converts a scalar global initializer,
// requiring the result to be a compile-time constant (IntConstant,
// PtrConstant, or SymConstant — never a TemporaryValue).
func (s *Sema) constFoldInitializer(t types.Type, init ast.Node) (values.Value, error) {
	conv, err := s.convert(t, init)
	if err != nil {
		return nil, err
	}
	switch conv.value.(type) {
	case *values.IntConstant, *values.PtrConstant, *values.SymConstant:
		return conv.value, nil
	default:
		return nil, ccerror.New(ccerror.NonConstantInitializer, init.Pos(), "global initializer must be a constant expression")
	}
}

func align2(n int) int {
	switch n {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 2
	}
}
