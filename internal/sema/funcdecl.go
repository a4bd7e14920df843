package sema

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// declareFunctionPrototype binds a function declared but not defined at
// this point (`int f(int);`). Redeclaration with a compatible signature is
// permitted; a conflicting one is Redefined.
func (s *Sema) declareFunctionPrototype(d *ast.Decl, ft *types.Function) error {
	if existing, ok := s.scope.Find(d.Name); ok && existing.IsValue() {
		if fn, ok := existing.Value.(*values.Function); ok {
			if !types.IsCompatible(fn.Ty, ft) {
				return ccerror.New(ccerror.Redefined, d.Pos(), "conflicting declaration of %q", d.Name)
			}
			return nil
		}
		return ccerror.New(ccerror.Redefined, d.Pos(), "%q is already defined", d.Name)
	}
	fn := &values.Function{FuncName: d.Name, Ty: ft}
	return s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(fn))
}

// visitFuncDef implements function definitions (spec.md §4.4.3): resolves
// the signature, binds parameters as Arguments in a fresh function scope
// with their frame offsets (>= 8, skipping the saved ra/fp slots), then
// walks the body. Labels/gotos are cross-checked at the end, per spec.md
// §4.4.5.
func (s *Sema) visitFuncDef(d *ast.FuncDef) error {
	ret, err := s.resolveType(d.RetTypeExpr)
	if err != nil {
		return err
	}
	argTypes := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		pt, err := s.resolveType(p.TypeExpr)
		if err != nil {
			return err
		}
		argTypes[i] = pt
	}
	ft, err := types.NewFunction(ret, argTypes, d.Ellipsis)
	if err != nil {
		return ccerror.New(ccerror.InvalidOperand, d.Pos(), "%s", err)
	}

	if existing, ok := s.scope.Find(d.Name); ok && existing.IsValue() {
		if fn, ok := existing.Value.(*values.Function); ok {
			if !types.IsCompatible(fn.Ty, ft) {
				return ccerror.New(ccerror.Redefined, d.Pos(), "conflicting definition of %q", d.Name)
			}
		} else {
			return ccerror.New(ccerror.Redefined, d.Pos(), "%q is already defined", d.Name)
		}
	} else {
		fn := &values.Function{FuncName: d.Name, Ty: ft}
		if err := s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(fn)); err != nil {
			return err
		}
	}
	if s.definedFuncs == nil {
		s.definedFuncs = make(map[string]bool)
	}
	if s.definedFuncs[d.Name] {
		return ccerror.New(ccerror.Redefined, d.Pos(), "%q is already defined", d.Name)
	}
	s.definedFuncs[d.Name] = true

	outer := s.scope
	fnScope := outer.NewFunctionScope()
	offset := 8
	for i, p := range d.Params {
		arg := &values.Argument{VarName: p.Name, Ty: argTypes[i], FrameOffset: offset}
		if p.Name != "" {
			if err := fnScope.Add(p.Pos(), p.Name, scope.ValueSymbol(arg)); err != nil {
				return err
			}
		}
		sz := argTypes[i].Size()
		if sz < 4 {
			sz = 4
		}
		if sz%4 != 0 {
			sz += 4 - sz%4
		}
		offset += sz
	}

	s.scope = fnScope
	s.funcName = d.Name
	s.funcRet = ret
	defer func() {
		s.scope = outer
		s.funcName = ""
		s.funcRet = nil
	}()

	for _, item := range d.Body.Items {
		if err := s.visitBlockItem(item); err != nil {
			return s.wrap(item, "in body of "+d.Name, err)
		}
	}

	for label := range fnScope.Frame.Gotos {
		if !fnScope.Frame.Labels[label] {
			return ccerror.New(ccerror.UnknownLabel, d.Pos(), "goto to undefined label %q in function %q", label, d.Name)
		}
	}

	rec := s.u.Store.Get(d)
	rec.Labels = []string{s.u.Writer.MintLabel(d.Name + ".ret")}
	rec.FrameSize = fnScope.Frame.MaxFrameSize
	return nil
}

// visitBlockItem dispatches one item of a CompoundStmt: either a
// declaration (Decl/StructDecl) or a statement.
func (s *Sema) visitBlockItem(n ast.Node) error {
	switch x := n.(type) {
	case *ast.Decl:
		return s.visitLocalDecl(x)
	case *ast.StructDecl:
		return s.visitStructDecl(x)
	default:
		return s.visitStmt(n)
	}
}

// visitLocalDecl binds one block-scope variable. A `static` local gets a
// file-scope label (so it survives across calls) but is only visible in
// this scope; an automatic local is allocated a frame slot. Initializers
// are lowered into an assignment statement recorded as the Decl's own
// translated replacement, executed in place where the declaration occurs
// (spec.md §4.4.3).
func (s *Sema) visitLocalDecl(d *ast.Decl) error {
	t, err := s.resolveType(d.TypeExpr)
	if err != nil {
		return err
	}
	if arr, ok := t.(*types.Array); ok && arr.Dim == nil {
		if err := s.completeArrayFromInit(arr, d.Init, d.Pos()); err != nil {
			return err
		}
	}

	if d.Storage == ast.StorageStatic {
		label := s.u.Writer.StaticLabel(s.funcName, d.Name)
		sv := &values.StaticVariable{VarName: d.Name, Ty: t, Label: label}
		if err := s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(sv)); err != nil {
			return err
		}
		return s.emitGlobalStorage(label, t, d.Init, d.Pos(), false)
	}
	if d.Storage == ast.StorageExtern {
		if d.Init != nil {
			return ccerror.New(ccerror.InvalidInitializer, d.Pos(), "extern declaration %q may not have an initializer", d.Name)
		}
		ev := &values.ExternVariable{VarName: d.Name, Ty: t}
		return s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(ev))
	}

	if !t.IsComplete() {
		return ccerror.New(ccerror.IncompleteType, d.Pos(), "%q has incomplete type %s", d.Name, t)
	}
	off := s.scope.AllocLocal(t.Size())
	lv := &values.LocalVariable{VarName: d.Name, Ty: t, FrameOffset: off}
	if err := s.scope.Add(d.Pos(), d.Name, scope.ValueSymbol(lv)); err != nil {
		return err
	}
	if d.Init == nil {
		return nil
	}

	target := &ast.Ident{Base: ast.Base{P: d.Pos()}, Name: d.Name}
	var stmts []ast.Node
	if isAggregate(t) {
		stmts = append(stmts, s.buildMemsetZero(target, t, d.Pos()))
	}
	assigns, err := s.buildInitAssigns(target, t, d.Init, d.Pos())
	if err != nil {
		return err
	}
	stmts = append(stmts, assigns...)
	if len(stmts) == 1 {
		s.u.Store.Get(d).Translated = stmts[0]
		return nil
	}
	s.u.Store.Get(d).Translated = &ast.CompoundStmt{Base: ast.Base{P: d.Pos()}, Items: stmts}
	return nil
}

// buildInitAssigns lowers a local initializer into one or more assignment
// statements against target, recursing field-by-field/element-by-element
// for array and struct initializers.
func (s *Sema) buildInitAssigns(target ast.Node, t types.Type, init ast.Node, pos ccerror.Pos) ([]ast.Node, error) {
	switch tt := t.(type) {
	case *types.Array:
		if str, ok := init.(*ast.StrLit); ok {
			sl := newStrLiteral(str.Bytes)
			var out []ast.Node
			for i, b := range sl.Bytes {
				out = append(out, s.buildScalarAssign(indexOf(target, i, pos), types.Char, charLitNode(int64(b), pos)))
			}
			out = append(out, s.buildScalarAssign(indexOf(target, len(sl.Bytes), pos), types.Char, charLitNode(0, pos)))
			for i := len(sl.Bytes) + 1; i < *tt.Dim; i++ {
				out = append(out, s.buildScalarAssign(indexOf(target, i, pos), types.Char, charLitNode(0, pos)))
			}
			return out, nil
		}
		list, ok := init.(*ast.InitList)
		if !ok {
			return nil, ccerror.New(ccerror.InvalidInitializer, pos, "array initializer must be a brace list or string literal")
		}
		var out []ast.Node
		for i, item := range list.Items {
			elems, err := s.buildInitAssigns(indexOf(target, i, pos), tt.Base, item, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, elems...)
		}
		return out, nil
	case *types.Struct:
		list, ok := init.(*ast.InitList)
		if !ok {
			return nil, ccerror.New(ccerror.InvalidInitializer, pos, "struct initializer must be a brace list")
		}
		if len(list.Items) > len(tt.Fields) {
			return nil, ccerror.New(ccerror.InvalidInitializer, pos, "too many initializers for struct %s", tt)
		}
		var out []ast.Node
		for i, item := range list.Items {
			f := tt.Fields[i]
			elems, err := s.buildInitAssigns(memberOf(target, f.Name, pos), f.Type, item, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, elems...)
		}
		return out, nil
	default:
		return []ast.Node{s.buildScalarAssign(target, t, init)}, nil
	}
}

func (s *Sema) buildScalarAssign(target ast.Node, t types.Type, init ast.Node) ast.Node {
	assign := &ast.Assign{Base: ast.Base{P: target.Pos()}, Op: "", Lhs: target, Rhs: init}
	return &ast.ExprStmt{Base: ast.Base{P: target.Pos()}, Expr: assign}
}

func indexOf(base ast.Node, i int, pos ccerror.Pos) ast.Node {
	idx := &ast.IntLit{Base: ast.Base{P: pos}, Value: int64(i)}
	return &ast.Index{Base: ast.Base{P: pos}, X: base, I: idx}
}

func memberOf(base ast.Node, field string, pos ccerror.Pos) ast.Node {
	return &ast.Member{Base: ast.Base{P: pos}, X: base, Field: field, Arrow: false}
}

func charLitNode(v int64, pos ccerror.Pos) ast.Node {
	return &ast.CharLit{Base: ast.Base{P: pos}, Value: v}
}
