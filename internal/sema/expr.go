package sema

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// visitExpr is the memoized entry point every expression node goes
// through. A node's Value is computed once; later references (e.g. a
// binary op visiting an operand twice through convert and fold) reuse it.
func (s *Sema) visitExpr(n ast.Node) (values.Value, error) {
	if v := s.u.Store.ValueOf(n); v != nil {
		return v, nil
	}
	v, err := s.visitExprUncached(n)
	if err != nil {
		return nil, err
	}
	s.u.Store.SetValue(n, v)
	return v, nil
}

func (s *Sema) visitExprUncached(n ast.Node) (values.Value, error) {
	switch x := n.(type) {
	case *ast.Ident:
		return s.scope.GetVariable(x.Pos(), x.Name)
	case *ast.IntLit:
		ty := pickIntLitType(x)
		val, _ := ty.Normalize(x.Value)
		return &values.IntConstant{Value: val, Ty: ty}, nil
	case *ast.CharLit:
		val, _ := types.Char.Normalize(x.Value)
		return &values.IntConstant{Value: val, Ty: types.Char}, nil
	case *ast.StrLit:
		return newStrLiteral(x.Bytes), nil
	case *ast.BinaryOp:
		return s.visitBinaryOp(x)
	case *ast.UnaryOp:
		return s.visitUnaryOp(x)
	case *ast.PostOp:
		return s.visitPostOp(x)
	case *ast.Assign:
		return s.visitAssign(x)
	case *ast.Cast:
		return s.visitCast(x)
	case *ast.Call:
		return s.visitCall(x)
	case *ast.Index:
		return s.visitIndex(x)
	case *ast.Member:
		return s.visitMember(x)
	case *ast.Ternary:
		return s.visitTernary(x)
	case *ast.SizeofExpr:
		return s.visitSizeofExpr(x)
	case *ast.SizeofType:
		return s.visitSizeofType(x)
	default:
		return nil, ccerror.New(ccerror.NotImplemented, n.Pos(), "unsupported expression %T", n)
	}
}

func newStrLiteral(raw []byte) *values.StrLiteral {
	bytes := raw
	if len(bytes) > 0 && bytes[len(bytes)-1] == 0 {
		bytes = bytes[:len(bytes)-1]
	}
	arr := &types.Array{Base: types.Char}
	arr.SetDim(len(bytes) + 1)
	return &values.StrLiteral{Bytes: bytes, ArrayType: arr}
}

// pickIntLitType picks an integer literal's type from its suffixes. The
// target machine is 32-bit, so plain "long" and "int" share size/sign and
// only differ in spelling; no literal overflows either.
func pickIntLitType(x *ast.IntLit) *types.Int {
	switch {
	case x.Unsigned && x.LongSuffix:
		return types.ULong
	case x.Unsigned:
		return types.UnsignedInt
	case x.LongSuffix:
		return types.Long
	default:
		return types.SignedInt
	}
}

// translate records orig's translated replacement and the shared result
// value, per spec.md §4.4.4 and §9 ("Rewriting during inference"). Pass
// orig == replacement for a plain constant fold with no AST rewrite.
func (s *Sema) translate(orig, replacement ast.Node, v values.Value) values.Value {
	rec := s.u.Store.Get(orig)
	rec.Value = v
	if replacement != orig {
		rec.Translated = replacement
		s.u.Store.SetValue(replacement, v)
	}
	return v
}

func truthOf(v values.Value) (truth bool, known bool) {
	switch vv := v.(type) {
	case *values.IntConstant:
		return !vv.IsZero(), true
	case *values.PtrConstant:
		return !vv.IsNull(), true
	case *values.SymConstant:
		return true, true
	default:
		return false, false
	}
}

func boolConstant(b bool) *values.IntConstant {
	if b {
		return &values.IntConstant{Value: 1, Ty: types.SignedInt}
	}
	return &values.IntConstant{Value: 0, Ty: types.SignedInt}
}

// --- Logical && || ---

func (s *Sema) visitLogical(n *ast.BinaryOp) (values.Value, error) {
	xv, xn, err := s.tryConvertToPointer(n.X, true, nil)
	if err != nil {
		return nil, err
	}
	// A constant truth value only licenses folding away the node (and
	// whichever operand it renders unreachable) when the operand actually
	// evaluated is side-effect free — otherwise folding would silently
	// drop an embedded assignment or call (e.g. `(x = 0) && f()`).
	xPure := isPure(xn)
	if xt, ok := truthOf(xv); ok && xPure {
		if n.Op == "&&" && !xt {
			return s.translate(n, n, boolConstant(false)), nil
		}
		if n.Op == "||" && xt {
			return s.translate(n, n, boolConstant(true)), nil
		}
	}
	yv, yn, err := s.tryConvertToPointer(n.Y, true, nil)
	if err != nil {
		return nil, err
	}
	if xt, xok := truthOf(xv); xok && xPure {
		if yt, yok := truthOf(yv); yok && isPure(yn) {
			var res bool
			if n.Op == "&&" {
				res = xt && yt
			} else {
				res = xt || yt
			}
			return s.translate(n, n, boolConstant(res)), nil
		}
	}
	if xn == n.X && yn == n.Y {
		return s.translate(n, n, &values.TemporaryValue{Ty: types.SignedInt}), nil
	}
	repl := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: n.Op, X: xn, Y: yn}
	return s.translate(n, repl, &values.TemporaryValue{Ty: types.SignedInt}), nil
}

// --- Comparisons ---

// visitSwappedComparison implements spec.md §4.4.4's `a>b -> b<a` and
// `a<=b -> b>=a` rewrite, so Codegen only ever has to emit `<` and `>=`.
func (s *Sema) visitSwappedComparison(n *ast.BinaryOp) (values.Value, error) {
	swapped := map[string]string{">": "<", "<=": ">="}[n.Op]
	repl := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: swapped, X: n.Y, Y: n.X}
	v, err := s.visitExpr(repl)
	if err != nil {
		return nil, err
	}
	return s.translate(n, repl, v), nil
}

func (s *Sema) visitComparison(n *ast.BinaryOp) (values.Value, error) {
	xv, xn, err := s.tryConvertToPointer(n.X, true, nil)
	if err != nil {
		return nil, err
	}
	yv, yn, err := s.tryConvertToPointer(n.Y, true, nil)
	if err != nil {
		return nil, err
	}

	_, xIsPtr := xv.Type().(*types.Pointer)
	_, yIsPtr := yv.Type().(*types.Pointer)
	if xIsPtr || yIsPtr {
		if xIsPtr && yIsPtr {
			if !types.IsCompatible(xv.Type(), yv.Type()) {
				s.u.Warn(n.Pos(), "comparison of distinct pointer types")
			}
		}
		if pc1, ok1 := constPtrBits(xv); ok1 && isPure(xn) {
			if pc2, ok2 := constPtrBits(yv); ok2 && isPure(yn) {
				return s.translate(n, n, boolConstant(compareOp(n.Op, int64(pc1), int64(pc2)))), nil
			}
		}
		return s.finishBinary(n, xn, yn, types.SignedInt)
	}

	xi, _ := xv.(*values.IntConstant)
	yi, _ := yv.(*values.IntConstant)
	common := types.ArithmeticCommon(xv.Type(), yv.Type())
	xc, err := s.convert(common, xn)
	if err != nil {
		return nil, err
	}
	yc, err := s.convert(common, yn)
	if err != nil {
		return nil, err
	}
	if xi != nil && yi != nil && isPure(xc.node) && isPure(yc.node) {
		lv, _ := xc.value.(*values.IntConstant)
		rv, _ := yc.value.(*values.IntConstant)
		if lv != nil && rv != nil {
			return s.translate(n, n, boolConstant(compareOp(n.Op, lv.Value, rv.Value))), nil
		}
	}
	return s.finishBinary(n, xc.node, yc.node, types.SignedInt)
}

func constPtrBits(v values.Value) (uint32, bool) {
	switch vv := v.(type) {
	case *values.PtrConstant:
		return vv.Value, true
	default:
		return 0, false
	}
}

func compareOp(op string, a, b int64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case ">=":
		return a >= b
	default:
		return false
	}
}

func (s *Sema) finishBinary(n *ast.BinaryOp, xn, yn ast.Node, resultTy types.Type) (values.Value, error) {
	if xn == n.X && yn == n.Y {
		return s.translate(n, n, &values.TemporaryValue{Ty: resultTy}), nil
	}
	repl := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: n.Op, X: xn, Y: yn}
	return s.translate(n, repl, &values.TemporaryValue{Ty: resultTy}), nil
}

// --- Arithmetic ---

func (s *Sema) visitArith(n *ast.BinaryOp) (values.Value, error) {
	xv, xn, err := s.tryConvertToPointer(n.X, true, nil)
	if err != nil {
		return nil, err
	}
	yv, yn, err := s.tryConvertToPointer(n.Y, true, nil)
	if err != nil {
		return nil, err
	}

	xp, xIsPtr := xv.Type().(*types.Pointer)
	yp, yIsPtr := yv.Type().(*types.Pointer)

	switch {
	case xIsPtr && yIsPtr && n.Op == "-":
		if !types.IsCompatible(xp.Base, yp.Base) {
			return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "subtracting pointers to incompatible types")
		}
		return s.finishBinary(n, xn, yn, types.Long)
	case xIsPtr && (n.Op == "+" || n.Op == "-"):
		return s.finishBinary(n, xn, yn, xp)
	case yIsPtr && n.Op == "+":
		return s.finishBinary(n, xn, yn, yp)
	}

	if xIsPtr || yIsPtr {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "invalid operand to binary %s", n.Op)
	}

	common := types.ArithmeticCommon(xv.Type(), yv.Type())
	xc, err := s.convert(common, xn)
	if err != nil {
		return nil, err
	}
	yc, err := s.convert(common, yn)
	if err != nil {
		return nil, err
	}
	ci := common.(*types.Int)

	if ci.Bytes == 8 && (n.Op == "/" || n.Op == "%" || n.Op == "<<" || n.Op == ">>") {
		return nil, ccerror.NotImpl(n.Pos(), "64-bit division, modulo, and shifts")
	}

	if xi, ok := xc.value.(*values.IntConstant); ok && isPure(xc.node) {
		if yi, ok := yc.value.(*values.IntConstant); ok && isPure(yc.node) {
			val, ok := foldArith(n.Op, xi.Value, yi.Value, ci)
			if !ok {
				return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "division by zero in constant expression")
			}
			normed, wrapped := ci.Normalize(val)
			if wrapped {
				s.u.Warn(n.Pos(), "integer overflow in constant expression")
			}
			return s.translate(n, n, &values.IntConstant{Value: normed, Ty: ci}), nil
		}
	}
	return s.finishBinary(n, xc.node, yc.node, ci)
}

func foldArith(op string, a, b int64, ty *types.Int) (int64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		if ty.Unsigned {
			return int64(uint64(a) / uint64(b)), true
		}
		return a / b, true
	case "%":
		if b == 0 {
			return 0, false
		}
		if ty.Unsigned {
			return int64(uint64(a) % uint64(b)), true
		}
		return a % b, true
	case "&":
		return a & b, true
	case "|":
		return a | b, true
	case "^":
		return a ^ b, true
	case "<<":
		return a << uint(b), true
	case ">>":
		if ty.Unsigned {
			return int64(uint64(a) >> uint(b)), true
		}
		return a >> uint(b), true
	default:
		return 0, false
	}
}

func (s *Sema) visitBinaryOp(n *ast.BinaryOp) (values.Value, error) {
	switch n.Op {
	case "&&", "||":
		return s.visitLogical(n)
	case ">", "<=":
		return s.visitSwappedComparison(n)
	case "==", "!=", "<", ">=":
		return s.visitComparison(n)
	case ",":
		return nil, ccerror.NotImpl(n.Pos(), "comma operator")
	default:
		return s.visitArith(n)
	}
}

// --- Unary ---

func (s *Sema) visitUnaryOp(n *ast.UnaryOp) (values.Value, error) {
	switch n.Op {
	case "&":
		return s.visitAddressOf(n)
	case "*":
		return s.visitDeref(n)
	case "!":
		return s.visitNot(n)
	case "~":
		return s.visitBitNot(n)
	case "-":
		return s.visitNeg(n)
	case "++", "--":
		av, assign, err := s.visitPrePost(n, n.X, n.Op)
		if err != nil {
			return nil, err
		}
		return s.translate(n, assign, av), nil
	default:
		return nil, ccerror.New(ccerror.NotImplemented, n.Pos(), "unsupported unary operator %q", n.Op)
	}
}

func (s *Sema) visitAddressOf(n *ast.UnaryOp) (values.Value, error) {
	v, err := s.visitExpr(n.X)
	if err != nil {
		return nil, err
	}
	if !v.IsLValue() {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "cannot take the address of a non-lvalue")
	}
	return s.translate(n, n, &values.TemporaryValue{Ty: &types.Pointer{Base: v.Type()}}), nil
}

func (s *Sema) visitDeref(n *ast.UnaryOp) (values.Value, error) {
	v, xn, err := s.tryConvertToPointer(n.X, false, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := v.Type().(*types.Pointer); !ok {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "indirection requires a pointer operand")
	}
	if xn == n.X {
		return s.translate(n, n, &values.MemoryAccess{Addr: v}), nil
	}
	repl := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "*", X: xn}
	return s.translate(n, repl, &values.MemoryAccess{Addr: v}), nil
}

func (s *Sema) visitNot(n *ast.UnaryOp) (values.Value, error) {
	v, xn, err := s.tryConvertToPointer(n.X, true, nil)
	if err != nil {
		return nil, err
	}
	if t, ok := truthOf(v); ok {
		return s.translate(n, n, boolConstant(!t)), nil
	}
	if xn == n.X {
		return s.translate(n, n, &values.TemporaryValue{Ty: types.SignedInt}), nil
	}
	repl := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "!", X: xn}
	return s.translate(n, repl, &values.TemporaryValue{Ty: types.SignedInt}), nil
}

func (s *Sema) visitBitNot(n *ast.UnaryOp) (values.Value, error) {
	v, err := s.visitExpr(n.X)
	if err != nil {
		return nil, err
	}
	it, ok := v.Type().(*types.Int)
	if !ok {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "bitwise not requires an integer operand")
	}
	promoted := types.PromoteInt(it).(*types.Int)
	conv, err := s.convert(promoted, n.X)
	if err != nil {
		return nil, err
	}
	if ic, ok := conv.value.(*values.IntConstant); ok && isPure(conv.node) {
		val, _ := promoted.Normalize(^ic.Value)
		return s.translate(n, n, &values.IntConstant{Value: val, Ty: promoted}), nil
	}
	if conv.node == n.X {
		return s.translate(n, n, &values.TemporaryValue{Ty: promoted}), nil
	}
	repl := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "~", X: conv.node}
	return s.translate(n, repl, &values.TemporaryValue{Ty: promoted}), nil
}

// visitNeg implements spec.md §4.4.4's unary-minus translation: on an
// 8-byte operand, `-x` is rewritten to `~x+1` (two's-complement negation
// by bitwise-not-then-increment, since the target has no native 64-bit
// negate instruction); on narrower operands Codegen emits it directly.
func (s *Sema) visitNeg(n *ast.UnaryOp) (values.Value, error) {
	v, err := s.visitExpr(n.X)
	if err != nil {
		return nil, err
	}
	it, ok := v.Type().(*types.Int)
	if !ok {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "unary minus requires an integer operand")
	}
	promoted := types.PromoteInt(it).(*types.Int)
	conv, err := s.convert(promoted, n.X)
	if err != nil {
		return nil, err
	}
	if ic, ok := conv.value.(*values.IntConstant); ok && isPure(conv.node) {
		val, wrapped := promoted.Normalize(-ic.Value)
		if wrapped {
			s.u.Warn(n.Pos(), "integer overflow negating constant")
		}
		return s.translate(n, n, &values.IntConstant{Value: val, Ty: promoted}), nil
	}
	if promoted.Bytes == 8 {
		notX := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "~", X: conv.node}
		one := &ast.IntLit{Base: ast.Base{P: n.Pos()}, Value: 1}
		s.u.Store.SetValue(one, &values.IntConstant{Value: 1, Ty: promoted})
		repl := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: "+", X: notX, Y: one}
		rv, err := s.visitExpr(repl)
		if err != nil {
			return nil, err
		}
		return s.translate(n, repl, rv), nil
	}
	if conv.node == n.X {
		return s.translate(n, n, &values.TemporaryValue{Ty: promoted}), nil
	}
	repl := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "-", X: conv.node}
	return s.translate(n, repl, &values.TemporaryValue{Ty: promoted}), nil
}

// --- Increment/decrement ---

// isStableAddress reports whether re-evaluating n's address computation a
// second time is safe: no nested side effects (assignment, call,
// increment/decrement).
func isStableAddress(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.Ident:
		return true
	case *ast.Member:
		return isStableAddress(x.X)
	case *ast.Index:
		return isStableAddress(x.X) && isPure(x.I)
	case *ast.UnaryOp:
		if x.Op == "*" {
			return isPure(x.X)
		}
		return false
	default:
		return false
	}
}

func isPure(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.Ident, *ast.IntLit, *ast.CharLit, *ast.StrLit:
		return true
	case *ast.BinaryOp:
		return isPure(x.X) && isPure(x.Y)
	case *ast.UnaryOp:
		return x.Op != "++" && x.Op != "--" && isPure(x.X)
	case *ast.Member:
		return isPure(x.X)
	case *ast.Index:
		return isPure(x.X) && isPure(x.I)
	default:
		return false
	}
}

// visitPrePost builds and visits the `target op= 1` assignment shared by
// both prefix and postfix forms of ++/--, returning its value (the
// post-increment value) and the Assign node itself so the caller can
// either use it directly (prefix) or fold it into a further expression
// that also recovers the pre-increment value (postfix).
func (s *Sema) visitPrePost(pos ast.Node, target ast.Node, op string) (values.Value, ast.Node, error) {
	v, err := s.visitExpr(target)
	if err != nil {
		return nil, nil, err
	}
	if !v.IsLValue() {
		return nil, nil, ccerror.New(ccerror.InvalidOperand, pos.Pos(), "operand of %s must be an lvalue", op)
	}
	arithOp := "+"
	if op == "--" {
		arithOp = "-"
	}
	one := &ast.IntLit{Base: ast.Base{P: pos.Pos()}, Value: 1}
	assign := &ast.Assign{Base: ast.Base{P: pos.Pos()}, Op: arithOp + "=", Lhs: target, Rhs: one}
	av, err := s.visitAssign(assign)
	if err != nil {
		return nil, nil, err
	}
	return av, assign, nil
}

// visitPostOp implements spec.md §4.4.4's `x++`/`x--` translation: with a
// stable or temp-pointer address `p` for x, `(*p += 1, *p - 1)` — the
// compound assignment runs for its side effect and supplies the post
// value, then the surrounding subtraction (or addition, for `--`) recovers
// the value x had before the operation. This keeps the store to exactly
// one evaluation of x's address while still yielding the pre-image.
func (s *Sema) visitPostOp(n *ast.PostOp) (values.Value, error) {
	_, assign, err := s.visitPrePost(n, n.X, n.Op)
	if err != nil {
		return nil, err
	}
	undo := "-"
	if n.Op == "--" {
		undo = "+"
	}
	one := &ast.IntLit{Base: ast.Base{P: n.Pos()}, Value: 1}
	repl := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: undo, X: assign, Y: one}
	rv, err := s.visitExpr(repl)
	if err != nil {
		return nil, err
	}
	return s.translate(n, repl, rv), nil
}

// --- Assignment ---

func (s *Sema) visitAssign(n *ast.Assign) (values.Value, error) {
	if n.Op == "" {
		return s.visitSimpleAssign(n)
	}
	return s.visitCompoundAssign(n)
}

func (s *Sema) visitSimpleAssign(n *ast.Assign) (values.Value, error) {
	lv, err := s.visitExpr(n.Lhs)
	if err != nil {
		return nil, err
	}
	if !lv.IsLValue() {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "left side of assignment must be an lvalue")
	}
	if st, ok := lv.Type().(*types.Struct); ok {
		return s.visitStructAssign(n, st)
	}
	conv, err := s.convert(lv.Type(), n.Rhs)
	if err != nil {
		return nil, err
	}
	if conv.node != n.Rhs {
		n2 := &ast.Assign{Base: ast.Base{P: n.Pos()}, Op: "", Lhs: n.Lhs, Rhs: conv.node}
		return s.translate(n, n2, conv.value), nil
	}
	return s.translate(n, n, conv.value), nil
}

// visitStructAssign implements spec.md §4.3's "struct assignment from a
// compatible L-value is realised as a memcpy builtin call": the assignment
// itself carries no register-level value, so n's own cached value stays
// the (struct-typed) destination l-value for any caller that inspects it,
// while Codegen only ever sees the memcpy call through n's Translated hop.
func (s *Sema) visitStructAssign(n *ast.Assign, st *types.Struct) (values.Value, error) {
	rv, err := s.visitExpr(n.Rhs)
	if err != nil {
		return nil, err
	}
	if !rv.IsLValue() || !types.IsCompatible(rv.Type(), st) {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "struct assignment requires a compatible lvalue")
	}
	call := s.buildMemcpy(n.Lhs, n.Rhs, st.Size(), n.Pos())
	if _, err := s.visitExpr(call); err != nil {
		return nil, err
	}
	lv := s.u.Store.ValueOf(n.Lhs)
	rec := s.u.Store.Get(n)
	rec.Value = lv
	rec.Translated = call
	return lv, nil
}

// visitCompoundAssign implements spec.md §4.4.4's `a op= b` rewrite: when
// a's address is stable to re-evaluate, it becomes `a = a op b`; otherwise
// it becomes the temp-pointer form `*(tmp=&a) = *tmp op b` so a's address
// is computed exactly once.
func (s *Sema) visitCompoundAssign(n *ast.Assign) (values.Value, error) {
	arithOp := n.Op[:len(n.Op)-1]
	pos := n.Pos()
	if isStableAddress(n.Lhs) {
		binop := &ast.BinaryOp{Base: ast.Base{P: pos}, Op: arithOp, X: n.Lhs, Y: n.Rhs}
		assign := &ast.Assign{Base: ast.Base{P: pos}, Op: "", Lhs: n.Lhs, Rhs: binop}
		v, err := s.visitSimpleAssign(assign)
		if err != nil {
			return nil, err
		}
		return s.translate(n, assign, v), nil
	}

	lv, err := s.visitExpr(n.Lhs)
	if err != nil {
		return nil, err
	}
	if !lv.IsLValue() {
		return nil, ccerror.New(ccerror.InvalidOperand, pos, "left side of assignment must be an lvalue")
	}

	// n.Lhs's own address computation may itself have a side effect (e.g.
	// `*f() += 1`), so it must run exactly once: stash it in a genuine
	// pointer-typed compiler temp rather than re-emitting the &-expression
	// everywhere *tmp is read.
	ptrT := &types.Pointer{Base: lv.Type()}
	off := s.scope.AllocLocal(ptrT.Size())
	tmp := &values.LocalVariable{VarName: "<tmp>", Ty: ptrT, FrameOffset: off}

	addr := &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "&", X: n.Lhs}
	if _, err := s.visitExpr(addr); err != nil {
		return nil, err
	}
	tmpIdent := &ast.Ident{Base: ast.Base{P: pos}, Name: "<tmp>"}
	s.u.Store.SetValue(tmpIdent, tmp)
	storeTmp := &ast.Assign{Base: ast.Base{P: pos}, Op: "", Lhs: tmpIdent, Rhs: addr}
	s.u.Store.SetValue(storeTmp, tmp)

	deref := &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "*", X: tmpIdent}
	s.u.Store.SetValue(deref, &values.MemoryAccess{Addr: tmp})
	binop := &ast.BinaryOp{Base: ast.Base{P: pos}, Op: arithOp, X: deref, Y: n.Rhs}
	assign := &ast.Assign{Base: ast.Base{P: pos}, Op: "", Lhs: deref, Rhs: binop}
	v, err := s.visitSimpleAssign(assign)
	if err != nil {
		return nil, err
	}
	repl := &ast.ExprPair{Base: ast.Base{P: pos}, First: storeTmp, Second: assign}
	return s.translate(n, repl, v), nil
}

// --- Cast ---

// visitCast only ever runs for an explicit source-level cast: a synthetic
// conversion-marker Cast (convert.go's implicit-conversion wrapper) has
// its Value pre-populated in the store, so visitExpr's cache check short
// circuits before this is reached.
func (s *Sema) visitCast(n *ast.Cast) (values.Value, error) {
	t, err := s.resolveType(n.TypeExpr)
	if err != nil {
		return nil, err
	}
	conv, ok, err := s.tryConvert(t, n.X)
	if err != nil {
		return nil, err
	}
	if !ok {
		v2, err := s.visitExpr(n.X)
		if err != nil {
			return nil, err
		}
		conv, ok, err = s.explicitCastOnly(t, v2.Type(), v2, n.X)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ccerror.New(ccerror.ConversionError, n.Pos(), "cannot cast %s to %s", s.u.Store.ValueOf(n.X).Type(), t)
	}
	if conv.node != n.X {
		s.u.Store.Get(n).Translated = conv.node
	}
	return conv.value, nil
}

// --- Call ---

func (s *Sema) visitCall(n *ast.Call) (values.Value, error) {
	fv, err := s.visitExpr(n.Fn)
	if err != nil {
		return nil, err
	}
	var ft *types.Function
	switch v := fv.(type) {
	case *values.Function:
		ft = v.Ty
	default:
		p, ok := fv.Type().(*types.Pointer)
		if !ok {
			return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "called object is not a function")
		}
		f, ok := p.Base.(*types.Function)
		if !ok {
			return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "called object is not a function")
		}
		ft = f
	}
	if len(n.Args) < len(ft.Args) || (!ft.Ellipsis && len(n.Args) != len(ft.Args)) {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "wrong number of arguments in call")
	}
	for i, arg := range n.Args {
		if i < len(ft.Args) {
			if _, err := s.convert(ft.Args[i], arg); err != nil {
				return nil, err
			}
		} else {
			if _, err := s.visitExpr(arg); err != nil {
				return nil, err
			}
		}
	}
	return s.translate(n, n, &values.TemporaryValue{Ty: ft.Ret}), nil
}

// --- Index ---

// visitIndex implements spec.md §4.4.4's `a[i] -> *(a+i)` translation.
func (s *Sema) visitIndex(n *ast.Index) (values.Value, error) {
	add := &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: "+", X: n.X, Y: n.I}
	deref := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "*", X: add}
	v, err := s.visitExpr(deref)
	if err != nil {
		return nil, err
	}
	return s.translate(n, deref, v), nil
}

// --- Member ---

// visitMember implements spec.md §4.4.4's struct-member translation:
// `s.x` and `p->x` both become `*(TX*)((void*)&s + off)` (or
// `*(TX*)((void*)p + off)` for `->`), so off is added in bytes, reducing
// both forms to one address computation plus a typed dereference.
func (s *Sema) visitMember(n *ast.Member) (values.Value, error) {
	var base ast.Node
	if n.Arrow {
		base = n.X
	} else {
		base = &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "&", X: n.X}
	}
	bv, err := s.visitExpr(base)
	if err != nil {
		return nil, err
	}
	p, ok := bv.Type().(*types.Pointer)
	if !ok {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "member access requires a struct or pointer to struct")
	}
	st, ok := p.Base.(*types.Struct)
	if !ok {
		return nil, ccerror.New(ccerror.InvalidOperand, n.Pos(), "member access requires a struct or pointer to struct")
	}
	f, ok := st.Field(n.Field)
	if !ok {
		return nil, ccerror.New(ccerror.Undefined, n.Pos(), "struct %s has no member %q", st, n.Field)
	}
	fieldPtr := &types.Pointer{Base: f.Type}
	bytePtr := &ast.Cast{Base: ast.Base{P: n.Pos()}, X: base}
	s.u.Store.SetValue(bytePtr, &values.TemporaryValue{Ty: &types.Pointer{Base: types.VoidType}})
	off := &ast.IntLit{Base: ast.Base{P: n.Pos()}, Value: int64(f.Offset)}
	s.u.Store.SetValue(off, &values.IntConstant{Value: int64(f.Offset), Ty: types.SignedInt})
	var addrNode ast.Node = &ast.BinaryOp{Base: ast.Base{P: n.Pos()}, Op: "+", X: bytePtr, Y: off}
	deref := &ast.UnaryOp{Base: ast.Base{P: n.Pos()}, Op: "*", X: addrNode}
	addrVal := &values.TemporaryValue{Ty: fieldPtr}
	s.u.Store.SetValue(addrNode, addrVal)
	mv := &values.MemoryAccess{Addr: addrVal}
	return s.translate(n, deref, mv), nil
}

// --- Ternary ---

func (s *Sema) visitTernary(n *ast.Ternary) (values.Value, error) {
	cv, cn, err := s.tryConvertToPointer(n.Cond, true, nil)
	if err != nil {
		return nil, err
	}
	tv, err := s.visitExpr(n.Then)
	if err != nil {
		return nil, err
	}
	ev, err := s.visitExpr(n.Else)
	if err != nil {
		return nil, err
	}
	var resultTy types.Type
	if _, tp := tv.Type().(*types.Pointer); tp {
		resultTy = tv.Type()
	} else if _, ep := ev.Type().(*types.Pointer); ep {
		resultTy = ev.Type()
	} else {
		resultTy = types.ArithmeticCommon(tv.Type(), ev.Type())
	}
	if _, err := s.convert(resultTy, n.Then); err != nil {
		return nil, err
	}
	if _, err := s.convert(resultTy, n.Else); err != nil {
		return nil, err
	}
	if ct, ok := truthOf(cv); ok && isPure(cn) {
		if ct {
			return s.translate(n, n.Then, s.u.Store.ValueOf(n.Then)), nil
		}
		return s.translate(n, n.Else, s.u.Store.ValueOf(n.Else)), nil
	}
	if cn != n.Cond {
		repl := &ast.Ternary{Base: ast.Base{P: n.Pos()}, Cond: cn, Then: n.Then, Else: n.Else}
		s.mintTernaryLabels(repl)
		return s.translate(n, repl, &values.TemporaryValue{Ty: resultTy}), nil
	}
	s.mintTernaryLabels(n)
	return s.translate(n, n, &values.TemporaryValue{Ty: resultTy}), nil
}

// mintTernaryLabels allocates a Ternary's own TernaryFalse/TernaryEnd
// labels (spec.md §4.4.5), only needed once the condition is known not to
// fold away entirely.
func (s *Sema) mintTernaryLabels(n ast.Node) {
	w := s.u.Writer
	s.u.Store.Get(n).Labels = []string{w.MintLabel("L.ternary"), w.MintLabel("L.ternary")}
}

// --- sizeof ---

func (s *Sema) visitSizeofExpr(n *ast.SizeofExpr) (values.Value, error) {
	v, err := s.visitExpr(n.X)
	if err != nil {
		return nil, err
	}
	if !v.Type().IsComplete() {
		return nil, ccerror.New(ccerror.IncompleteType, n.Pos(), "sizeof of incomplete type %s", v.Type())
	}
	return s.translate(n, n, &values.IntConstant{Value: int64(v.Type().Size()), Ty: types.ULong}), nil
}

func (s *Sema) visitSizeofType(n *ast.SizeofType) (values.Value, error) {
	t, err := s.resolveType(n.TypeExpr)
	if err != nil {
		return nil, err
	}
	if !t.IsComplete() {
		return nil, ccerror.New(ccerror.IncompleteType, n.Pos(), "sizeof of incomplete type %s", t)
	}
	return s.translate(n, n, &values.IntConstant{Value: int64(t.Size()), Ty: types.ULong}), nil
}
