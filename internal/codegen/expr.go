package codegen

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// emitExpr reproduces n's value in a0(/a1), returning the Value it read so
// callers that need its type don't have to re-resolve it. Most node kinds
// dispatch purely on their annotated Value (spec.md §9): a node whose Value
// is a compile-time constant or a named variable's storage is reproduced
// directly with no further AST walk. Assign and Call are the exceptions —
// both carry a mandatory side effect that must run every time, regardless
// of whether their own annotated Value happens to look like a constant.
func (g *Codegen) emitExpr(n ast.Node) (values.Value, error) {
	e := g.effective(n)

	switch x := e.(type) {
	case *ast.Assign:
		v := g.u.Store.ValueOf(e)
		if err := g.emitAssignExpr(x); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.Call:
		v := g.u.Store.ValueOf(e)
		if err := g.emitCallExpr(x); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.ExprPair:
		if _, err := g.emitExpr(x.First); err != nil {
			return nil, err
		}
		return g.emitExpr(x.Second)
	}

	v := g.u.Store.ValueOf(e)
	if v == nil {
		return nil, fmt.Errorf("codegen: %T at %s has no annotated value", e, e.Pos())
	}

	switch vv := v.(type) {
	case *values.IntConstant, *values.PtrConstant, *values.SymConstant, *values.StackFrameOffset,
		*values.GlobalVariable, *values.StaticVariable, *values.ExternVariable,
		*values.LocalVariable, *values.Argument, *values.StrLiteral:
		g.load(v, "a0", "a1")
		return v, nil
	case *values.Function:
		g.w.Emitf("li a0, $%s", vv.FuncName)
		return v, nil
	case *values.MemoryAccess:
		if err := g.emitMemoryAccess(e, vv); err != nil {
			return nil, err
		}
		return v, nil
	case *values.TemporaryValue:
		if err := g.emitComputeByNode(e); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("codegen: cannot emit value of type %T", v)
	}
}

// emitComputeByNode dispatches a TemporaryValue-carrying node to the
// emitter that actually produces it, by the effective node's concrete kind.
func (g *Codegen) emitComputeByNode(e ast.Node) error {
	switch x := e.(type) {
	case *ast.BinaryOp:
		return g.emitBinary(x)
	case *ast.UnaryOp:
		return g.emitUnary(x)
	case *ast.PostOp:
		return g.emitPostOp(x)
	case *ast.Ternary:
		return g.emitTernaryExpr(x)
	case *ast.Cast:
		return g.emitCastExpr(x)
	default:
		return fmt.Errorf("codegen: cannot compute %T at %s", e, e.Pos())
	}
}

// emitMemoryAccess reads through a dereference. A statically-addressed
// access (the common case: *p where p resolved to a stack slot, a symbol,
// or a constant pointer) is read with no code execution beyond the load
// itself; a dynamically-addressed one (the pointer itself is a computed
// value) requires running the pointer subexpression first, per spec.md
// §4.5.2 and §4.5.5.
func (g *Codegen) emitMemoryAccess(e ast.Node, m *values.MemoryAccess) error {
	switch m.Addr.(type) {
	case *values.StackFrameOffset, *values.SymConstant, *values.PtrConstant:
		g.loadMemStatic(m, "a0", "a1")
		return nil
	default:
		u, ok := e.(*ast.UnaryOp)
		if !ok || u.Op != "*" {
			return fmt.Errorf("codegen: dynamic memory access without a dereference node: %T", e)
		}
		if _, err := g.emitExpr(u.X); err != nil {
			return err
		}
		g.loadMemDynamic(m, "a0", "a1")
		return nil
	}
}

// emitUnary handles the unary operators that are their own AST node kind:
// address-of, dereference (only reached here when emitExpr's own
// MemoryAccess case didn't already consume it, i.e. never in practice, but
// kept for completeness when a dereference node is walked generically, as
// it is from within emitMemoryAccess's own u.X), logical/bitwise not, and
// unary minus.
func (g *Codegen) emitUnary(n *ast.UnaryOp) error {
	switch n.Op {
	case "&":
		return g.emitAddressOf(n)
	case "*":
		v := g.valueOf(n)
		m, ok := v.(*values.MemoryAccess)
		if !ok {
			return fmt.Errorf("codegen: dereference without a MemoryAccess value: %T", v)
		}
		return g.emitMemoryAccess(n, m)
	case "!":
		return g.emitNot(n)
	case "~":
		return g.emitBitNot(n)
	case "-":
		return g.emitNeg(n)
	case "+":
		_, err := g.emitExpr(n.X)
		return err
	default:
		return fmt.Errorf("codegen: unsupported unary operator %q", n.Op)
	}
}

// emitAddressOf implements &e. When e is itself a dereference of a
// dynamically-addressed pointer (Addr is a TemporaryValue: the pointer had
// to be computed), &*p must re-run p's own computation; every other lvalue
// kind reduces to a statically-reproducible address with no code emitted,
// which also gives the &*p == p identity for free when p was already
// static.
func (g *Codegen) emitAddressOf(n *ast.UnaryOp) error {
	xv := g.valueOf(n.X)
	m, isDeref := xv.(*values.MemoryAccess)
	if isDeref {
		if _, dynamic := m.Addr.(*values.TemporaryValue); dynamic {
			_, err := g.emitExpr(innerDerefOperand(n.X, g))
			return err
		}
	}
	addr := g.addressOf(xv)
	g.load(addr, "a0", "a1")
	return nil
}

func innerDerefOperand(n ast.Node, g *Codegen) ast.Node {
	if u, ok := g.effective(n).(*ast.UnaryOp); ok && u.Op == "*" {
		return u.X
	}
	panic(fmt.Sprintf("codegen: address-of a dynamic MemoryAccess without a dereference node: %T", n))
}

func (g *Codegen) emitNot(n *ast.UnaryOp) error {
	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	g.orHalves(xv.Type())
	g.w.Emit("seqz a0, a0")
	return nil
}

func (g *Codegen) emitBitNot(n *ast.UnaryOp) error {
	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	g.w.Emit("not a0, a0")
	if xv.Type().Size() == 8 {
		g.w.Emit("not a1, a1")
	}
	return nil
}

func (g *Codegen) emitNeg(n *ast.UnaryOp) error {
	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	if xv.Type().Size() == 8 {
		g.w.Emit("sub a0, zero, a0")
		g.w.Emit("sltu t0, zero, a0")
		g.w.Emit("sub a1, zero, a1")
		g.w.Emit("sub a1, a1, t0")
		return nil
	}
	g.w.Emit("sub a0, zero, a0")
	return nil
}

// emitPostOp reports an error: Sema's visitPostOp always rewrites x++/x--
// into (x op= 1) followed by the inverse op with 1, so a PostOp that reaches
// Codegen is unlowered input and no code is emitted for it.
func (g *Codegen) emitPostOp(n *ast.PostOp) error {
	return fmt.Errorf("codegen: unlowered postfix operator %q at %s", n.Op, n.Pos())
}

// emitBinary implements spec.md §4.5.6's template: evaluate and push the
// right operand, then evaluate the left operand into a0(/a1) fresh (so any
// pushes nested inside it can't collide with the saved right operand), then
// pop the right operand into a2(/a3) and combine.
func (g *Codegen) emitBinary(n *ast.BinaryOp) error {
	if n.Op == "&&" || n.Op == "||" {
		return g.emitShortCircuit(n)
	}
	yv, err := g.emitExpr(n.Y)
	if err != nil {
		return err
	}
	g.pushRegs(yv.Type())
	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	g.pop(yv.Type(), "a2", "a3")
	return g.emitBinaryOp(n.Op, xv, yv)
}

func (g *Codegen) emitShortCircuit(n *ast.BinaryOp) error {
	shortLabel := g.w.MintLabel("L.logical")
	endLabel := g.w.MintLabel("L.logical")

	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	g.orHalves(xv.Type())
	if n.Op == "&&" {
		g.w.Emitf("beqz a0, $%s", shortLabel)
	} else {
		g.w.Emitf("bnez a0, $%s", shortLabel)
	}

	yv, err := g.emitExpr(n.Y)
	if err != nil {
		return err
	}
	g.orHalves(yv.Type())
	g.w.Emit("snez a0, a0")
	g.w.Emitf("j $%s", endLabel)

	g.w.EmitLabel(shortLabel)
	if n.Op == "&&" {
		g.w.Emit("li a0, 0")
	} else {
		g.w.Emit("li a0, 1")
	}
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Codegen) orHalves(t types.Type) {
	if t.Size() == 8 {
		g.w.Emit("or a0, a0, a1")
	}
}

// emitBinaryOp combines the left operand (a0/a1) with the right operand
// (a2/a3), per spec.md §4.5.6. Pointer arithmetic is handled first since it
// bypasses the usual arithmetic-common-type promotion entirely; everything
// else dispatches on the (now-common) operand type's width and signedness.
func (g *Codegen) emitBinaryOp(op string, xv, yv values.Value) error {
	xp, xIsPtr := xv.Type().(*types.Pointer)
	yp, yIsPtr := yv.Type().(*types.Pointer)

	switch {
	case xIsPtr && yIsPtr && op == "-":
		g.w.Emit("sub a0, a0, a2")
		if sh := log2Size(xp.Base.Size()); sh > 0 {
			g.w.Emitf("srai a0, a0, %d", sh)
		}
		return nil
	case xIsPtr && (op == "+" || op == "-"):
		g.scaleInto("a2", xp.Base.Size())
		g.w.Emitf("%s a0, a0, a2", arithMnemonic(op))
		return nil
	case yIsPtr && op == "+":
		g.scaleInto("a0", yp.Base.Size())
		g.w.Emit("add a0, a0, a2")
		return nil
	}

	size8 := xv.Type().Size() == 8
	unsigned := isUnsigned(xv.Type())

	switch op {
	case "+":
		if size8 {
			g.w.Emit("add a0, a0, a2")
			g.w.Emit("sltu t0, a0, a2")
			g.w.Emit("add a1, a1, a3")
			g.w.Emit("add a1, a1, t0")
			return nil
		}
		g.w.Emit("add a0, a0, a2")
		return nil
	case "-":
		if size8 {
			g.w.Emit("sltu t0, a0, a2")
			g.w.Emit("sub a0, a0, a2")
			g.w.Emit("sub a1, a1, a3")
			g.w.Emit("sub a1, a1, t0")
			return nil
		}
		g.w.Emit("sub a0, a0, a2")
		return nil
	case "*":
		if size8 {
			g.w.Emit("mulhu t0, a0, a2")
			g.w.Emit("mul t1, a0, a3")
			g.w.Emit("mul t2, a1, a2")
			g.w.Emit("mul a0, a0, a2")
			g.w.Emit("add t0, t0, t1")
			g.w.Emit("add a1, t0, t2")
			return nil
		}
		g.w.Emit("mul a0, a0, a2")
		return nil
	case "/":
		if unsigned {
			g.w.Emit("divu a0, a0, a2")
		} else {
			g.w.Emit("div a0, a0, a2")
		}
		return nil
	case "%":
		if unsigned {
			g.w.Emit("remu a0, a0, a2")
		} else {
			g.w.Emit("rem a0, a0, a2")
		}
		return nil
	case "&":
		g.w.Emit("and a0, a0, a2")
		if size8 {
			g.w.Emit("and a1, a1, a3")
		}
		return nil
	case "|":
		g.w.Emit("or a0, a0, a2")
		if size8 {
			g.w.Emit("or a1, a1, a3")
		}
		return nil
	case "^":
		g.w.Emit("xor a0, a0, a2")
		if size8 {
			g.w.Emit("xor a1, a1, a3")
		}
		return nil
	case "<<":
		g.w.Emit("sll a0, a0, a2")
		return nil
	case ">>":
		if unsigned {
			g.w.Emit("srl a0, a0, a2")
		} else {
			g.w.Emit("sra a0, a0, a2")
		}
		return nil
	case "==", "!=":
		g.w.Emit("xor a0, a0, a2")
		if size8 {
			g.w.Emit("xor a1, a1, a3")
			g.w.Emit("or a0, a0, a1")
		}
		if op == "==" {
			g.w.Emit("seqz a0, a0")
		} else {
			g.w.Emit("snez a0, a0")
		}
		return nil
	case "<", ">=":
		if size8 {
			tie := g.w.MintLabel("L.cmp")
			end := g.w.MintLabel("L.cmp")
			g.w.Emitf("beq a1, a3, $%s", tie)
			if unsigned {
				g.w.Emit("sltu a0, a1, a3")
			} else {
				g.w.Emit("slt a0, a1, a3")
			}
			g.w.Emitf("j $%s", end)
			g.w.EmitLabel(tie)
			g.w.Emit("sltu a0, a0, a2")
			g.w.EmitLabel(end)
		} else if unsigned {
			g.w.Emit("sltu a0, a0, a2")
		} else {
			g.w.Emit("slt a0, a0, a2")
		}
		if op == ">=" {
			g.w.Emit("xori a0, a0, 1")
		}
		return nil
	default:
		return fmt.Errorf("codegen: unsupported binary operator %q", op)
	}
}

// scaleInto multiplies reg by elemSize in place: a shift for 2/4/8-byte
// elements, nothing for 1-byte elements, and an explicit mul (through t0)
// for any other size, such as a struct element.
func (g *Codegen) scaleInto(reg string, elemSize int) {
	if elemSize <= 1 {
		return
	}
	if sh := log2Size(elemSize); sh > 0 {
		g.w.Emitf("slli %s, %s, %d", reg, reg, sh)
		return
	}
	g.w.Emitf("li t0, %d", elemSize)
	g.w.Emitf("mul %s, %s, t0", reg, reg)
}

func log2Size(n int) int {
	switch n {
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

func arithMnemonic(op string) string {
	if op == "-" {
		return "sub"
	}
	return "add"
}

func isUnsigned(t types.Type) bool {
	if it, ok := t.(*types.Int); ok {
		return it.Unsigned
	}
	return true
}

// emitAssignExpr stores the right-hand side into the left-hand side's
// storage, per spec.md §4.5.3. A statically-addressed target (a named
// variable, or *p where p is itself static) stores straight from a0/a1; a
// dynamically-addressed target (*p where p is a computed pointer) must
// compute p first, save it, evaluate the right-hand side, then relocate it
// to a2/a3 so a0/a1 are free to hold the address again.
func (g *Codegen) emitAssignExpr(n *ast.Assign) error {
	lv := g.valueOf(n.Lhs)
	t := lv.Type()

	switch vv := lv.(type) {
	case *values.GlobalVariable, *values.StaticVariable, *values.ExternVariable,
		*values.LocalVariable, *values.Argument:
		if _, err := g.emitExpr(n.Rhs); err != nil {
			return err
		}
		g.storeStatic(g.addressOf(lv), t, "a0", "a1")
		return nil
	case *values.MemoryAccess:
		switch vv.Addr.(type) {
		case *values.StackFrameOffset, *values.SymConstant, *values.PtrConstant:
			if _, err := g.emitExpr(n.Rhs); err != nil {
				return err
			}
			g.storeStatic(vv.Addr, t, "a0", "a1")
			return nil
		default:
			le := g.effective(n.Lhs)
			u, ok := le.(*ast.UnaryOp)
			if !ok || u.Op != "*" {
				return fmt.Errorf("codegen: assignment target is not addressable: %T", le)
			}
			if _, err := g.emitExpr(u.X); err != nil {
				return err
			}
			g.w.Emit("push a0")
			if _, err := g.emitExpr(n.Rhs); err != nil {
				return err
			}
			if t.Size() == 8 {
				g.w.Emit("mv a3, a1")
			}
			g.w.Emit("mv a2, a0")
			g.w.Emit("pop a0")
			g.storeDynamic(t, "a2", "a3")
			g.w.Emit("mv a0, a2")
			if t.Size() == 8 {
				g.w.Emit("mv a1, a3")
			}
			return nil
		}
	default:
		return fmt.Errorf("codegen: %T is not an assignable lvalue", vv)
	}
}

// emitCallExpr implements the call convention of spec.md §4.5.1/§6: push
// arguments right-to-left, each padded up to a 4-byte multiple, dispatch by
// the callee's Value kind, then pop the pushed bytes off in one addi.
//
// stack pairs each pushed argument's running stack offset with its type,
// the same lo.Tuple2[int, Parameter] shape the teacher's RISC-V generator
// uses to track a pushed parameter's offset alongside its own type
// (riscv64_parser.go); the cleanup addi's total byte count is then summed
// back out of it rather than tracked in a second running variable.
func (g *Codegen) emitCallExpr(n *ast.Call) error {
	var stack []lo.Tuple2[int, types.Type]
	offset := 0
	for i := len(n.Args) - 1; i >= 0; i-- {
		av, err := g.emitExpr(n.Args[i])
		if err != nil {
			return err
		}
		g.pushRegs(av.Type())
		stack = append(stack, lo.Tuple2[int, types.Type]{A: offset, B: av.Type()})
		offset += argBytes(av.Type())
	}
	total := lo.SumBy(stack, func(p lo.Tuple2[int, types.Type]) int { return argBytes(p.B) })

	switch f := g.valueOf(n.Fn).(type) {
	case *values.Function:
		g.w.Emitf("call $%s", g.calleeLabel(f.FuncName))
	case *values.SymConstant:
		g.w.Emitf("call $%s", f.Name)
	default:
		if _, err := g.emitExpr(n.Fn); err != nil {
			return err
		}
		g.w.Emit("jalr a0")
	}

	if total > 0 {
		g.w.Emitf("addi sp, sp, %d", total)
	}
	return nil
}

func argBytes(t types.Type) int {
	sz := t.Size()
	if sz < 4 {
		sz = 4
	}
	if sz%4 != 0 {
		sz += 4 - sz%4
	}
	return sz
}

// emitTernaryExpr uses the false/end label pair Sema minted onto the
// Ternary node itself when it couldn't fold the condition at compile time.
func (g *Codegen) emitTernaryExpr(n *ast.Ternary) error {
	rec := g.u.Store.Get(n)
	falseLabel, endLabel := rec.Labels[0], rec.Labels[1]

	cv, err := g.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	g.orHalves(cv.Type())
	g.w.Emitf("beqz a0, $%s", falseLabel)
	if _, err := g.emitExpr(n.Then); err != nil {
		return err
	}
	g.w.Emitf("j $%s", endLabel)
	g.w.EmitLabel(falseLabel)
	if _, err := g.emitExpr(n.Else); err != nil {
		return err
	}
	g.w.EmitLabel(endLabel)
	return nil
}

// emitCastExpr runs the source operand, then reshapes its bit pattern to
// the cast's own target type.
func (g *Codegen) emitCastExpr(n *ast.Cast) error {
	t1 := g.u.Store.ValueOf(n).Type()
	xv, err := g.emitExpr(n.X)
	if err != nil {
		return err
	}
	g.emitConversion(t1, xv.Type())
	return nil
}

// emitConversion reshapes a0(/a1) from t2's representation to t1's, per
// spec.md line 84: only genuine width changes need real instructions.
// Sub-4-byte sources are always kept fully sign/zero-extended to 32 bits by
// construction (every load, and every cast to a sub-4-byte destination,
// re-extends), so a same-width or widening-to-4-bytes-or-more conversion
// between two already-conforming representations is a pure no-op.
func (g *Codegen) emitConversion(t1, t2 types.Type) {
	s1, s2 := t1.Size(), t2.Size()

	switch {
	case s1 == 8 && s2 < 8:
		if isUnsigned(t1) {
			g.w.Emit("li a1, 0")
		} else {
			g.w.Emit("srai a1, a0, 31")
		}
	case s1 < 8 && s2 == 8 && s1 >= 4:
		// truncate: a0 already holds the low word.
	case s1 < 4:
		bits := s1 * 8
		shift := 32 - bits
		g.w.Emitf("slli a0, a0, %d", shift)
		if isUnsigned(t1) {
			g.w.Emitf("srli a0, a0, %d", shift)
		} else {
			g.w.Emitf("srai a0, a0, %d", shift)
		}
	}
}
