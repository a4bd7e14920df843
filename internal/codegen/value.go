package codegen

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// addressOf implements spec.md §4.5.5: every l-value kind reduces to one
// of three concrete, immediately-loadable address forms, or (for a
// dereference) to the pointer value that was already computed.
func (g *Codegen) addressOf(v values.Value) values.Value {
	switch vv := v.(type) {
	case *values.GlobalVariable:
		return &values.SymConstant{Name: vv.Label, Ty: &types.Pointer{Base: vv.Ty}}
	case *values.StaticVariable:
		return &values.SymConstant{Name: vv.Label, Ty: &types.Pointer{Base: vv.Ty}}
	case *values.ExternVariable:
		return &values.SymConstant{Name: vv.VarName, Ty: &types.Pointer{Base: vv.Ty}}
	case *values.LocalVariable:
		return &values.StackFrameOffset{Offset: vv.FrameOffset, Ty: &types.Pointer{Base: vv.Ty}}
	case *values.Argument:
		return &values.StackFrameOffset{Offset: vv.FrameOffset, Ty: &types.Pointer{Base: vv.Ty}}
	case *values.StrLiteral:
		if vv.RodataLabel == "" {
			vv.RodataLabel = g.u.Writer.InternString(vv.Bytes)
		}
		return &values.SymConstant{Name: vv.RodataLabel, Ty: &types.Pointer{Base: vv.ArrayType.Base}}
	case *values.MemoryAccess:
		return vv.Addr
	default:
		panic(fmt.Sprintf("codegen: %T is not addressable", v))
	}
}

// load implements spec.md §4.5.2. v must be a value whose bits can be
// reproduced without walking any further AST (a constant, a named
// variable's storage, or a statically-addressed MemoryAccess); the caller
// (emitExpr) is responsible for routing anything that requires actually
// running code (a TemporaryValue's defining expression, or a
// dynamically-addressed MemoryAccess) through the right emit* first.
func (g *Codegen) load(v values.Value, r1, r2 string) {
	switch vv := v.(type) {
	case *values.IntConstant:
		lo, hi := splitWord(vv.Value)
		g.w.Emitf("li %s, %d", r1, lo)
		if vv.Ty.Size() == 8 {
			g.w.Emitf("li %s, %d", r2, hi)
		}
	case *values.PtrConstant:
		g.w.Emitf("li %s, %d", r1, int32(vv.Value))
	case *values.SymConstant:
		g.loadSym(vv, r1)
	case *values.StackFrameOffset:
		g.w.Emitf("addi %s, fp, %d", r1, vv.Offset)
	case *values.TemporaryValue:
		if r1 != "a0" {
			g.w.Emitf("mv %s, a0", r1)
		}
		if vv.Ty.Size() == 8 && r2 != "a1" {
			g.w.Emitf("mv %s, a1", r2)
		}
	case *values.GlobalVariable:
		g.load(&values.MemoryAccess{Addr: g.addressOf(vv)}, r1, r2)
	case *values.StaticVariable:
		g.load(&values.MemoryAccess{Addr: g.addressOf(vv)}, r1, r2)
	case *values.ExternVariable:
		g.load(&values.MemoryAccess{Addr: g.addressOf(vv)}, r1, r2)
	case *values.LocalVariable:
		g.load(&values.MemoryAccess{Addr: g.addressOf(vv)}, r1, r2)
	case *values.Argument:
		g.load(&values.MemoryAccess{Addr: g.addressOf(vv)}, r1, r2)
	case *values.StrLiteral:
		g.load(g.addressOf(vv), r1, r2)
	case *values.MemoryAccess:
		g.loadMemStatic(vv, r1, r2)
	default:
		panic(fmt.Sprintf("codegen: cannot load %T", v))
	}
}

func (g *Codegen) loadSym(sc *values.SymConstant, r1 string) {
	if sc.Offset != 0 {
		g.w.Emitf("li %s, +($%s %d)", r1, sc.Name, sc.Offset)
	} else {
		g.w.Emitf("li %s, $%s", r1, sc.Name)
	}
}

// loadMemStatic reads a MemoryAccess whose address is one of the
// statically-known forms (symbol, stack slot, or constant pointer).
func (g *Codegen) loadMemStatic(m *values.MemoryAccess, r1, r2 string) {
	t := m.Type()
	if t.Size() == 8 {
		g.emitMem("l", types.SignedInt, m.Addr, 4, r2)
		g.emitMem("l", t, m.Addr, 0, r1)
		return
	}
	g.emitMem("l", t, m.Addr, 0, r1)
}

// loadMemDynamic reads a MemoryAccess whose address was just computed into
// a0 by the caller (the pointer subexpression's own emitted code).
func (g *Codegen) loadMemDynamic(m *values.MemoryAccess, r1, r2 string) {
	t := m.Type()
	if t.Size() == 8 {
		g.w.Emitf("%s %s, a0, %d", widthMnemonic(types.SignedInt, true), r2, 4)
		g.w.Emitf("%s %s, a0, %d", widthMnemonic(t, true), r1, 0)
		return
	}
	g.w.Emitf("%s %s, a0, %d", widthMnemonic(t, true), r1, 0)
}

// emitMem emits one load ("l") or store ("s") of width t at addr+off,
// picking the addressing form by addr's concrete kind (spec.md §4.5.2).
func (g *Codegen) emitMem(dir string, t types.Type, addr values.Value, off int, reg string) {
	mnemonic := widthMnemonic(t, dir == "l")
	switch a := addr.(type) {
	case *values.SymConstant:
		total := a.Offset + off
		if total != 0 {
			g.w.Emitf("%s %s, +($%s %d)", mnemonic, reg, a.Name, total)
		} else {
			g.w.Emitf("%s %s, $%s", mnemonic, reg, a.Name)
		}
	case *values.StackFrameOffset:
		g.w.Emitf("%s %s, fp, %d", mnemonic, reg, a.Offset+off)
	case *values.PtrConstant:
		g.w.Emitf("%s %s, %d", mnemonic, reg, int32(a.Value)+int32(off))
	default:
		panic(fmt.Sprintf("codegen: %T is not a static address", addr))
	}
}

// storeStatic and storeDynamic implement spec.md §4.5.3, symmetric to load.
// storeStatic writes r1(/r2) to a statically-known address; storeDynamic
// writes to the address held in a0, so its caller (emitAssignExpr) first
// relocates the source value to a2/a3 to free a0/a1 for the address.
func (g *Codegen) storeStatic(addr values.Value, t types.Type, r1, r2 string) {
	if t.Size() == 8 {
		g.emitMem("s", types.SignedInt, addr, 4, r2)
		g.emitMem("s", t, addr, 0, r1)
		return
	}
	g.emitMem("s", t, addr, 0, r1)
}

func (g *Codegen) storeDynamic(t types.Type, r1, r2 string) {
	if t.Size() == 8 {
		g.w.Emitf("%s %s, a0, %d", widthMnemonic(types.SignedInt, false), r2, 4)
		g.w.Emitf("%s %s, a0, %d", widthMnemonic(t, false), r1, 0)
		return
	}
	g.w.Emitf("%s %s, a0, %d", widthMnemonic(t, false), r1, 0)
}

// push emits spec.md §4.5.4's push sequence for v: load it, then push the
// high half first (if 8-byte) so the low half ends up on top.
func (g *Codegen) push(v values.Value) {
	g.load(v, "a0", "a1")
	g.pushRegs(v.Type())
}

func (g *Codegen) pushRegs(t types.Type) {
	if t.Size() == 8 {
		g.w.Emit("push a1")
	}
	g.w.Emit("push a0")
}

// pop emits spec.md §4.5.4's pop sequence into r1(/r2), sized by t.
func (g *Codegen) pop(t types.Type, r1, r2 string) {
	g.w.Emitf("pop %s", r1)
	if t.Size() == 8 {
		g.w.Emitf("pop %s", r2)
	}
}
