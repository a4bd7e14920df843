package values_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// TestLValueClassification checks spec.md §3's split between addressable
// and non-addressable value kinds: every storage-backed kind reports
// IsLValue true, every computed/constant kind reports false.
func TestLValueClassification(t *testing.T) {
	lvalues := []values.Value{
		&values.GlobalVariable{Ty: types.SignedInt},
		&values.StaticVariable{Ty: types.SignedInt},
		&values.ExternVariable{Ty: types.SignedInt},
		&values.LocalVariable{Ty: types.SignedInt},
		&values.Argument{Ty: types.SignedInt},
		&values.StrLiteral{ArrayType: &types.Array{Base: types.Char}},
		&values.MemoryAccess{Addr: &values.PtrConstant{Ty: &types.Pointer{Base: types.SignedInt}}},
	}
	for _, v := range lvalues {
		if !v.IsLValue() {
			t.Errorf("%T.IsLValue() = false, want true", v)
		}
	}

	rvalues := []values.Value{
		&values.Function{Ty: &types.Function{Ret: types.SignedInt}},
		&values.IntConstant{Ty: types.SignedInt},
		&values.PtrConstant{Ty: &types.Pointer{Base: types.SignedInt}},
		&values.SymConstant{Ty: &types.Pointer{Base: types.SignedInt}},
		&values.TemporaryValue{Ty: types.SignedInt},
		&values.StackFrameOffset{Ty: &types.Pointer{Base: types.SignedInt}},
	}
	for _, v := range rvalues {
		if v.IsLValue() {
			t.Errorf("%T.IsLValue() = true, want false", v)
		}
	}
}

func TestMemoryAccessTypeIsPointerBase(t *testing.T) {
	ptr := &types.Pointer{Base: types.SignedInt}
	ma := &values.MemoryAccess{Addr: &values.PtrConstant{Ty: ptr}}
	if ma.Type() != types.SignedInt {
		t.Errorf("MemoryAccess.Type() = %s, want the pointer's base type", ma.Type())
	}
}

func TestIntConstantIsZero(t *testing.T) {
	zero := &values.IntConstant{Value: 0, Ty: types.SignedInt}
	nonzero := &values.IntConstant{Value: 1, Ty: types.SignedInt}
	if !zero.IsZero() {
		t.Error("IntConstant{0}.IsZero() = false, want true")
	}
	if nonzero.IsZero() {
		t.Error("IntConstant{1}.IsZero() = true, want false")
	}
}

func TestPtrConstantIsNull(t *testing.T) {
	ptr := &types.Pointer{Base: types.SignedInt}
	null := &values.PtrConstant{Value: 0, Ty: ptr}
	nonnull := &values.PtrConstant{Value: 4096, Ty: ptr}
	if !null.IsNull() {
		t.Error("PtrConstant{0}.IsNull() = false, want true")
	}
	if nonnull.IsNull() {
		t.Error("PtrConstant{4096}.IsNull() = true, want false")
	}
}
