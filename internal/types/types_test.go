package types_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/types"
)

// TestNormalizeWraps checks spec.md §8 Universal invariant 1: every
// folded integer literal equals L mod 2^(8*sizeof T), reinterpreted as
// signed iff T is signed.
func TestNormalizeWraps(t *testing.T) {
	tests := []struct {
		name    string
		ty      *types.Int
		in      int64
		want    int64
		wrapped bool
	}{
		{"uchar in range", types.UChar, 200, 200, false},
		{"uchar wraps negative", types.UChar, -1, 255, true},
		{"uchar wraps overflow", types.UChar, 256, 0, true},
		{"schar in range", types.SChar, -100, -100, false},
		{"schar wraps", types.SChar, 200, -56, true},
		{"int in range", types.SignedInt, 42, 42, false},
		{"int wraps overflow", types.SignedInt, 1 << 32, 0, true},
		{"uint wraps negative", types.UnsignedInt, -1, 0xFFFFFFFF, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wrapped := tt.ty.Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%d) = %d, want %d", tt.in, got, tt.want)
			}
			if wrapped != tt.wrapped {
				t.Errorf("Normalize(%d) wrapped = %v, want %v", tt.in, wrapped, tt.wrapped)
			}
		})
	}
}

// TestNormalizeIdempotent checks the "constant folding is idempotent"
// round-trip property: normalizing an already-normalized value is a no-op.
func TestNormalizeIdempotent(t *testing.T) {
	for _, ty := range []*types.Int{types.Char, types.UChar, types.Short, types.SignedInt, types.UnsignedInt} {
		v, _ := ty.Normalize(-1)
		v2, wrapped2 := ty.Normalize(v)
		if v2 != v || wrapped2 {
			t.Errorf("%s: Normalize not idempotent: %d -> %d (wrapped=%v)", ty, v, v2, wrapped2)
		}
	}
}

// TestNarrowThenWidenSignExtends is spec.md §8's boundary behaviour:
// narrowing -1 into unsigned char yields 255; widening it back into a
// signed int, through the unsigned representation, must NOT recover -1
// (only sign-extension through a signed intermediate does).
func TestNarrowThenWidenSignExtends(t *testing.T) {
	narrowed, wrapped := types.UChar.Normalize(-1)
	if narrowed != 255 || !wrapped {
		t.Fatalf("narrowing -1 into unsigned char = %d (wrapped=%v), want 255 (wrapped)", narrowed, wrapped)
	}
	widenedUnsigned, _ := types.SignedInt.Normalize(narrowed)
	if widenedUnsigned != 255 {
		t.Errorf("widening unsigned char 255 into int = %d, want 255 (no sign extension)", widenedUnsigned)
	}

	narrowedSigned, _ := types.SChar.Normalize(-1)
	widenedSigned, _ := types.SignedInt.Normalize(narrowedSigned)
	if widenedSigned != -1 {
		t.Errorf("widening signed char -1 into int = %d, want -1", widenedSigned)
	}
}

// TestIsCompatibleReflexiveSymmetric checks Universal invariant 2.
func TestIsCompatibleReflexiveSymmetric(t *testing.T) {
	st := &types.Struct{TypeName: "p"}
	if err := st.SetFields([]types.Field{{Name: "x", Type: types.SignedInt}}); err != nil {
		t.Fatal(err)
	}
	values := []types.Type{
		types.VoidType,
		types.SignedInt,
		types.UnsignedInt,
		&types.Pointer{Base: types.SignedInt},
		st,
	}
	for _, a := range values {
		if !types.IsCompatible(a, a) {
			t.Errorf("IsCompatible(%s, %s) = false, want true (reflexive)", a, a)
		}
	}
	for _, a := range values {
		for _, b := range values {
			if types.IsCompatible(a, b) != types.IsCompatible(b, a) {
				t.Errorf("IsCompatible(%s, %s) != IsCompatible(%s, %s) (not symmetric)", a, b, b, a)
			}
		}
	}
}

// TestStructLayout checks Universal invariant 3: size is the aligned
// running offset, align is the max field alignment (min 1), and every
// field offset is a multiple of its own alignment.
func TestStructLayout(t *testing.T) {
	st := &types.Struct{TypeName: "s"}
	fields := []types.Field{
		{Name: "a", Type: types.Char},    // offset 0, size 1
		{Name: "b", Type: types.SignedInt}, // needs 4-align -> offset 4, size 4
		{Name: "c", Type: types.Char},    // offset 8, size 1
	}
	if err := st.SetFields(fields); err != nil {
		t.Fatal(err)
	}
	if st.Fields[0].Offset != 0 {
		t.Errorf("field a offset = %d, want 0", st.Fields[0].Offset)
	}
	if st.Fields[1].Offset != 4 {
		t.Errorf("field b offset = %d, want 4", st.Fields[1].Offset)
	}
	if st.Fields[2].Offset != 8 {
		t.Errorf("field c offset = %d, want 8", st.Fields[2].Offset)
	}
	if st.Align() != 4 {
		t.Errorf("struct align = %d, want 4 (max field align)", st.Align())
	}
	if st.Size()%st.Align() != 0 {
		t.Errorf("struct size %d is not a multiple of its own alignment %d", st.Size(), st.Align())
	}
	if st.Size() != 12 {
		t.Errorf("struct size = %d, want 12 (9 rounded up to align 4)", st.Size())
	}
	for _, f := range st.Fields {
		if f.Offset%f.Type.Align() != 0 {
			t.Errorf("field %s offset %d is not a multiple of its alignment %d", f.Name, f.Offset, f.Type.Align())
		}
	}
}

// TestStructMinimumAlignOne checks an all-char struct's alignment floors
// at 1, never 0.
func TestStructMinimumAlignOne(t *testing.T) {
	st := &types.Struct{TypeName: "bytes"}
	if err := st.SetFields([]types.Field{{Name: "a", Type: types.Char}, {Name: "b", Type: types.Char}}); err != nil {
		t.Fatal(err)
	}
	if st.Align() != 1 {
		t.Errorf("align = %d, want 1", st.Align())
	}
	if st.Size() != 2 {
		t.Errorf("size = %d, want 2", st.Size())
	}
}

func TestPromoteInt(t *testing.T) {
	if got := types.PromoteInt(types.Char); got != types.SignedInt {
		t.Errorf("PromoteInt(char) = %s, want int", got)
	}
	if got := types.PromoteInt(types.SignedInt); got != types.SignedInt {
		t.Errorf("PromoteInt(int) = %s, want int (unchanged)", got)
	}
	if got := types.PromoteInt(types.ULong); got != types.ULong {
		t.Errorf("PromoteInt(unsigned long) = %s, want unsigned long (unchanged, already >= 4 bytes)", got)
	}
}

func TestArithmeticCommonUnsignedWinsAtEqualSize(t *testing.T) {
	got := types.ArithmeticCommon(types.SignedInt, types.UnsignedInt)
	if got != types.UnsignedInt {
		t.Errorf("ArithmeticCommon(int, unsigned int) = %s, want unsigned int", got)
	}
}

func TestArithmeticCommonWiderWins(t *testing.T) {
	got := types.ArithmeticCommon(types.SignedInt, types.LongLong)
	if got != types.LongLong {
		t.Errorf("ArithmeticCommon(int, long long) = %s, want long long", got)
	}
}
