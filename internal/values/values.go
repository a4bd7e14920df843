// Package values implements ValueModel: the closed set of l-value and
// r-value kinds from spec.md §3, and their static attributes.
//
// Like internal/types, this is a tagged-variant interface with concrete
// struct implementations switched over exhaustively by internal/sema and
// internal/codegen (spec.md §9, "Dynamic dispatch on a value's runtime
// kind").
package values

import "github.com/rrcc-project/rrcc/internal/types"

// Value is the closed variant set of spec.md §3.
type Value interface {
	// Type is the value's static type.
	Type() types.Type
	// IsLValue reports whether this value denotes addressable storage.
	IsLValue() bool
}

// --- L-values ---

// GlobalVariable is a non-static file-scope variable definition.
type GlobalVariable struct {
	VarName string
	Ty      types.Type
	Label   string
}

func (v *GlobalVariable) Type() types.Type { return v.Ty }
func (*GlobalVariable) IsLValue() bool     { return true }

// StaticVariable is a `static` variable, either at file scope or inside a
// function body; its Label embeds the enclosing function name and an
// ordinal when local (spec.md §4.3, "Label pools").
type StaticVariable struct {
	VarName string
	Ty      types.Type
	Label   string
}

func (v *StaticVariable) Type() types.Type { return v.Ty }
func (*StaticVariable) IsLValue() bool     { return true }

// ExternVariable is declared `extern` and defined in another translation
// unit; it has no local storage or label, only a linker-visible name.
type ExternVariable struct {
	VarName string
	Ty      types.Type
}

func (v *ExternVariable) Type() types.Type { return v.Ty }
func (*ExternVariable) IsLValue() bool     { return true }

// LocalVariable lives below fp at a negative FrameOffset (spec.md
// invariant 4).
type LocalVariable struct {
	VarName     string
	Ty          types.Type
	FrameOffset int
}

func (v *LocalVariable) Type() types.Type { return v.Ty }
func (*LocalVariable) IsLValue() bool     { return true }

// Argument lives at a non-negative FrameOffset >= 8, skipping the saved ra
// and fp slots (spec.md invariant 4).
type Argument struct {
	VarName     string
	Ty          types.Type
	FrameOffset int
}

func (v *Argument) Type() types.Type { return v.Ty }
func (*Argument) IsLValue() bool     { return true }

// StrLiteral is a string literal's decoded byte content, NOT including its
// trailing NUL: the `.asciz` directive supplies that itself, the same way
// a char array initialized directly from the literal needs no extra
// `.fill` byte for it (spec.md §8, seed scenario 2). ArrayType.Dim is
// len(Bytes)+1 to account for the implicit NUL. RodataLabel is empty
// until the literal escapes as a pointer (spec.md invariant 5); equal
// strings share one label via the compilation context's string pool.
type StrLiteral struct {
	Bytes       []byte
	RodataLabel string
	ArrayType   *types.Array
}

func (v *StrLiteral) Type() types.Type { return v.ArrayType }
func (*StrLiteral) IsLValue() bool     { return true }

// MemoryAccess is the synthetic l-value "memory at this address value"
// (Glossary). Addr's type must be a Pointer; the access's own type is that
// pointer's base.
type MemoryAccess struct {
	Addr Value
}

func (v *MemoryAccess) Type() types.Type {
	return v.Addr.Type().(*types.Pointer).Base
}
func (*MemoryAccess) IsLValue() bool { return true }

// --- R-values ---

// Function denotes a named function value (before any array/function
// decay converts it to a SymConstant pointer).
type Function struct {
	FuncName string
	Ty       *types.Function
}

func (v *Function) Type() types.Type { return v.Ty }
func (*Function) IsLValue() bool     { return false }

// IntConstant holds a compile-time integer, always normalized modulo its
// type's representable range (spec.md invariant 2).
type IntConstant struct {
	Value int64
	Ty    *types.Int
}

func (v *IntConstant) Type() types.Type { return v.Ty }
func (*IntConstant) IsLValue() bool     { return false }

// IsZero reports whether the constant is the integer 0, used throughout
// Sema's null-pointer conversion rule and Codegen's branch-elision for
// constant conditions.
func (v *IntConstant) IsZero() bool { return v.Value == 0 }

// PtrConstant holds a compile-time pointer value that is not a symbol
// reference (most commonly the null pointer, or the result of folding a
// cast of an integer constant to a pointer type).
type PtrConstant struct {
	Value uint32
	Ty    *types.Pointer
}

func (v *PtrConstant) Type() types.Type { return v.Ty }
func (*PtrConstant) IsLValue() bool     { return false }
func (v *PtrConstant) IsNull() bool     { return v.Value == 0 }

// SymConstant is the address of a named symbol plus a constant byte
// Offset, used for array/function decay and for the address of a static or
// global (spec.md §4.4.1, "Array -> pointer").
type SymConstant struct {
	Name   string
	Ty     *types.Pointer
	Offset int
}

func (v *SymConstant) Type() types.Type { return v.Ty }
func (*SymConstant) IsLValue() bool     { return false }

// TemporaryValue is a result sitting in the argument registers (a0/a1),
// not yet stored anywhere addressable.
type TemporaryValue struct {
	Ty types.Type
}

func (v *TemporaryValue) Type() types.Type { return v.Ty }
func (*TemporaryValue) IsLValue() bool     { return false }

// StackFrameOffset is the address of a local, computed as fp+Offset; it is
// what address_of(LocalVariable) and address_of(Argument) produce (spec.md
// §4.5.5).
type StackFrameOffset struct {
	Offset int
	Ty     *types.Pointer
}

func (v *StackFrameOffset) Type() types.Type { return v.Ty }
func (*StackFrameOffset) IsLValue() bool     { return false }
