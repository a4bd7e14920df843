// Package types implements TypeModel: the value-type variants of spec.md
// §3, their sizes, alignments, completion, structural compatibility, and
// arithmetic promotion rules (spec.md §4.1).
//
// Grounded on the teacher's tagged-variant-plus-registry idiom (arch.go's
// ArchParser interface dispatched over concrete implementations); here the
// variants are concrete Type implementations switched over by callers
// instead of registered, since Type has no architecture-style runtime
// registration need.
package types

import "fmt"

// Type is the closed variant set {Void, Int, Array, Struct, Pointer,
// Function}. Callers type-switch over the concrete implementations.
type Type interface {
	// Name is the type's spelling if it has one ("int", "unsigned long"),
	// or "" for anonymous array/struct/pointer/function types.
	Name() string
	// Size returns the type's size in bytes. Incomplete arrays and structs
	// panic; Void, which is never complete, reports 0.
	Size() int
	// Align returns the type's alignment in bytes (minimum 1).
	Align() int
	// IsComplete reports whether Size/Align-dependent layout is known.
	IsComplete() bool
	fmt.Stringer
}

// Void is the single empty type; it is never complete, but Size() reports
// 0 so that pointer arithmetic on void* adds its operand unscaled, and
// querying Size() on a bare Void value (not behind a pointer) is rejected
// by Sema with IncompleteType per spec.md §7.
type Void struct{}

func (Void) Name() string    { return "void" }
func (Void) Size() int       { return 0 }
func (Void) Align() int      { return 1 }
func (Void) IsComplete() bool { return false }
func (Void) String() string  { return "void" }

// Int is a signed or unsigned integer type of size 1, 2, 4, or 8 bytes.
type Int struct {
	TypeName string
	Bytes    int
	Unsigned bool
	AlignBy  int
}

func (t *Int) Name() string  { return t.TypeName }
func (t *Int) Size() int     { return t.Bytes }
func (t *Int) Align() int {
	if t.AlignBy != 0 {
		return t.AlignBy
	}
	return t.Bytes
}
func (t *Int) IsComplete() bool { return true }
func (t *Int) String() string   { return t.TypeName }

// Normalize wraps i into this type's representable range using two's
// complement, per spec.md invariant 2. It never fails; out-of-range input
// is a Warning the caller (Sema) is responsible for emitting, not an error.
func (t *Int) Normalize(i int64) (value int64, wrapped bool) {
	bits := uint(t.Bytes * 8)
	mask := uint64(1)<<bits - 1
	u := uint64(i) & mask
	if t.Unsigned {
		wrapped = uint64(i) != u && (i < 0 || uint64(i) > mask)
		return int64(u), wrapped
	}
	signBit := uint64(1) << (bits - 1)
	var signed int64
	if u&signBit != 0 {
		signed = int64(u) - int64(mask) - 1
	} else {
		signed = int64(u)
	}
	wrapped = i != signed
	return signed, wrapped
}

// Array is Base[Dim]. Dim is nil until SetDim completes it.
type Array struct {
	Base Type
	Dim  *int
}

func (t *Array) Name() string { return "" }
func (t *Array) Size() int {
	if t.Dim == nil {
		panic("types: Size of incomplete array")
	}
	return t.Base.Size() * (*t.Dim)
}
func (t *Array) Align() int       { return t.Base.Align() }
func (t *Array) IsComplete() bool { return t.Dim != nil && t.Base.IsComplete() }
func (t *Array) String() string {
	if t.Dim == nil {
		return fmt.Sprintf("%s[]", t.Base)
	}
	return fmt.Sprintf("%s[%d]", t.Base, *t.Dim)
}

// SetDim completes an incomplete array type, e.g. when a string literal's
// length determines the dimension of a char[] initializer.
func (t *Array) SetDim(dim int) {
	t.Dim = &dim
}

// Field is one member of a Struct, with its computed byte Offset.
type Field struct {
	Name   string
	Type   Type
	Offset int
}

// Struct is a sequence of named fields with sequential, alignment-rounded
// layout (spec.md §3, "Field layout").
type Struct struct {
	TypeName string
	Fields   []Field
	ByName   map[string]int // field name -> index into Fields
	Complete bool
	ByteSize int
	AlignBy  int
	TailFill int
}

func (t *Struct) Name() string   { return t.TypeName }
func (t *Struct) Size() int {
	if !t.Complete {
		panic("types: Size of incomplete struct")
	}
	return t.ByteSize
}
func (t *Struct) Align() int       { return t.AlignBy }
func (t *Struct) IsComplete() bool { return t.Complete }
func (t *Struct) String() string {
	if t.TypeName != "" {
		return "struct " + t.TypeName
	}
	return "struct {...}"
}

// SetFields completes an incomplete struct: it walks fields in declaration
// order, rounds the running offset up to each field's alignment, assigns
// it, accumulates, then rounds the final offset up to the struct's own
// alignment to produce TailFill. The struct's alignment is the max of its
// field alignments (minimum 1). Empty structs are rejected by the caller
// (Sema) before SetFields is invoked; SetFields itself just refuses to
// produce a zero-field complete struct as a safety net.
func (t *Struct) SetFields(fields []Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("types: empty struct")
	}
	align := 1
	offset := 0
	laidOut := make([]Field, len(fields))
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		fa := f.Type.Align()
		if fa > align {
			align = fa
		}
		if offset%fa != 0 {
			offset += fa - offset%fa
		}
		f.Offset = offset
		laidOut[i] = f
		byName[f.Name] = i
		offset += f.Type.Size()
	}
	size := offset
	if size%align != 0 {
		size += align - size%align
	}
	t.Fields = laidOut
	t.ByName = byName
	t.AlignBy = align
	t.ByteSize = size
	t.TailFill = size - offset
	t.Complete = true
	return nil
}

// Field looks up a member by name, returning (field, ok).
func (t *Struct) Field(name string) (Field, bool) {
	idx, ok := t.ByName[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[idx], true
}

// Pointer is *Base. Base may start out as a placeholder (the "null-based"
// state of spec.md invariant 3) and later be resolved by Sema's conversion
// algorithm before the pointer escapes.
type Pointer struct {
	Base      Type
	Unresolved bool
}

func (t *Pointer) Name() string    { return "" }
func (t *Pointer) Size() int       { return 4 }
func (t *Pointer) Align() int      { return 4 }
func (t *Pointer) IsComplete() bool { return true }
func (t *Pointer) String() string  { return fmt.Sprintf("%s*", t.Base) }

// ResolveBase sets a placeholder pointer's base type, escaping its
// "null-based" state (invariant 3). It overwrites Base unconditionally,
// also on an already-resolved pointer; callers check Unresolved first.
func (t *Pointer) ResolveBase(base Type) {
	t.Base = base
	t.Unresolved = false
}

// Function is Ret(Args...) or Ret(Args..., ...) when Ellipsis is set. Its
// own storage size is 0 (spec.md §3: "only pointers to functions occupy
// space").
type Function struct {
	Ret      Type
	Args     []Type
	Ellipsis bool
}

func (t *Function) Name() string    { return "" }
func (t *Function) Size() int       { return 0 }
func (t *Function) Align() int      { return 1 }
func (t *Function) IsComplete() bool { return true }
func (t *Function) String() string {
	return fmt.Sprintf("%s(...)->%s", t.argsString(), t.Ret)
}

func (t *Function) argsString() string {
	s := ""
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	if t.Ellipsis {
		if s != "" {
			s += ", "
		}
		s += "..."
	}
	return s
}

// NewFunction "cooks" each parameter and return type per spec.md §3:
// an array parameter decays to a pointer-to-element, a function parameter
// decays to a pointer-to-function, and a struct parameter/return type is
// rejected (struct-by-value is a Non-goal, spec.md §1).
func NewFunction(ret Type, args []Type, ellipsis bool) (*Function, error) {
	if _, ok := ret.(*Struct); ok {
		return nil, fmt.Errorf("types: struct return type is not implemented")
	}
	cooked := make([]Type, len(args))
	for i, a := range args {
		c, err := cookParam(a)
		if err != nil {
			return nil, err
		}
		cooked[i] = c
	}
	return &Function{Ret: ret, Args: cooked, Ellipsis: ellipsis}, nil
}

func cookParam(t Type) (Type, error) {
	switch v := t.(type) {
	case *Array:
		return &Pointer{Base: v.Base}, nil
	case *Function:
		return &Pointer{Base: v}, nil
	case *Struct:
		return nil, fmt.Errorf("types: struct parameter is not implemented")
	default:
		return t, nil
	}
}
