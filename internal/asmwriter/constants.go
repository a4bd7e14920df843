package asmwriter

import (
	"fmt"

	"github.com/rrcc-project/rrcc/internal/values"
)

// EmitConstant writes one scalar constant's storage directive, choosing
// .db/.dh/.dw/.dq by size, or the symbolic forms for SymConstant/
// PtrConstant (spec.md §4.3).
func (w *Writer) EmitConstant(v values.Value) error {
	switch c := v.(type) {
	case *values.IntConstant:
		return w.emitSized(c.Ty.Size(), fmt.Sprintf("%d", c.Value))
	case *values.PtrConstant:
		w.Emit(fmt.Sprintf(".dw %d", c.Value))
		return nil
	case *values.SymConstant:
		if c.Offset != 0 {
			w.Emit(fmt.Sprintf(".dw +($%s %d)", c.Name, c.Offset))
		} else {
			w.Emit(fmt.Sprintf(".dw $%s", c.Name))
		}
		return nil
	default:
		return fmt.Errorf("asmwriter: %T is not a storable constant", v)
	}
}

func (w *Writer) emitSized(size int, literal string) error {
	switch size {
	case 1:
		w.Emit(".db " + literal)
	case 2:
		w.Emit(".dh " + literal)
	case 4:
		w.Emit(".dw " + literal)
	case 8:
		w.Emit(".dq " + literal)
	default:
		return fmt.Errorf("asmwriter: unsupported constant size %d", size)
	}
	return nil
}

// EmitFill appends a `.fill N` directive, used for zero-padding trailing
// array/struct initializer elements at global scope.
func (w *Writer) EmitFill(n int) {
	if n <= 0 {
		return
	}
	w.Emit(fmt.Sprintf(".fill %d", n))
}

// EmitGlobalHeader writes the `.align` and label lines that open every
// variable/function definition; EmitGlobalFooter writes the closing
// `.global`/`.local`, `.type`, and `.size` lines, matching spec.md's seed
// scenario 1.
func (w *Writer) EmitGlobalHeader(label string, p2align int, global bool, kind string) {
	w.Emitf(".align %d", p2align)
	w.EmitLabel(label)
}

func (w *Writer) EmitGlobalFooter(label string, global bool, kind string) {
	if global {
		w.Emitf(".global $%s", label)
	} else {
		w.Emitf(".local $%s", label)
	}
	w.Emitf(".type $%s, %q", label, kind)
	w.Emitf(".size $%s, -($. $%s)", label, label)
}
