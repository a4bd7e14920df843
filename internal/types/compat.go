package types

// IsCompatible implements spec.md §4.1's structural compatibility relation.
// It is reflexive and symmetric by construction, and transitive on complete
// types (spec.md §8, Universal invariant 2).
func IsCompatible(a, b Type) bool {
	return isCompatible(a, b, false, false)
}

// isCompatible carries two relaxation flags used only in parameter-list
// position: aAsParam/bAsParam permit an array where the other side expects
// a pointer to its element, and a function where the other side expects a
// pointer-to-function (spec.md §4.1, "parameter-only relaxations").
func isCompatible(a, b Type, aAsParam, bAsParam bool) bool {
	switch av := a.(type) {
	case Void:
		_, ok := b.(Void)
		return ok
	case *Int:
		bv, ok := b.(*Int)
		return ok && av.Bytes == bv.Bytes && av.Unsigned == bv.Unsigned
	case *Pointer:
		if bv, ok := b.(*Pointer); ok {
			return IsCompatible(av.Base, bv.Base)
		}
		if bAsParam {
			if barr, ok := b.(*Array); ok {
				return IsCompatible(av.Base, barr.Base)
			}
			if bfn, ok := b.(*Function); ok {
				return IsCompatible(av.Base, bfn)
			}
		}
		return false
	case *Array:
		if bv, ok := b.(*Array); ok {
			return av.Dim != nil && bv.Dim != nil && *av.Dim == *bv.Dim && IsCompatible(av.Base, bv.Base)
		}
		if aAsParam {
			if bp, ok := b.(*Pointer); ok {
				return IsCompatible(av.Base, bp.Base)
			}
		}
		return false
	case *Struct:
		bv, ok := b.(*Struct)
		if !ok || len(av.Fields) != len(bv.Fields) || len(av.Fields) == 0 {
			return false
		}
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name {
				return false
			}
			if !IsCompatible(av.Fields[i].Type, bv.Fields[i].Type) {
				return false
			}
		}
		return true
	case *Function:
		if bv, ok := b.(*Function); ok {
			if av.Ellipsis != bv.Ellipsis || len(av.Args) != len(bv.Args) {
				return false
			}
			if !isCompatible(av.Ret, bv.Ret, false, false) {
				return false
			}
			for i := range av.Args {
				if !isCompatible(av.Args[i], bv.Args[i], true, true) {
					return false
				}
			}
			return true
		}
		if aAsParam {
			if bp, ok := b.(*Pointer); ok {
				return IsCompatible(av, bp.Base)
			}
		}
		return false
	default:
		return false
	}
}

// PromoteInt widens any Int narrower than 4 bytes to signed int; every
// other type (including 4/8-byte ints, pointers, etc.) is returned
// unchanged. Grounded on spec.md §4.1, "Int promotion".
func PromoteInt(t Type) Type {
	it, ok := t.(*Int)
	if !ok {
		return t
	}
	if it.Bytes >= 4 {
		return t
	}
	return SignedInt
}

// ArithmeticCommon implements spec.md §4.1's "Arithmetic common type":
// promote both operands, then if they're the same size the unsigned one
// wins, otherwise the wider one wins.
func ArithmeticCommon(a, b Type) Type {
	pa := PromoteInt(a).(*Int)
	pb := PromoteInt(b).(*Int)
	if pa.Bytes == pb.Bytes {
		if pa.Unsigned {
			return pa
		}
		return pb
	}
	if pa.Bytes > pb.Bytes {
		return pa
	}
	return pb
}
