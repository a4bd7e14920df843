package scope_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/types"
)

// TestAllocLocalMonotonicAndAligned checks spec.md §8 Universal invariant
// 4: assigned frame offsets are monotonically non-decreasing in absolute
// value, every one is a multiple of 4, and max_frame_size equals the
// largest absolute offset handed out.
func TestAllocLocalMonotonicAndAligned(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	fn := global.NewFunctionScope()

	sizes := []int{1, 4, 3, 8, 1}
	var offsets []int
	for _, sz := range sizes {
		offsets = append(offsets, fn.AllocLocal(sz))
	}

	prev := 0
	for i, off := range offsets {
		if off >= 0 {
			t.Fatalf("offset %d (%d) is not negative", i, off)
		}
		abs := -off
		if abs%4 != 0 {
			t.Errorf("offset %d (%d) is not a multiple of 4", i, off)
		}
		if abs < prev {
			t.Errorf("offset %d (%d) has smaller magnitude than previous %d", i, abs, prev)
		}
		prev = abs
	}
	if fn.Frame.MaxFrameSize != prev {
		t.Errorf("MaxFrameSize = %d, want %d (largest magnitude handed out)", fn.Frame.MaxFrameSize, prev)
	}
}

// TestAllocLocalSharedAcrossNestedScopes checks that a nested compound's
// FrameState is the same pointer as its enclosing function's, so offsets
// keep accumulating instead of restarting at 0 (spec.md §4.4.3).
func TestAllocLocalSharedAcrossNestedScopes(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	fn := global.NewFunctionScope()

	outer := fn.AllocLocal(4)
	inner := fn.NewChild()
	innerOffset := inner.AllocLocal(4)

	if innerOffset == outer {
		t.Fatalf("nested scope reused the same offset %d as the outer scope", outer)
	}
	if -innerOffset <= -outer {
		t.Errorf("nested scope's offset %d did not accumulate past outer's %d", innerOffset, outer)
	}
}

func TestScopeRedefinitionRejected(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	sym := scope.TypeSymbol(types.SignedInt)
	if err := global.Add(ccerror.Pos{}, "x", sym); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err := global.Add(ccerror.Pos{}, "x", sym)
	if err == nil {
		t.Fatal("second Add of the same name in the same scope did not fail")
	}
	ce, ok := err.(*ccerror.CCError)
	if !ok || ce.Kind != ccerror.Redefined {
		t.Errorf("error = %v, want a Redefined CCError", err)
	}
}

func TestScopeShadowingAllowed(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	if err := global.Add(ccerror.Pos{}, "x", scope.TypeSymbol(types.SignedInt)); err != nil {
		t.Fatal(err)
	}
	child := global.NewChild()
	if err := child.Add(ccerror.Pos{}, "x", scope.TypeSymbol(types.Char)); err != nil {
		t.Fatalf("shadowing an outer binding in a nested scope should be allowed: %v", err)
	}
	sym, ok := child.Find("x")
	if !ok || sym.Type != types.Char {
		t.Errorf("Find(x) in child = %v, want the shadowing char binding", sym.Type)
	}
}

func TestScopeLookupFallsThroughToBuiltin(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	sym, err := global.GetType(ccerror.Pos{}, "int")
	if err != nil {
		t.Fatalf("GetType(int): %v", err)
	}
	if sym != types.SignedInt {
		t.Errorf("GetType(int) = %v, want the builtin int type", sym)
	}
}

func TestScopeUndefinedLookupFails(t *testing.T) {
	builtin := scope.NewBuiltin()
	global := scope.NewGlobal(builtin)
	_, err := global.Get(ccerror.Pos{}, "nope")
	if err == nil {
		t.Fatal("Get of an undefined name did not fail")
	}
}
