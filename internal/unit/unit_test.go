package unit_test

import (
	"testing"

	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/scope"
	"github.com/rrcc-project/rrcc/internal/unit"
)

func TestNewBuildsFreshGlobalScopeOverSharedBuiltin(t *testing.T) {
	builtin := scope.NewBuiltin()
	u1 := unit.New("a.c", builtin)
	u2 := unit.New("b.c", builtin)

	if u1.Builtin != builtin || u2.Builtin != builtin {
		t.Error("Unit.Builtin is not the shared builtin scope passed to New")
	}
	if u1.Global == u2.Global {
		t.Error("two Units constructed from the same builtin scope shared one Global scope")
	}
	if u1.Store == nil || u1.Writer == nil {
		t.Error("New did not initialize Store/Writer")
	}
}

func TestWarnAccumulates(t *testing.T) {
	u := unit.New("a.c", scope.NewBuiltin())
	if len(u.Warnings) != 0 {
		t.Fatalf("fresh Unit has %d warnings, want 0", len(u.Warnings))
	}
	u.Warn(ccerror.Pos{Filename: "a.c", Line: 1}, "literal %d truncated", 300)
	u.Warn(ccerror.Pos{Filename: "a.c", Line: 2}, "comparison of distinct pointer types")
	if len(u.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(u.Warnings))
	}
	if u.Warnings[0].Msg != "literal 300 truncated" {
		t.Errorf("Warnings[0].Msg = %q, want formatted message", u.Warnings[0].Msg)
	}
}
