package ccerror_test

import (
	"strings"
	"testing"

	"github.com/rrcc-project/rrcc/internal/ccerror"
)

func TestPosStringFormatsLineColumn(t *testing.T) {
	p := ccerror.Pos{Filename: "a.c", Line: 3, Column: 7}
	if got, want := p.String(), "a.c:3:7"; got != want {
		t.Errorf("Pos.String() = %q, want %q", got, want)
	}
}

func TestPosStringUnknownWhenFilenameEmpty(t *testing.T) {
	if got := (ccerror.Pos{}).String(); got != "<unknown>" {
		t.Errorf("Pos{}.String() = %q, want <unknown>", got)
	}
}

// TestAddContextBuildsPathOuterFirst checks that the recursive frames
// calling AddContext as the error unwinds (innermost frame first) produce an
// Error() string listing the outermost frame first, from the root down to the
// failing node, with the original message/kind preserved.
func TestAddContextBuildsPathOuterFirst(t *testing.T) {
	err := ccerror.New(ccerror.Undefined, ccerror.Pos{Filename: "a.c", Line: 1}, "undefined name %q", "x")
	err.AddContext("in expression x + 1")
	err.AddContext("in function f")

	msg := err.Error()
	if !strings.Contains(msg, "Undefined") || !strings.Contains(msg, `undefined name "x"`) {
		t.Errorf("Error() = %q missing kind/message", msg)
	}
	exprIdx := strings.Index(msg, "in expression x + 1")
	funcIdx := strings.Index(msg, "in function f")
	if exprIdx < 0 || funcIdx < 0 || exprIdx < funcIdx {
		t.Errorf("Error() = %q, want the outer context frame listed before the innermost one", msg)
	}
}

func TestNotImplWrapsNotImplementedKind(t *testing.T) {
	ni := ccerror.NotImpl(ccerror.Pos{}, "union")
	if ni.Kind != ccerror.NotImplemented {
		t.Errorf("NotImpl kind = %v, want NotImplemented", ni.Kind)
	}
	if !strings.Contains(ni.Error(), "union") {
		t.Errorf("NotImpl error %q does not name the unimplemented feature", ni.Error())
	}
}

func TestWarningStringFormat(t *testing.T) {
	w := ccerror.Warning{Pos: ccerror.Pos{Filename: "a.c", Line: 2, Column: 1}, Msg: "literal truncated"}
	if got, want := w.String(), "a.c:2:1: warning: literal truncated"; got != want {
		t.Errorf("Warning.String() = %q, want %q", got, want)
	}
}
