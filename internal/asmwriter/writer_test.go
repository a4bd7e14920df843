package asmwriter_test

import (
	"strings"
	"testing"

	"github.com/rrcc-project/rrcc/internal/asmwriter"
)

// TestInternStringSharesEqualContent checks spec.md §8 Universal invariant
// 7: two string literals with equal byte content share the same rodata
// label; unequal content produces distinct labels.
func TestInternStringSharesEqualContent(t *testing.T) {
	w := asmwriter.New()
	a := w.InternString([]byte("hi\x00"))
	b := w.InternString([]byte("hi\x00"))
	if a != b {
		t.Errorf("InternString of equal content returned distinct labels %q, %q", a, b)
	}
	c := w.InternString([]byte("bye\x00"))
	if a == c {
		t.Errorf("InternString of distinct content returned the same label %q", a)
	}
}

// TestMintLabelDistinct checks that every minted label is unique even when
// the same prefix is reused, which Sema relies on to disambiguate nested
// loops/ifs/switches with the same control-flow shape.
func TestMintLabelDistinct(t *testing.T) {
	w := asmwriter.New()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		l := w.MintLabel("L.if")
		if seen[l] {
			t.Fatalf("MintLabel returned a duplicate label %q", l)
		}
		seen[l] = true
	}
}

func TestRenderOrdersSections(t *testing.T) {
	w := asmwriter.New()
	w.SetSection(asmwriter.Bss)
	w.Emit("bss line")
	w.SetSection(asmwriter.Text)
	w.Emit("text line")
	w.SetSection(asmwriter.Data)
	w.Emit("data line")

	out, err := w.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	textIdx := strings.Index(out, "text line")
	dataIdx := strings.Index(out, "data line")
	bssIdx := strings.Index(out, "bss line")
	if !(textIdx < dataIdx && dataIdx < bssIdx) {
		t.Errorf("Render did not order sections Text < Data < Bss:\n%s", out)
	}
}

func TestEmitLabelUnindented(t *testing.T) {
	w := asmwriter.New()
	w.EmitLabel("foo")
	w.Emit("nop")
	out, err := w.Render()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var labelLine, instrLine string
	for _, l := range lines {
		if strings.TrimSpace(l) == "foo:" {
			labelLine = l
		}
		if strings.Contains(l, "nop") {
			instrLine = l
		}
	}
	if labelLine != "foo:" {
		t.Errorf("label line = %q, want unindented %q", labelLine, "foo:")
	}
	if !strings.HasPrefix(instrLine, "\t") {
		t.Errorf("instruction line %q is not tab-indented", instrLine)
	}
}
