package driver_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rrcc-project/rrcc/internal/driver"
)

// TestDriverCompileSimpleFunction exercises the full Lower -> Sema ->
// Codegen pipeline end to end through Driver.Run, the integration path
// spec.md §6 describes (internal/codegen's own tests call the same
// pipeline directly, not through Driver.Run or a file on disk).
func TestDriverCompileSimpleFunction(t *testing.T) {
	dir := t.TempDir()
	cPath := filepath.Join(dir, "add.c")
	src := "int add(int a, int b) {\n  return a + b;\n}\n"
	if err := os.WriteFile(cPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := driver.New(driver.Options{
		Sysroot: dir,
		Action:  driver.ActionCompile,
		Infiles: []string{cPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "add.s"))
	if err != nil {
		t.Fatalf("reading compiled output: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "add:") {
		t.Errorf("output does not define an add: label:\n%s", text)
	}
	if !strings.Contains(text, "ret") {
		t.Errorf("output does not contain a ret instruction:\n%s", text)
	}
}

func TestDriverRejectsUnknownSuffix(t *testing.T) {
	dir := t.TempDir()
	_, err := driver.New(driver.Options{
		Sysroot: dir,
		Infiles: []string{"weird.txt"},
	})
	if err == nil {
		t.Fatal("New did not reject an unrecognized input suffix")
	}
}

func TestDriverCompileRejectsMultipleInfilesWithOutput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	b := filepath.Join(dir, "b.c")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("int f(void) { return 0; }\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	d, err := driver.New(driver.Options{
		Sysroot: dir,
		Action:  driver.ActionCompile,
		Output:  filepath.Join(dir, "out.s"),
		Infiles: []string{a, b},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err == nil {
		t.Fatal("Run did not reject -o with multiple --compile infiles")
	}
}
