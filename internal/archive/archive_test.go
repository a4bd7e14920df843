package archive_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rrcc-project/rrcc/internal/archive"
)

func TestWriteExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.o")
	bPath := filepath.Join(dir, "sub", "b.o")
	if err := os.MkdirAll(filepath.Dir(bPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(aPath, []byte("AAAA"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bPath, []byte("BBBB"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := archive.Write(&buf, []string{aPath, bPath}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	extracted, err := archive.Extract(&buf, outDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(extracted) != 2 {
		t.Fatalf("got %d extracted files, want 2", len(extracted))
	}

	// Entries are named by basename only (spec.md §6), so both a.o and
	// the nested sub/b.o land directly under outDir as a.o/b.o.
	for i, name := range []string{"a.o", "b.o"} {
		want := filepath.Join(outDir, name)
		if extracted[i] != want {
			t.Errorf("extracted[%d] = %q, want %q", i, extracted[i], want)
		}
	}
	gotA, err := os.ReadFile(filepath.Join(outDir, "a.o"))
	if err != nil {
		t.Fatal(err)
	}
	if string(gotA) != "AAAA" {
		t.Errorf("a.o content = %q, want %q", gotA, "AAAA")
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../escape.o",
		Typeflag: tar.TypeReg,
		Size:     1,
		Mode:     0o644,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte("X")); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := archive.Extract(&buf, t.TempDir()); err == nil {
		t.Fatal("Extract did not reject a path-traversal entry")
	}
}

func TestExtractSkipsNonRegularEntries(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "a_dir",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := archive.Extract(&buf, t.TempDir())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d extracted entries for a directory-only archive, want 0", len(out))
	}
}
