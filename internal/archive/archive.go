// Package archive implements the driver's .a container format (spec.md
// §6): an ordinary tar stream, one entry per .o file, named by its
// basename.
//
// Grounded on original_source/rrisc32/tools/compile/main.py's archive()/
// extract() helpers: `tarfile.open(outfile, "w|")` (a write-streaming tar,
// no seeking) and `tf.extractall(outdir, filter="data")` (regular files
// only, no absolute paths, no path traversal out of outdir). Go's
// archive/tar.Writer is already streaming; Extract below reimplements
// tarfile's "data" filter's two load-bearing restrictions by hand, since
// archive/tar has no built-in filter argument.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Write streams infiles into out as an ordinary tar archive, one entry
// per file, named by its basename (spec.md §6).
func Write(out io.Writer, infiles []string) error {
	tw := tar.NewWriter(out)
	for _, path := range infiles {
		if err := addFile(tw, path); err != nil {
			return err
		}
	}
	return tw.Close()
}

func addFile(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

// Extract reads an ordinary tar archive and writes each regular-file
// entry into destDir, returning the extracted paths in archive order.
func Extract(in io.Reader, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	tr := tar.NewReader(in)
	var out []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return nil, fmt.Errorf("archive: entry %q escapes destination directory", hdr.Name)
		}
		dest := filepath.Join(destDir, name)
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		f.Close()
		out = append(out, dest)
	}
	return out, nil
}
