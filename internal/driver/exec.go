package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/cpu"
)

// assemble shells out to the sysroot's assembler, exactly as main.py's
// AssembleAction.run() invokes `os.path.join(binDir, "rrisc32-as")`.
// Overridable via Options.AS for cross-toolchain testing the way the
// teacher's compile() lets clang itself be overridden.
func (d *Driver) assemble(in, out string) error {
	exe := d.opts.AS
	if exe == "" {
		exe = filepath.Join(d.binDir, "rrisc32-as")
	}
	args := d.assembleArgs(in, out)
	return runChecked(exe, args...)
}

// assembleArgs puts an explicit no-vector-extension flag ahead of the other
// arguments when the host
// RISC-V core lacks the V extension, so the sysroot assembler does not
// need to probe host capabilities itself. Grounded on the teacher's own
// `cpu.RISCV64.HasV` feature probe (main.go, gating a vector-typedef
// prologue); rrcc never emits vector instructions, so this only prevents
// the assembler from defaulting to a march string this host can't run.
func (d *Driver) assembleArgs(in, out string) []string {
	args := []string{"-o", out, in}
	if !cpu.RISCV64.HasV {
		args = append([]string{"-mno-vector"}, args...)
	}
	return args
}

// link shells out to the sysroot's linker, exactly as main.py's
// LinkAction.run() invokes `os.path.join(binDir, "rrisc32-link")`.
func (d *Driver) link(infiles []string, out string) error {
	exe := d.opts.LD
	if exe == "" {
		exe = filepath.Join(d.binDir, "rrisc32-link")
	}
	args := append([]string{"-o", out}, infiles...)
	return runChecked(exe, args...)
}

// runChecked runs a subprocess and surfaces a non-zero exit the same way
// Python's subprocess.run(..., check=True) raises (spec.md §5, "a
// non-zero exit from the assembler/linker aborts the current action
// without writing its output").
func runChecked(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("driver: %s: %w", name, err)
	}
	return nil
}

// tempFile creates an empty file under the sysroot's tmp directory, named
// after base's own basename, and returns its path (the file exists when it
// returns), matching main.py's `mktemp(suffix, prefix)`.
func (d *Driver) tempFile(suffix, base string) (string, error) {
	if err := os.MkdirAll(d.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("driver: %w", err)
	}
	f, err := os.CreateTemp(d.tmpDir, filepath.Base(base)+"-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("driver: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// mkdtemp allocates a fresh extraction directory under the sysroot's tmp
// directory, matching main.py's `mkdtemp(suffix, prefix)`.
func (d *Driver) mkdtemp(suffix, base string) (string, error) {
	if err := os.MkdirAll(d.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("driver: %w", err)
	}
	return os.MkdirTemp(d.tmpDir, filepath.Base(base)+"-*"+suffix)
}
