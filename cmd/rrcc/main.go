// Command rrcc is the driver CLI of spec.md §6.
//
// Grounded on the teacher's own main.go: a package-level `command =
// &cobra.Command{...}`, flags registered in init() via
// command.PersistentFlags(), a Run func that reads them back with
// cmd.PersistentFlags().Get*, and a main() that just calls
// command.Execute() and prints+exits non-zero on error. rrcc keeps that
// exact shape; only the flag set and the work done in Run changed, from
// goat's single-file SIMD-intrinsics translation to rrcc's
// compile/assemble/archive/link pipeline (internal/driver).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/driver"
)

var command = &cobra.Command{
	Use:  "rrcc [flags] INFILES...",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sysroot, _ := cmd.PersistentFlags().GetString("sysroot")
		nostdinc, _ := cmd.PersistentFlags().GetBool("nostdinc")
		includes, _ := cmd.PersistentFlags().GetStringSlice("include")
		compileOnly, _ := cmd.PersistentFlags().GetBool("compile")
		assembleOnly, _ := cmd.PersistentFlags().GetBool("assemble")
		archiveOnly, _ := cmd.PersistentFlags().GetBool("archive")
		output, _ := cmd.PersistentFlags().GetString("output")
		target, _ := cmd.PersistentFlags().GetString("target")
		targetOS, _ := cmd.PersistentFlags().GetString("target-os")
		cpuProfile, _ := cmd.PersistentFlags().GetString("cpuprofile")

		action := driver.ActionLink
		switch {
		case compileOnly:
			action = driver.ActionCompile
		case assembleOnly:
			action = driver.ActionAssemble
		case archiveOnly:
			action = driver.ActionArchive
		}

		d, err := driver.New(driver.Options{
			Sysroot:      sysroot,
			NoStdInc:     nostdinc,
			IncludePaths: includes,
			Action:       action,
			Output:       output,
			Infiles:      args,
			Target:       target,
			TargetOS:     targetOS,
			CPUProfile:   cpuProfile,
		})
		if err != nil {
			fail(err)
		}
		if err := d.Run(); err != nil {
			fail(err)
		}
	},
}

// fail prints a CCError's full context trail if that's what failed, or
// else the bare error, then exits non-zero — the same
// fmt.Fprintln(os.Stderr, err); os.Exit(1) idiom the teacher's main.go
// uses at every one of its own failure points.
func fail(err error) {
	if ce, ok := err.(*ccerror.CCError); ok {
		fmt.Fprintln(os.Stderr, ce.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func init() {
	command.PersistentFlags().String("sysroot", "", "sysroot directory (default: the directory containing this binary's parent)")
	command.PersistentFlags().Bool("nostdinc", false, "suppress the sysroot's default include path")
	command.PersistentFlags().StringSliceP("include", "I", nil, "additional include path for the C parser")
	command.PersistentFlags().Bool("compile", false, "compile only; do not assemble or link")
	command.PersistentFlags().Bool("assemble", false, "compile and assemble, but do not link")
	command.PersistentFlags().Bool("archive", false, "create a static library (.a) rather than an executable")
	command.PersistentFlags().StringP("output", "o", "", "output file")
	command.PersistentFlags().String("target", "386", "parser target architecture (rrcc's own ABI is always 32-bit; this only selects modernc.org/cc/v4's predefined-macro profile)")
	command.PersistentFlags().String("target-os", "linux", "parser target OS, for the same predefined-macro profile")
	command.PersistentFlags().String("cpuprofile", "", "write a CPU profile of the driver itself to this file")
}

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
