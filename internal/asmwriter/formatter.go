package asmwriter

import "strings"

// Formatter runs a final normalization pass over a fully-buffered section's
// text before it is written out. The teacher's code generators pipe their
// generated Go assembly through github.com/klauspost/asmfmt before writing
// it (riscv64_parser.go's generateGoAssembly). asmfmt's Format function is
// a lexer/printer for Go's own plan9-derived assembler dialect; it rejects
// input written in rrcc's target syntax (its own directives, %hi/%lo
// relocations, none of which are valid Go assembly tokens), so importing
// it here would not format anything, only fail on every call. AsmWriter
// keeps the same "run a formatter over the buffered fragment before
// writing" seam as a pluggable hook instead, with a hand-written default
// implementation doing the same whitespace normalization asmfmt performs
// on its own dialect (see DESIGN.md for the full justification).
type Formatter interface {
	Format(text string) (string, error)
}

// defaultFormatter trims trailing whitespace from every line and collapses
// runs of more than one blank line into one. It does not re-indent: each
// line keeps the indentation it was emitted with.
type defaultFormatter struct{}

func NewDefaultFormatter() Formatter { return defaultFormatter{} }

func (defaultFormatter) Format(text string) (string, error) {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		trimmed := strings.TrimRight(l, " \t")
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n"), nil
}
