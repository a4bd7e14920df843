package asmwriter

import (
	"fmt"
	"strings"
)

// Writer is the compilation context's single AsmWriter: it owns all four
// sections' fragment buffers, the monotonic label counter, and the string
// literal pool. It does not escape the compilation (spec.md §5).
type Writer struct {
	sections  [numSections][]*fragment
	cur       [numSections]*fragment
	active    Section
	labelSeq  int
	strLabels map[string]string // byte content -> .LS_n label
	strOrder  []string          // content, in first-seen order
	format    Formatter
}

func New() *Writer {
	w := &Writer{
		strLabels: make(map[string]string),
		format:    NewDefaultFormatter(),
	}
	for s := Section(0); s < numSections; s++ {
		w.ownFragmentOf(s)
	}
	w.active = Text
	return w
}

// SetFormatter overrides the default trim/collapse-blank-lines pass.
func (w *Writer) SetFormatter(f Formatter) { w.format = f }

// SetSection switches which section subsequent Emit calls target.
func (w *Writer) SetSection(s Section) { w.active = s }

func (w *Writer) ownFragmentOf(s Section) {
	f := &fragment{}
	w.sections[s] = append(w.sections[s], f)
	w.cur[s] = f
}

// OwnFragment seals the active section's current fragment and opens a new
// one, so the definition that follows (a function body, a variable
// definition) can be independently dropped by the linker if unreferenced.
func (w *Writer) OwnFragment() {
	w.ownFragmentOf(w.active)
}

// Emit appends one already-formatted instruction/directive line, indented
// with a single tab.
func (w *Writer) Emit(line string) {
	w.cur[w.active].emit("\t" + line)
}

// Emitf is Emit with fmt.Sprintf formatting.
func (w *Writer) Emitf(format string, args ...any) {
	w.Emit(fmt.Sprintf(format, args...))
}

// EmitLines appends several lines at once, in order.
func (w *Writer) EmitLines(lines []string) {
	for _, l := range lines {
		w.Emit(l)
	}
}

// EmitRaw appends a line with no added indentation, for verbatim content
// like #pragma ASM injections that may themselves contain label lines.
func (w *Writer) EmitRaw(line string) {
	w.cur[w.active].emit(line)
}

// EmitLabel appends "name:" unindented.
func (w *Writer) EmitLabel(name string) {
	w.cur[w.active].emit(name + ":")
}

// EmitEmptyLine appends a blank line.
func (w *Writer) EmitEmptyLine() {
	w.cur[w.active].emit("")
}

// MintLabel allocates a new function-local label with the given prefix,
// globally disambiguated by a monotonically increasing counter (spec.md
// §4.3, "Label pools").
func (w *Writer) MintLabel(prefix string) string {
	w.labelSeq++
	return fmt.Sprintf("%s.%d", prefix, w.labelSeq)
}

// StaticLabel mints a static variable's label, embedding the enclosing
// function name and an ordinal.
func (w *Writer) StaticLabel(funcName, varName string) string {
	w.labelSeq++
	return fmt.Sprintf("%s.%s.%d", funcName, varName, w.labelSeq)
}

// InternString registers content in the rodata string pool, returning its
// label. Equal byte content shares one label (spec.md §8, Universal
// invariant 7); distinct content always gets a distinct one.
func (w *Writer) InternString(content []byte) string {
	key := string(content)
	if label, ok := w.strLabels[key]; ok {
		return label
	}
	label := fmt.Sprintf(".LS_%d", len(w.strOrder))
	w.strLabels[key] = label
	w.strOrder = append(w.strOrder, key)
	return label
}

// Render serializes all four sections, in Text/Rodata/Data/Bss order, and
// writes any pooled string literals into .rodata, then runs the active
// Formatter over the whole text.
func (w *Writer) Render() (string, error) {
	var b strings.Builder
	order := []Section{Text, Rodata, Data, Bss}
	for _, s := range order {
		frags := w.sections[s]
		empty := true
		for _, f := range frags {
			if len(f.lines) > 0 {
				empty = false
				break
			}
		}
		if s == Rodata && len(w.strOrder) > 0 {
			empty = false
		}
		if empty {
			continue
		}
		b.WriteString(s.directive())
		b.WriteByte('\n')
		for _, f := range frags {
			f.render(&b)
		}
		if s == Rodata {
			for _, content := range w.strOrder {
				b.WriteString(w.strLabels[content])
				b.WriteString(":\n\t.asciz ")
				b.WriteString(quoteAsciz(content))
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	if w.format == nil {
		return b.String(), nil
	}
	return w.format.Format(b.String())
}

// QuoteAsciz is quoteAsciz exported for callers outside this package that
// need to embed a string literal's escaped form directly, such as Sema
// writing a char-array initializer inline inside a larger .data blob.
func QuoteAsciz(content []byte) string { return quoteAsciz(string(content)) }

// quoteAsciz renders byte content the way .asciz expects: the original
// source form, with the standard C escapes, and its own trailing NUL
// supplied by the directive. Any 0 byte in content is written as \0 and no
// NUL is appended here (internal/sema's newStrLiteral drops one trailing
// NUL when it builds a StrLiteral).
func quoteAsciz(content string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
