package codegen

import "github.com/rrcc-project/rrcc/internal/asmwriter"

// calleeLabel maps a Sema-facing function name to the symbol Codegen
// actually calls. "memset"/"memcpy" are internal/sema's synthetic names for
// spec.md §4.5.8's on-demand builtins (internal/sema/builtins.go never
// declares them in scope, so a user function can never collide with one);
// every other name is an ordinary user-defined function, called directly.
func (g *Codegen) calleeLabel(name string) string {
	switch name {
	case "memset":
		g.usesMemset = true
		return "__builtin_memset"
	case "memcpy":
		g.usesMemcpy = true
		return "__builtin_memcpy"
	default:
		return name
	}
}

// emitBuiltins materialises whichever on-demand helpers the function bodies
// just emitted actually referenced (spec.md §4.5.8). Both are simple
// byte-at-a-time loops: this compiler never assumes an alignment-friendly
// word-at-a-time copy/fill is safe, since the pointers it's called with can
// be arbitrarily unaligned char*.
//
//	void *__builtin_memset(void *dst, int c, unsigned long n) {
//	    char *p = dst;
//	    while (n--) *p++ = (char)c;
//	    return dst;
//	}
func (g *Codegen) emitBuiltins() {
	if g.usesMemset {
		g.emitMemsetBody()
	}
	if g.usesMemcpy {
		g.emitMemcpyBody()
	}
}

// emitMemsetBody implements __builtin_memset(a0=dst, a1=c, a2=n) -> a0.
// a3 walks the destination, a4 holds the remaining count.
func (g *Codegen) emitMemsetBody() {
	g.w.SetSection(asmwriter.Text)
	g.w.OwnFragment()
	g.w.Emitf(".align 2")
	g.w.EmitLabel("__builtin_memset")
	g.w.Emitf(".global $__builtin_memset")
	g.w.Emitf(".type $__builtin_memset, \"function\"")

	top := g.w.MintLabel("L.memset")
	end := g.w.MintLabel("L.memset")

	g.w.Emit("mv a3, a0")
	g.w.Emit("mv a4, a2")
	g.w.EmitLabel(top)
	g.w.Emitf("beqz a4, $%s", end)
	g.w.Emit("sb a1, a3, 0")
	g.w.Emit("addi a3, a3, 1")
	g.w.Emit("addi a4, a4, -1")
	g.w.Emitf("j $%s", top)
	g.w.EmitLabel(end)
	g.w.Emit("ret")
	g.w.Emitf(".size $__builtin_memset, -($. $__builtin_memset)")
}

// emitMemcpyBody implements __builtin_memcpy(a0=dst, a1=src, a2=n) -> a0.
// a3/a4 walk destination/source, a5 holds the remaining count.
func (g *Codegen) emitMemcpyBody() {
	g.w.SetSection(asmwriter.Text)
	g.w.OwnFragment()
	g.w.Emitf(".align 2")
	g.w.EmitLabel("__builtin_memcpy")
	g.w.Emitf(".global $__builtin_memcpy")
	g.w.Emitf(".type $__builtin_memcpy, \"function\"")

	top := g.w.MintLabel("L.memcpy")
	end := g.w.MintLabel("L.memcpy")

	g.w.Emit("mv a3, a0")
	g.w.Emit("mv a4, a1")
	g.w.Emit("mv a5, a2")
	g.w.EmitLabel(top)
	g.w.Emitf("beqz a5, $%s", end)
	g.w.Emit("lbu t0, a4, 0")
	g.w.Emit("sb t0, a3, 0")
	g.w.Emit("addi a3, a3, 1")
	g.w.Emit("addi a4, a4, 1")
	g.w.Emit("addi a5, a5, -1")
	g.w.Emitf("j $%s", top)
	g.w.EmitLabel(end)
	g.w.Emit("ret")
	g.w.Emitf(".size $__builtin_memcpy, -($. $__builtin_memcpy)")
}
