package lower_test

import (
	"strings"
	"testing"

	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/lower"
)

func parse(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	tu, err := lower.Lower("t.c", strings.NewReader(src), lower.Options{TargetOS: "linux", Target: "386"})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	return tu
}

func TestLowerFuncDefShape(t *testing.T) {
	tu := parse(t, "int add(int a, int b) {\n  return a + b;\n}\n")
	if len(tu.Decls) != 1 {
		t.Fatalf("got %d top-level decls, want 1", len(tu.Decls))
	}
	fd, ok := tu.Decls[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("decl is %T, want *ast.FuncDef", tu.Decls[0])
	}
	if fd.Name != "add" {
		t.Errorf("Name = %q, want add", fd.Name)
	}
	if len(fd.Params) != 2 || fd.Params[0].Name != "a" || fd.Params[1].Name != "b" {
		t.Errorf("Params = %+v, want [a b]", fd.Params)
	}
	if len(fd.Body.Items) != 1 {
		t.Fatalf("body has %d items, want 1 return statement", len(fd.Body.Items))
	}
	ret, ok := fd.Body.Items[0].(*ast.Return)
	if !ok {
		t.Fatalf("body item is %T, want *ast.Return", fd.Body.Items[0])
	}
	bin, ok := ret.Expr.(*ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Errorf("return expr = %#v, want a + BinaryOp", ret.Expr)
	}
}

func TestLowerIntLiteralSuffixes(t *testing.T) {
	tu := parse(t, "int x = 5u;\n")
	d, ok := tu.Decls[0].(*ast.Decl)
	if !ok {
		t.Fatalf("decl is %T, want *ast.Decl", tu.Decls[0])
	}
	lit, ok := d.Init.(*ast.IntLit)
	if !ok {
		t.Fatalf("init is %T, want *ast.IntLit", d.Init)
	}
	if lit.Value != 5 || !lit.Unsigned {
		t.Errorf("IntLit = %+v, want {Value: 5, Unsigned: true}", lit)
	}
}

func TestLowerStringLiteralDecodesEscapes(t *testing.T) {
	tu := parse(t, "char *s = \"a\\n\";\n")
	d := tu.Decls[0].(*ast.Decl)
	sl, ok := d.Init.(*ast.StrLit)
	if !ok {
		t.Fatalf("init is %T, want *ast.StrLit", d.Init)
	}
	if string(sl.Bytes) != "a\n" {
		t.Errorf("Bytes = %q, want %q", sl.Bytes, "a\n")
	}
}

func TestLowerGotoAndLabel(t *testing.T) {
	tu := parse(t, "int f(void) {\n  goto done;\n  done: return 1;\n}\n")
	fd := tu.Decls[0].(*ast.FuncDef)
	if _, ok := fd.Body.Items[0].(*ast.Goto); !ok {
		t.Fatalf("item 0 is %T, want *ast.Goto", fd.Body.Items[0])
	}
	lbl, ok := fd.Body.Items[1].(*ast.Label)
	if !ok || lbl.Name != "done" {
		t.Fatalf("item 1 = %#v, want Label{Name: done}", fd.Body.Items[1])
	}
}

func TestLowerStructTag(t *testing.T) {
	tu := parse(t, "struct Point { int x; int y; };\n")
	sd, ok := tu.Decls[0].(*ast.StructDecl)
	if !ok {
		t.Fatalf("decl is %T, want *ast.StructDecl", tu.Decls[0])
	}
	if sd.Tag != "Point" || len(sd.Fields) != 2 {
		t.Errorf("StructDecl = %+v, want tag Point with 2 fields", sd)
	}
}
