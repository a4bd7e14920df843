// Package ast is rrcc's own small AST, produced from modernc.org/cc/v4's
// concrete syntax tree by internal/lower (spec.md §1, "the C preprocessor
// and parser... delegated to a library that yields a standard C AST").
//
// Sema and Codegen never see modernc.org/cc/v4 types; they walk this
// package's node set instead, the same way the teacher's convertFunction
// reduces a verbose cc.FunctionDefinition down to its own small Function
// struct before doing anything else with it.
package ast

import "github.com/rrcc-project/rrcc/internal/ccerror"

// Node is any AST node. Every concrete node type embeds Base, which gives
// it identity (its own address) suitable as an internal/record key, and a
// source Pos for diagnostics.
type Node interface {
	Pos() ccerror.Pos
}

// Base is embedded by every concrete node.
type Base struct {
	P ccerror.Pos
}

func (b Base) Pos() ccerror.Pos { return b.P }

// StorageClass is a declaration's storage-class specifier.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
)

// TranslationUnit is the root node: file-scope declarations and function
// definitions, in source order.
type TranslationUnit struct {
	Base
	Decls []Node
}

// TypeExpr is the syntactic spelling of a type: a name, or a derivation
// (pointer/array/function) built around one. internal/sema resolves a
// TypeExpr into a types.Type by walking it outside-in against the current
// scope.
type TypeExpr interface {
	Node
	typeExpr()
}

// NamedType names a type: a built-in ("int", "unsigned long"), a struct
// tag ("struct Point"), or (if Sema added typedef support is consulted) a
// typedef name.
type NamedType struct {
	Base
	Name     string
	IsStruct bool // true for "struct Tag"
}

func (*NamedType) typeExpr() {}

// PointerType is `*To` in declarator-order-independent form.
type PointerType struct {
	Base
	To TypeExpr
}

func (*PointerType) typeExpr() {}

// ArrayType is `Of[Dim]`. Dim is nil for an incomplete array (`Of[]`,
// legal only as the outermost type of an initialized declaration).
type ArrayType struct {
	Base
	Of  TypeExpr
	Dim Node // a constant expression, or nil
}

func (*ArrayType) typeExpr() {}

// FuncType is a function type written out in full, used for function
// pointer declarations/casts; function *definitions* use FuncDef's own
// Params/Ellipsis instead of wrapping a FuncType.
type FuncType struct {
	Base
	Ret      TypeExpr
	Params   []ParamDecl
	Ellipsis bool
}

func (*FuncType) typeExpr() {}

// ParamDecl is one function parameter's name and declared type.
type ParamDecl struct {
	Base
	Name     string
	TypeExpr TypeExpr
}

func (p ParamDecl) Pos() ccerror.Pos { return p.Base.P }

// FieldDecl is one struct member's name and declared type.
type FieldDecl struct {
	Base
	Name     string
	TypeExpr TypeExpr
}

// StructDecl introduces or forward-declares a struct tag. Fields is nil
// for a forward declaration (`struct Foo;`), completing an already-seen
// incomplete struct when Fields is non-nil.
type StructDecl struct {
	Base
	Tag    string
	Fields []FieldDecl // nil if this is only a forward declaration
}

// Decl is a variable or extern declaration with an optional initializer.
type Decl struct {
	Base
	Name     string
	TypeExpr TypeExpr
	Storage  StorageClass
	Init     Node // InitList, any expression, or nil
}

// FuncDef is a function definition (declaration + body).
type FuncDef struct {
	Base
	Name        string
	RetTypeExpr TypeExpr
	Params      []ParamDecl
	Ellipsis    bool
	Storage     StorageClass
	Body        *CompoundStmt
}

// --- Statements ---

// CompoundStmt is `{ ... }`; Items interleave declarations and statements
// in C99 fashion.
type CompoundStmt struct {
	Base
	Items []Node
}

// ExprStmt is a bare expression used as a statement, e.g. `f();` or `i++;`.
type ExprStmt struct {
	Base
	Expr Node
}

// If is `if (Cond) Then [else Else]`.
type If struct {
	Base
	Cond Node
	Then Node
	Else Node // nil if no else-branch
}

// While is `while (Cond) Body`.
type While struct {
	Base
	Cond Node
	Body Node
}

// DoWhile is `do Body while (Cond);`.
type DoWhile struct {
	Base
	Body Node
	Cond Node
}

// For is `for (Init; Cond; Step) Body`; any of Init/Cond/Step may be nil.
type For struct {
	Base
	Init Node
	Cond Node
	Step Node
	Body Node
}

// Switch is `switch (Tag) Body`.
type Switch struct {
	Base
	Tag  Node
	Body Node
}

// Case is `case Value: Stmt`.
type Case struct {
	Base
	Value Node
	Stmt  Node
}

// Default is `default: Stmt`.
type Default struct {
	Base
	Stmt Node
}

// Break is a `break;` statement.
type Break struct{ Base }

// Continue is a `continue;` statement.
type Continue struct{ Base }

// Label is `Name: Stmt`.
type Label struct {
	Base
	Name string
	Stmt Node
}

// Goto is `goto Name;`.
type Goto struct {
	Base
	Name string
}

// Return is `return [Expr];`.
type Return struct {
	Base
	Expr Node // nil for a void return
}

// Pragma is `#pragma ASM "<line>"`, injecting verbatim assembly including
// label lines ending in `:` and empty lines (spec.md §6, §9).
type Pragma struct {
	Base
	Line string
}

// --- Expressions ---

// Ident is a bare identifier reference.
type Ident struct {
	Base
	Name string
}

// IntLit is an integer literal; Unsigned/LongSuffix record the `u`/`l`
// suffixes so Sema can pick the literal's type per the usual C rules.
type IntLit struct {
	Base
	Value      int64
	Unsigned   bool
	LongSuffix bool
}

// CharLit is a character literal, already decoded (escapes resolved) by
// internal/lower.
type CharLit struct {
	Base
	Value int64
}

// StrLit is a string literal's decoded byte content, without a terminating
// NUL (internal/lower does not append one).
type StrLit struct {
	Base
	Bytes []byte
}

// BinaryOp covers + - * / % & | ^ << >> && || == != < > <= >= and the
// comparison pairs Sema rewrites away (spec.md §4.4.4).
type BinaryOp struct {
	Base
	Op   string
	X, Y Node
}

// UnaryOp covers prefix & * - ~ ! ++ --.
type UnaryOp struct {
	Base
	Op string
	X  Node
}

// PostOp covers postfix ++ --.
type PostOp struct {
	Base
	Op string
	X  Node
}

// Assign covers plain `=` (Op == "") and compound assignment (Op == "+=",
// etc.).
type Assign struct {
	Base
	Op       string
	Lhs, Rhs Node
}

// Cast is `(TypeExpr)X`.
type Cast struct {
	Base
	TypeExpr TypeExpr
	X        Node
}

// Call is `Fn(Args...)`.
type Call struct {
	Base
	Fn   Node
	Args []Node
}

// Index is `X[I]`.
type Index struct {
	Base
	X, I Node
}

// Member is `X.Field` (Arrow == false) or `X->Field` (Arrow == true).
type Member struct {
	Base
	X     Node
	Field string
	Arrow bool
}

// Ternary is `Cond ? Then : Else`.
type Ternary struct {
	Base
	Cond, Then, Else Node
}

// ExprPair sequences two expressions for effect then value: First is
// evaluated and discarded, then Second is evaluated and becomes the
// result. It is never produced by the parser; Sema synthesizes it when
// lowering a construct that must compute some address or value exactly
// once but use it twice (spec.md §4.4.4's temp-pointer form of ++/-- and
// op= on an unstable lvalue).
type ExprPair struct {
	Base
	First, Second Node
}

// SizeofExpr is `sizeof X`; its operand must not be evaluated for side
// effects (spec.md §6).
type SizeofExpr struct {
	Base
	X Node
}

// SizeofType is `sizeof(TypeExpr)`.
type SizeofType struct {
	Base
	TypeExpr TypeExpr
}

// InitList is `{ Items... }` in an initializer position.
type InitList struct {
	Base
	Items []Node
}
