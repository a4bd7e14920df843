package sema

import (
	"github.com/rrcc-project/rrcc/internal/ast"
	"github.com/rrcc-project/rrcc/internal/ccerror"
	"github.com/rrcc-project/rrcc/internal/types"
	"github.com/rrcc-project/rrcc/internal/values"
)

// memsetType/memcpyType are the standard C signatures spec.md §4.5.8
// requires Codegen's on-demand helpers to match: `void *memset(void*, int,
// size_t)` and `void *memcpy(void*, const void*, size_t)` (const is not
// modeled, so both pointer parameters are plain void*).
func memsetType() *types.Function {
	voidPtr := &types.Pointer{Base: types.VoidType}
	return &types.Function{Ret: voidPtr, Args: []types.Type{voidPtr, types.SignedInt, types.ULong}}
}

func memcpyType() *types.Function {
	voidPtr := &types.Pointer{Base: types.VoidType}
	return &types.Function{Ret: voidPtr, Args: []types.Type{voidPtr, voidPtr, types.ULong}}
}

// buildBuiltinCall constructs a synthetic call to one of Codegen's
// __builtin_-prefixed helpers (spec.md §4.5.8), binding the callee's Value
// directly so visitCall never has to look it up in scope: these names are
// never declared by the source program.
func (s *Sema) buildBuiltinCall(pos ccerror.Pos, name string, ft *types.Function, args ...ast.Node) *ast.Call {
	fnIdent := &ast.Ident{Base: ast.Base{P: pos}, Name: name}
	s.u.Store.SetValue(fnIdent, &values.Function{FuncName: name, Ty: ft})
	return &ast.Call{Base: ast.Base{P: pos}, Fn: fnIdent, Args: args}
}

func (s *Sema) buildMemsetZero(target ast.Node, t types.Type, pos ccerror.Pos) ast.Node {
	addr := &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "&", X: target}
	zero := &ast.IntLit{Base: ast.Base{P: pos}, Value: 0}
	size := &ast.IntLit{Base: ast.Base{P: pos}, Value: int64(t.Size())}
	call := s.buildBuiltinCall(pos, "memset", memsetType(), addr, zero, size)
	return &ast.ExprStmt{Base: ast.Base{P: pos}, Expr: call}
}

func (s *Sema) buildMemcpy(dst, src ast.Node, size int, pos ccerror.Pos) ast.Node {
	dstAddr := &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "&", X: dst}
	srcAddr := &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "&", X: src}
	n := &ast.IntLit{Base: ast.Base{P: pos}, Value: int64(size)}
	return s.buildBuiltinCall(pos, "memcpy", memcpyType(), dstAddr, srcAddr, n)
}

func isAggregate(t types.Type) bool {
	switch t.(type) {
	case *types.Array, *types.Struct:
		return true
	default:
		return false
	}
}
