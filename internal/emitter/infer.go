package emitter

import (
	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// staticType resolves the type an expression would lower to, without
// emitting any IR, so callers that must pick a common type across two
// branches before committing to either (the ternary of spec §4.5.10)
// can do so without lowering each branch twice. It mirrors the type
// rules lowerExpr itself applies, including integer promotion, except
// that binary arithmetic on operands of different widths reports the
// wider type where lowerExpr keeps the left operand's type. It never
// reports errors, since the real lowering pass reports anything
// genuinely wrong.
func (e *Emitter) staticType(x ast.Expr) *types.TypeInfo {
	// promoted applies promote's integer-promotion rule to a type.
	promoted := func(t *types.TypeInfo) *types.TypeInfo {
		if t == nil || t.IsPointer() || t.IsFloating() || t.Size() >= 4 {
			return t
		}
		return types.IntType()
	}
	switch n := x.(type) {
	case *ast.ConstExpr:
		return types.IntType()
	case *ast.StringExpr:
		return types.PointerTo(types.CharType())
	case *ast.IdentExpr:
		if sym := e.syms.Lookup(n.Name); sym != nil {
			return sym.Type
		}
		return types.IntType()
	case *ast.BinaryExpr:
		switch n.Op {
		case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpLAnd, ast.OpLOr:
			return types.IntType()
		default:
			l, r := e.staticType(n.Left), e.staticType(n.Right)
			if n.Op == ast.OpSub && l.IsPointer() && r.IsPointer() {
				return types.IntType()
			}
			return promoted(widerType(l, r))
		}
	case *ast.AssignExpr:
		return e.staticType(n.LHS)
	case *ast.UnaryExpr:
		switch n.Op {
		case ast.UnarySizeof, ast.UnaryLNot:
			return types.IntType()
		case ast.UnaryNeg, ast.UnaryNot:
			return promoted(e.staticType(n.Operand))
		case ast.UnaryAddr:
			return types.PointerTo(e.staticType(n.Operand))
		case ast.UnaryDeref:
			t := e.staticType(n.Operand)
			if t != nil && t.Elem != nil {
				return t.Elem
			}
			return types.IntType()
		default:
			return e.staticType(n.Operand)
		}
	case *ast.CastExpr:
		return n.TargetType
	case *ast.CallExpr:
		if sym := e.syms.Lookup(n.Callee); sym != nil && sym.Type != nil && sym.Type.Kind == types.Function {
			return sym.Type.Elem
		}
		return types.IntType()
	case *ast.IndexExpr:
		base := e.staticType(n.Array)
		if base != nil && base.Elem != nil {
			return base.Elem
		}
		return types.IntType()
	case *ast.FieldExpr:
		base := e.staticType(n.Object)
		if n.IsArrow && base != nil {
			base = base.Elem
		}
		if base != nil {
			if m := base.FindMember(n.Field); m != nil {
				return m.Type
			}
		}
		return types.IntType()
	case *ast.TernaryExpr:
		return widerType(e.staticType(n.Then), e.staticType(n.Else))
	default:
		return types.IntType()
	}
}

// widerType returns whichever of a, b has the larger byte size, per
// spec §4.5.10's "common type is the wider of the two... by size"
// rule. A pointer operand always wins over a non-pointer one, since
// the two are only compatible at all when one side is a null-pointer
// constant. Ties go to a; when one type is nil, the other is returned.
func widerType(a, b *types.TypeInfo) *types.TypeInfo {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.IsPointer() != b.IsPointer() {
		if a.IsPointer() {
			return a
		}
		return b
	}
	if b.Size() > a.Size() {
		return b
	}
	return a
}
