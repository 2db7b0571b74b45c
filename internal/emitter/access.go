package emitter

import (
	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// lowerIndexExpr implements spec §4.5.9's subscript lowering: a true
// array lvalue indexes with a two-index getelementptr off its own
// address; a pointer value is loaded first and indexes with a single
// index off the loaded pointer.
func (e *Emitter) lowerIndexExpr(n *ast.IndexExpr) *Operand {
	base := e.lowerExpr(n.Array)
	idx := e.loadIfNeeded(e.lowerExpr(n.Index))

	if base.Type != nil && base.Type.Kind == types.Array {
		llt := e.llType(base.Type)
		reg := e.newReg()
		e.emit("%s = getelementptr %s, %s* %s, i32 0, i32 %s", reg, llt, llt, base.Name, idx.Name)
		return &Operand{Kind: OKRegister, Name: reg, Type: base.Type.Elem, IsLValue: true}
	}

	ptr := e.loadIfNeeded(base)
	elemLL := e.llType(ptr.Type.Elem)
	reg := e.newReg()
	e.emit("%s = getelementptr %s, %s* %s, i32 %s", reg, elemLL, elemLL, ptr.Name, idx.Name)
	return &Operand{Kind: OKRegister, Name: reg, Type: ptr.Type.Elem, IsLValue: true}
}

// lowerFieldExpr implements spec §4.5.9's `.`/`->` member access: the
// struct address (direct for `.`, loaded-through-pointer for `->`)
// plus the member's zero-based index drive a getelementptr.
func (e *Emitter) lowerFieldExpr(n *ast.FieldExpr) *Operand {
	var structAddr *Operand
	var structType *types.TypeInfo

	if n.IsArrow {
		ptr := e.loadIfNeeded(e.lowerExpr(n.Object))
		structAddr = ptr
		structType = ptr.Type.Elem
	} else {
		structAddr = e.lowerExpr(n.Object)
		structType = structAddr.Type
	}

	member := structType.FindMember(n.Field)
	if member == nil {
		e.errors.Report("no member %q in %s", n.Field, structType.String())
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}

	llt := e.llType(structType)
	reg := e.newReg()
	e.emit("%s = getelementptr %s, %s* %s, i32 0, i32 %d", reg, llt, llt, structAddr.Name, member.Index)
	return &Operand{Kind: OKRegister, Name: reg, Type: member.Type, IsLValue: true}
}

// lowerTernaryExpr implements spec §4.5.10: three labels and a phi
// over the two branch values, cast to a common type ahead of the
// branch so each incoming phi value is produced in its own block.
func (e *Emitter) lowerTernaryExpr(n *ast.TernaryExpr) *Operand {
	common := widerType(e.staticType(n.Then), e.staticType(n.Else))
	if common == nil {
		common = types.IntType()
	}

	cond := e.loadIfNeeded(e.lowerExpr(n.Cond))
	thenL := e.newLabel("tern_then")
	elseL := e.newLabel("tern_else")
	endL := e.newLabel("tern_end")

	cmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", cmp, e.llType(cond.Type), cond.Name, e.zeroOrNull(cond.Type))
	e.emit("br i1 %s, label %%%s, label %%%s", cmp, thenL, elseL)

	e.emitLabel(thenL)
	thenVal := e.castTo(e.loadIfNeeded(e.lowerExpr(n.Then)), common)
	e.emit("br label %%%s", endL)

	e.emitLabel(elseL)
	elseVal := e.castTo(e.loadIfNeeded(e.lowerExpr(n.Else)), common)
	e.emit("br label %%%s", endL)

	e.emitLabel(endL)
	llt := e.llType(common)
	result := e.newReg()
	e.emit("%s = phi %s [ %s, %%%s ], [ %s, %%%s ]", result, llt, thenVal.Name, thenL, elseVal.Name, elseL)
	return &Operand{Kind: OKRegister, Name: result, Type: common}
}
