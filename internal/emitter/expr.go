package emitter

import (
	"strconv"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// lowerExpr is the top-level dispatch of spec §4.5.4: every expression
// variant lowers to an Operand describing how to reference its value.
func (e *Emitter) lowerExpr(x ast.Expr) *Operand {
	e.log.Debugf("lowering expression %T", x)
	switch n := x.(type) {
	case *ast.ConstExpr:
		return &Operand{Kind: OKConstant, Name: strconv.FormatInt(n.Value, 10), Type: types.IntType()}
	case *ast.StringExpr:
		label := e.internString(n.Value)
		t := types.ArrayOf(types.CharType(), len(n.Value)+1)
		return &Operand{Kind: OKGlobal, Name: "@" + label, Type: t, IsLValue: true}
	case *ast.IdentExpr:
		return e.lowerIdent(n)
	case *ast.BinaryExpr:
		return e.lowerBinaryExpr(n)
	case *ast.AssignExpr:
		return e.lowerAssignExpr(n)
	case *ast.UnaryExpr:
		return e.lowerUnaryExpr(n)
	case *ast.CastExpr:
		operand := e.loadIfNeeded(e.lowerExpr(n.Operand))
		return e.castTo(operand, n.TargetType)
	case *ast.CallExpr:
		return e.lowerCallExpr(n)
	case *ast.IndexExpr:
		return e.lowerIndexExpr(n)
	case *ast.FieldExpr:
		return e.lowerFieldExpr(n)
	case *ast.TernaryExpr:
		return e.lowerTernaryExpr(n)
	default:
		e.errors.Report("unsupported expression kind %T", n)
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}
}

func (e *Emitter) lowerIdent(n *ast.IdentExpr) *Operand {
	sym := e.syms.Lookup(n.Name)
	if sym == nil {
		e.errors.Report("undefined identifier %q", n.Name)
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}
	if sym.IsEnumConst {
		return &Operand{Kind: OKConstant, Name: strconv.FormatInt(sym.EnumValue, 10), Type: sym.Type}
	}
	if sym.Type != nil && sym.Type.Kind == types.Function {
		return &Operand{Kind: OKFunction, Name: "@" + sym.Name, Type: sym.Type}
	}
	if sym.IsGlobal {
		return &Operand{Kind: OKGlobal, Name: "@" + sym.Name, Type: sym.Type, IsLValue: true}
	}
	return &Operand{Kind: OKRegister, Name: "%" + sym.Name, Type: sym.Type, IsLValue: true}
}

// loadIfNeeded implements the shared value-discipline helper of spec
// §4.5.4: an array lvalue decays via a two-index getelementptr instead
// of loading, anything else that is an lvalue is loaded through its
// address, and an rvalue passes through unchanged.
func (e *Emitter) loadIfNeeded(op *Operand) *Operand {
	if op == nil || !op.IsLValue {
		return op
	}
	llt := e.llType(op.Type)
	if op.Type != nil && op.Type.Kind == types.Array {
		ptr := e.newReg()
		e.emit("%s = getelementptr %s, %s* %s, i32 0, i32 0", ptr, llt, llt, op.Name)
		return &Operand{Kind: OKRegister, Name: ptr, Type: types.PointerTo(op.Type.Elem)}
	}
	reg := e.newReg()
	e.emit("%s = load %s, %s* %s", reg, llt, llt, op.Name)
	return &Operand{Kind: OKRegister, Name: reg, Type: op.Type}
}

// castTo implements spec §4.5.7's cast table.
func (e *Emitter) castTo(op *Operand, target *types.TypeInfo) *Operand {
	if op == nil || target == nil {
		return op
	}
	if target.Kind == types.Void {
		return &Operand{Kind: OKConstant, Name: "", Type: target}
	}
	srcLL := e.llType(op.Type)
	dstLL := e.llType(target)
	if srcLL == dstLL {
		return &Operand{Kind: op.Kind, Name: op.Name, Type: target}
	}

	srcPtr := op.Type != nil && op.Type.IsPointer()
	dstPtr := target.IsPointer()

	var instr string
	switch {
	case srcPtr && dstPtr:
		instr = "bitcast"
	case !srcPtr && dstPtr:
		instr = "inttoptr"
	case srcPtr && !dstPtr:
		instr = "ptrtoint"
	case op.Type.Size() < target.Size():
		instr = "sext"
	case op.Type.Size() > target.Size():
		instr = "trunc"
	default:
		instr = "bitcast"
	}

	reg := e.newReg()
	e.emit("%s = %s %s %s to %s", reg, instr, srcLL, op.Name, dstLL)
	return &Operand{Kind: OKRegister, Name: reg, Type: target}
}
