package emitter

import (
	"strconv"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// lowerUnaryExpr implements spec §4.5.6.
func (e *Emitter) lowerUnaryExpr(n *ast.UnaryExpr) *Operand {
	switch n.Op {
	case ast.UnaryPlus:
		return e.loadIfNeeded(e.lowerExpr(n.Operand))
	case ast.UnaryNeg:
		return e.lowerUnaryNeg(n)
	case ast.UnaryLNot:
		return e.lowerUnaryLNot(n)
	case ast.UnaryNot:
		return e.lowerUnaryNot(n)
	case ast.UnaryAddr:
		return e.lowerAddressOf(n)
	case ast.UnaryDeref:
		return e.lowerDeref(n)
	case ast.UnaryPreInc, ast.UnaryPreDec, ast.UnaryPostInc, ast.UnaryPostDec:
		return e.lowerIncDec(n)
	case ast.UnarySizeof:
		return e.lowerSizeof(n)
	default:
		e.errors.Report("unsupported unary operator")
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}
}

func (e *Emitter) lowerUnaryNeg(n *ast.UnaryExpr) *Operand {
	op := e.promote(e.loadIfNeeded(e.lowerExpr(n.Operand)))
	llt := e.llType(op.Type)
	reg := e.newReg()
	if op.Type != nil && op.Type.IsFloating() {
		e.emit("%s = fsub %s 0.0, %s", reg, llt, op.Name)
	} else {
		e.emit("%s = sub %s 0, %s", reg, llt, op.Name)
	}
	return &Operand{Kind: OKRegister, Name: reg, Type: op.Type}
}

func (e *Emitter) lowerUnaryLNot(n *ast.UnaryExpr) *Operand {
	op := e.loadIfNeeded(e.lowerExpr(n.Operand))
	cmp := e.newReg()
	e.emit("%s = icmp eq %s %s, %s", cmp, e.llType(op.Type), op.Name, e.zeroOrNull(op.Type))
	reg := e.newReg()
	e.emit("%s = zext i1 %s to i32", reg, cmp)
	return &Operand{Kind: OKRegister, Name: reg, Type: types.IntType()}
}

func (e *Emitter) lowerUnaryNot(n *ast.UnaryExpr) *Operand {
	op := e.promote(e.loadIfNeeded(e.lowerExpr(n.Operand)))
	llt := e.llType(op.Type)
	reg := e.newReg()
	e.emit("%s = xor %s %s, -1", reg, llt, op.Name)
	return &Operand{Kind: OKRegister, Name: reg, Type: op.Type}
}

// lowerAddressOf resolves the operand's address without loading it,
// per spec §4.5.6: "& (address-of no-load)".
func (e *Emitter) lowerAddressOf(n *ast.UnaryExpr) *Operand {
	addr := e.lowerExpr(n.Operand)
	if addr == nil || !addr.IsLValue {
		e.errors.Report("cannot take address of a non-lvalue")
		return &Operand{Kind: OKConstant, Name: "0", Type: types.PointerTo(types.VoidType())}
	}
	return &Operand{Kind: addr.Kind, Name: addr.Name, Type: types.PointerTo(addr.Type)}
}

// lowerDeref loads the pointer value and exposes the pointee as a new
// lvalue address, per spec §4.5.6: "* (load through pointer)".
func (e *Emitter) lowerDeref(n *ast.UnaryExpr) *Operand {
	ptr := e.loadIfNeeded(e.lowerExpr(n.Operand))
	return &Operand{Kind: OKRegister, Name: ptr.Name, Type: ptr.Type.Elem, IsLValue: true}
}

// lowerIncDec implements prefix/postfix ++/--, per spec §4.5.6:
// load, add or subtract 1 (or getelementptr 1/-1 for pointers), store,
// and yield the new value for prefix forms or the old value for
// postfix forms.
func (e *Emitter) lowerIncDec(n *ast.UnaryExpr) *Operand {
	addr := e.lowerExpr(n.Operand)
	if addr == nil || !addr.IsLValue {
		e.errors.Report("++/-- target is not an lvalue")
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}
	cur := e.loadIfNeeded(addr)
	dec := n.Op == ast.UnaryPreDec || n.Op == ast.UnaryPostDec

	var newVal string
	if addr.Type.IsPointer() {
		idx := "1"
		if dec {
			idx = "-1"
		}
		elemLL := e.llType(addr.Type.Elem)
		reg := e.newReg()
		e.emit("%s = getelementptr %s, %s* %s, i32 %s", reg, elemLL, elemLL, cur.Name, idx)
		newVal = reg
	} else {
		llt := e.llType(addr.Type)
		instr := "add"
		if dec {
			instr = "sub"
		}
		reg := e.newReg()
		e.emit("%s = %s %s %s, 1", reg, instr, llt, cur.Name)
		newVal = reg
	}

	llt := e.llType(addr.Type)
	e.emit("store %s %s, %s* %s", llt, newVal, llt, addr.Name)

	if n.Op == ast.UnaryPreInc || n.Op == ast.UnaryPreDec {
		return &Operand{Kind: OKRegister, Name: newVal, Type: addr.Type}
	}
	return cur
}

// lowerSizeof yields a constant i32 from the operand's static type,
// never evaluating the operand expression itself.
func (e *Emitter) lowerSizeof(n *ast.UnaryExpr) *Operand {
	t := e.staticType(n.Operand)
	if t == nil {
		t = types.IntType()
	}
	return &Operand{Kind: OKConstant, Name: strconv.Itoa(t.Size()), Type: types.IntType()}
}
