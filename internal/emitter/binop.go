package emitter

import (
	"fmt"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// promote implements the integer-promotion rule of spec §4.5.4: any
// integral operand smaller than 4 bytes is sign-extended to i32
// before taking part in arithmetic, bitwise, or comparison ops.
// Pointers and floating types pass through unchanged.
func (e *Emitter) promote(op *Operand) *Operand {
	if op == nil || op.Type == nil {
		return op
	}
	if op.Type.IsPointer() || op.Type.IsFloating() {
		return op
	}
	if op.Type.Size() >= 4 {
		return op
	}
	return e.castTo(op, types.IntType())
}

// lowerBinaryExpr implements spec §4.5.5.
func (e *Emitter) lowerBinaryExpr(n *ast.BinaryExpr) *Operand {
	if n.Op == ast.OpLAnd || n.Op == ast.OpLOr {
		return e.lowerShortCircuit(n)
	}

	l := e.loadIfNeeded(e.lowerExpr(n.Left))
	r := e.loadIfNeeded(e.lowerExpr(n.Right))
	return e.applyBinaryOp(n.Op, l, r)
}

// applyBinaryOp implements the arithmetic/bitwise/comparison table of
// spec §4.5.5, including the pointer-arithmetic special cases
// (pointer +/- integer via getelementptr, pointer - pointer via
// ptrtoint/sub/sdiv).
func (e *Emitter) applyBinaryOp(op ast.BinaryOp, l, r *Operand) *Operand {
	if l.Type != nil && l.Type.IsPointer() && r.Type != nil && !r.Type.IsPointer() && (op == ast.OpAdd || op == ast.OpSub) {
		return e.pointerArith(op, l, r)
	}
	if l.Type != nil && l.Type.IsPointer() && r.Type != nil && r.Type.IsPointer() && op == ast.OpSub {
		return e.pointerDiff(l, r)
	}

	l = e.promote(l)
	r = e.promote(r)
	llt := e.llType(l.Type)
	floating := l.Type != nil && l.Type.IsFloating()

	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		instr := arithInstr(op, floating)
		reg := e.newReg()
		e.emit("%s = %s %s %s, %s", reg, instr, llt, l.Name, r.Name)
		return &Operand{Kind: OKRegister, Name: reg, Type: l.Type}
	case ast.OpAnd, ast.OpOr, ast.OpXor, ast.OpShl, ast.OpShr:
		instr := bitInstr(op)
		reg := e.newReg()
		e.emit("%s = %s %s %s, %s", reg, instr, llt, l.Name, r.Name)
		return &Operand{Kind: OKRegister, Name: reg, Type: l.Type}
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return e.compare(op, l, r, llt, floating)
	default:
		e.errors.Report("unsupported binary operator %s", op)
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}
}

func arithInstr(op ast.BinaryOp, floating bool) string {
	if floating {
		switch op {
		case ast.OpAdd:
			return "fadd"
		case ast.OpSub:
			return "fsub"
		case ast.OpMul:
			return "fmul"
		case ast.OpDiv:
			return "fdiv"
		case ast.OpMod:
			return "frem"
		}
	}
	switch op {
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "sdiv"
	case ast.OpMod:
		return "srem"
	}
	return "add"
}

func bitInstr(op ast.BinaryOp) string {
	switch op {
	case ast.OpAnd:
		return "and"
	case ast.OpOr:
		return "or"
	case ast.OpXor:
		return "xor"
	case ast.OpShl:
		return "shl"
	case ast.OpShr:
		return "ashr"
	}
	return "and"
}

func (e *Emitter) compare(op ast.BinaryOp, l, r *Operand, llt string, floating bool) *Operand {
	var cond string
	if floating {
		switch op {
		case ast.OpEq:
			cond = "oeq"
		case ast.OpNe:
			cond = "one"
		case ast.OpLt:
			cond = "olt"
		case ast.OpGt:
			cond = "ogt"
		case ast.OpLe:
			cond = "ole"
		case ast.OpGe:
			cond = "oge"
		}
		cmp := e.newReg()
		e.emit("%s = fcmp %s %s %s, %s", cmp, cond, llt, l.Name, r.Name)
		zext := e.newReg()
		e.emit("%s = zext i1 %s to i32", zext, cmp)
		return &Operand{Kind: OKRegister, Name: zext, Type: types.IntType()}
	}
	switch op {
	case ast.OpEq:
		cond = "eq"
	case ast.OpNe:
		cond = "ne"
	case ast.OpLt:
		cond = "slt"
	case ast.OpGt:
		cond = "sgt"
	case ast.OpLe:
		cond = "sle"
	case ast.OpGe:
		cond = "sge"
	}
	cmp := e.newReg()
	e.emit("%s = icmp %s %s %s, %s", cmp, cond, llt, l.Name, r.Name)
	zext := e.newReg()
	e.emit("%s = zext i1 %s to i32", zext, cmp)
	return &Operand{Kind: OKRegister, Name: zext, Type: types.IntType()}
}

func (e *Emitter) pointerArith(op ast.BinaryOp, l, r *Operand) *Operand {
	elemLL := e.llType(l.Type.Elem)
	idx := r.Name
	if op == ast.OpSub {
		neg := e.newReg()
		e.emit("%s = sub i32 0, %s", neg, r.Name)
		idx = neg
	}
	reg := e.newReg()
	e.emit("%s = getelementptr %s, %s* %s, i32 %s", reg, elemLL, elemLL, l.Name, idx)
	return &Operand{Kind: OKRegister, Name: reg, Type: l.Type}
}

func (e *Emitter) pointerDiff(l, r *Operand) *Operand {
	llt := e.llType(l.Type)
	li := e.newReg()
	e.emit("%s = ptrtoint %s %s to i64", li, llt, l.Name)
	ri := e.newReg()
	e.emit("%s = ptrtoint %s %s to i64", ri, llt, r.Name)
	diff := e.newReg()
	e.emit("%s = sub i64 %s, %s", diff, li, ri)
	elemSize := l.Type.Elem.Size()
	if elemSize == 0 {
		elemSize = 1
	}
	div := e.newReg()
	e.emit("%s = sdiv i64 %s, %d", div, diff, elemSize)
	trunc := e.newReg()
	e.emit("%s = trunc i64 %s to i32", trunc, div)
	return &Operand{Kind: OKRegister, Name: trunc, Type: types.IntType()}
}

// lowerShortCircuit implements && and || with a scratch alloca and
// three labels, per spec §4.5.5: only the left operand is evaluated
// unconditionally, the right operand is evaluated in a guarded block.
func (e *Emitter) lowerShortCircuit(n *ast.BinaryExpr) *Operand {
	scratch := fmt.Sprintf("sc.%d", e.newRegNum())
	e.emit("%%%s = alloca i8", scratch)

	rhsL := e.newLabel("sc_rhs")
	shortL := e.newLabel("sc_short")
	endL := e.newLabel("sc_end")

	lhs := e.loadIfNeeded(e.lowerExpr(n.Left))
	lcmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", lcmp, e.llType(lhs.Type), lhs.Name, e.zeroOrNull(lhs.Type))

	if n.Op == ast.OpLAnd {
		e.emit("br i1 %s, label %%%s, label %%%s", lcmp, rhsL, shortL)
	} else {
		e.emit("br i1 %s, label %%%s, label %%%s", lcmp, shortL, rhsL)
	}

	e.emitLabel(shortL)
	shortVal := "0"
	if n.Op == ast.OpLOr {
		shortVal = "1"
	}
	e.emit("store i8 %s, i8* %%%s", shortVal, scratch)
	e.emit("br label %%%s", endL)

	e.emitLabel(rhsL)
	rhs := e.loadIfNeeded(e.lowerExpr(n.Right))
	rcmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", rcmp, e.llType(rhs.Type), rhs.Name, e.zeroOrNull(rhs.Type))
	rext := e.newReg()
	e.emit("%s = zext i1 %s to i8", rext, rcmp)
	e.emit("store i8 %s, i8* %%%s", rext, scratch)
	e.emit("br label %%%s", endL)

	e.emitLabel(endL)
	loaded := e.newReg()
	e.emit("%s = load i8, i8* %%%s", loaded, scratch)
	result := e.newReg()
	e.emit("%s = zext i8 %s to i32", result, loaded)
	return &Operand{Kind: OKRegister, Name: result, Type: types.IntType()}
}

// lowerAssignExpr implements spec §4.5.5's assignment handling: resolve
// the LHS address without loading, cast the RHS, store, and yield the
// stored value (for compound forms, load-apply-store-yield-new).
func (e *Emitter) lowerAssignExpr(n *ast.AssignExpr) *Operand {
	addr := e.lowerExpr(n.LHS)
	if addr == nil || !addr.IsLValue {
		e.errors.Report("assignment target is not an lvalue")
		return &Operand{Kind: OKConstant, Name: "0", Type: types.IntType()}
	}

	if n.Op == ast.Assign {
		rhs := e.loadIfNeeded(e.lowerExpr(n.RHS))
		casted := e.castTo(rhs, addr.Type)
		llt := e.llType(addr.Type)
		e.emit("store %s %s, %s* %s", llt, casted.Name, llt, addr.Name)
		return casted
	}

	cur := e.loadIfNeeded(addr)
	rhs := e.loadIfNeeded(e.lowerExpr(n.RHS))
	result := e.applyBinaryOp(n.Op.BinaryOp(), cur, rhs)
	casted := e.castTo(result, addr.Type)
	llt := e.llType(addr.Type)
	e.emit("store %s %s, %s* %s", llt, casted.Name, llt, addr.Name)
	return casted
}
