package emitter

import (
	"fmt"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// lowerStmt lowers one statement per spec §4.5.3.
func (e *Emitter) lowerStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	e.log.Debugf("lowering statement %T", s)
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, item := range n.Items {
			e.lowerStmt(item)
		}
	case *ast.DeclStmt:
		e.lowerLocalDecl(n.Decl)
	case *ast.ExprStmt:
		if n.X != nil {
			e.lowerExpr(n.X)
		}
	case *ast.IfStmt:
		e.lowerIf(n)
	case *ast.WhileStmt:
		e.lowerWhile(n)
	case *ast.DoWhileStmt:
		e.lowerDoWhile(n)
	case *ast.ForStmt:
		e.lowerFor(n)
	case *ast.SwitchStmt:
		e.lowerSwitch(n)
	case *ast.CaseStmt:
		e.emit("br label %%%s", n.IRLabel)
		e.emitLabel(n.IRLabel)
	case *ast.DefaultStmt:
		e.emit("br label %%%s", n.IRLabel)
		e.emitLabel(n.IRLabel)
	case *ast.BreakStmt:
		if e.breakLabel != "" {
			e.emit("br label %%%s", e.breakLabel)
		}
	case *ast.ContinueStmt:
		if e.continueLabel != "" {
			e.emit("br label %%%s", e.continueLabel)
		}
	case *ast.GotoStmt:
		label := e.userLabel(n.Label)
		e.emit("br label %%%s", label)
	case *ast.LabelStmt:
		label := e.userLabel(n.Label)
		e.emit("br label %%%s", label)
		e.emitLabel(label)
	case *ast.ReturnStmt:
		e.lowerReturn(n)
	default:
		e.errors.Report("unsupported statement kind %T", n)
	}
}

// userLabel maps a source label name to its synthesized IR label,
// per spec §4.5.3's Goto/Label bullet.
func (e *Emitter) userLabel(name string) string {
	if l, ok := e.userLabels[name]; ok {
		return l
	}
	l := "user_label_" + name
	e.userLabels[name] = l
	return l
}

func (e *Emitter) lowerReturn(n *ast.ReturnStmt) {
	if n.Value == nil {
		e.emit("ret void")
		return
	}
	op := e.loadIfNeeded(e.lowerExpr(n.Value))
	casted := e.castTo(op, e.curRetType)
	e.emit("ret %s %s", e.llType(e.curRetType), casted.Name)
}

func (e *Emitter) lowerIf(s *ast.IfStmt) {
	thenL := e.newLabel("if_then")
	endL := e.newLabel("if_end")
	elseL := endL
	if s.Else != nil {
		elseL = e.newLabel("if_else")
	}

	cond := e.loadIfNeeded(e.lowerExpr(s.Cond))
	cmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", cmp, e.llType(cond.Type), cond.Name, e.zeroOrNull(cond.Type))
	e.emit("br i1 %s, label %%%s, label %%%s", cmp, thenL, elseL)

	e.emitLabel(thenL)
	e.lowerStmt(s.Then)
	e.emit("br label %%%s", endL)

	if s.Else != nil {
		e.emitLabel(elseL)
		e.lowerStmt(s.Else)
		e.emit("br label %%%s", endL)
	}
	e.emitLabel(endL)
}

func (e *Emitter) lowerWhile(s *ast.WhileStmt) {
	condL := e.newLabel("while_cond")
	bodyL := e.newLabel("while_body")
	endL := e.newLabel("while_end")

	savedBreak, savedCont := e.breakLabel, e.continueLabel
	e.breakLabel, e.continueLabel = endL, condL

	e.emit("br label %%%s", condL)
	e.emitLabel(condL)
	cond := e.loadIfNeeded(e.lowerExpr(s.Cond))
	cmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", cmp, e.llType(cond.Type), cond.Name, e.zeroOrNull(cond.Type))
	e.emit("br i1 %s, label %%%s, label %%%s", cmp, bodyL, endL)

	e.emitLabel(bodyL)
	e.lowerStmt(s.Body)
	e.emit("br label %%%s", condL)

	e.emitLabel(endL)
	e.breakLabel, e.continueLabel = savedBreak, savedCont
}

func (e *Emitter) lowerDoWhile(s *ast.DoWhileStmt) {
	bodyL := e.newLabel("do_body")
	condL := e.newLabel("do_cond")
	endL := e.newLabel("do_end")

	savedBreak, savedCont := e.breakLabel, e.continueLabel
	e.breakLabel, e.continueLabel = endL, condL

	e.emit("br label %%%s", bodyL)
	e.emitLabel(bodyL)
	e.lowerStmt(s.Body)
	e.emit("br label %%%s", condL)

	e.emitLabel(condL)
	cond := e.loadIfNeeded(e.lowerExpr(s.Cond))
	cmp := e.newReg()
	e.emit("%s = icmp ne %s %s, %s", cmp, e.llType(cond.Type), cond.Name, e.zeroOrNull(cond.Type))
	e.emit("br i1 %s, label %%%s, label %%%s", cmp, bodyL, endL)

	e.emitLabel(endL)
	e.breakLabel, e.continueLabel = savedBreak, savedCont
}

func (e *Emitter) lowerFor(s *ast.ForStmt) {
	condL := e.newLabel("for_cond")
	bodyL := e.newLabel("for_body")
	incrL := e.newLabel("for_incr")
	endL := e.newLabel("for_end")

	savedBreak, savedCont := e.breakLabel, e.continueLabel
	e.breakLabel, e.continueLabel = endL, incrL

	if s.Init != nil {
		e.lowerStmt(s.Init)
	}
	e.emit("br label %%%s", condL)
	e.emitLabel(condL)
	if s.Cond != nil {
		cond := e.loadIfNeeded(e.lowerExpr(s.Cond))
		cmp := e.newReg()
		e.emit("%s = icmp ne %s %s, %s", cmp, e.llType(cond.Type), cond.Name, e.zeroOrNull(cond.Type))
		e.emit("br i1 %s, label %%%s, label %%%s", cmp, bodyL, endL)
	} else {
		e.emit("br label %%%s", bodyL)
	}

	e.emitLabel(bodyL)
	e.lowerStmt(s.Body)
	e.emit("br label %%%s", incrL)

	e.emitLabel(incrL)
	if s.Post != nil {
		e.lowerExpr(s.Post)
	}
	e.emit("br label %%%s", condL)

	e.emitLabel(endL)
	e.breakLabel, e.continueLabel = savedBreak, savedCont
}

// lowerSwitch implements the icmp+branch chain lowering of spec
// §4.5.3 and §9's recorded Open Question decision (no native LLVM
// switch instruction).
func (e *Emitter) lowerSwitch(s *ast.SwitchStmt) {
	endL := e.newLabel("switch_end")
	savedBreak := e.breakLabel
	e.breakLabel = endL

	var cases []*ast.CaseStmt
	var def *ast.DefaultStmt
	collectSwitchLabels(s.Body, &cases, &def)

	defaultL := endL
	if def != nil {
		def.IRLabel = e.newLabel("switch_default")
		defaultL = def.IRLabel
	}
	for _, c := range cases {
		c.IRLabel = e.newLabel("switch_case")
	}

	tag := e.loadIfNeeded(e.lowerExpr(s.Tag))
	llt := e.llType(tag.Type)

	for i, c := range cases {
		val := ast.EvaluateConstant(c.Value)
		cmp := e.newReg()
		e.emit("%s = icmp eq %s %s, %d", cmp, llt, tag.Name, val)
		next := defaultL
		if i+1 < len(cases) {
			next = e.newLabel("switch_check")
		}
		e.emit("br i1 %s, label %%%s, label %%%s", cmp, c.IRLabel, next)
		if i+1 < len(cases) {
			e.emitLabel(next)
		}
	}
	if len(cases) == 0 {
		e.emit("br label %%%s", defaultL)
	}

	e.lowerStmt(s.Body)
	e.emit("br label %%%s", endL)
	e.emitLabel(endL)

	e.breakLabel = savedBreak
}

// collectSwitchLabels recursively walks s collecting CaseStmt and
// DefaultStmt nodes in source order, the way the teacher's codegen
// walks a body to find jump targets before emitting the dispatch.
func collectSwitchLabels(s ast.Stmt, cases *[]*ast.CaseStmt, def **ast.DefaultStmt) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, item := range n.Items {
			collectSwitchLabels(item, cases, def)
		}
	case *ast.CaseStmt:
		*cases = append(*cases, n)
	case *ast.DefaultStmt:
		*def = n
	case *ast.IfStmt:
		collectSwitchLabels(n.Then, cases, def)
		collectSwitchLabels(n.Else, cases, def)
	}
}

// lowerLocalDecl lowers a local variable declaration per spec §4.5.3:
// create and register a local symbol, uniquify its name, emit
// alloca, then store the initializer (with a cast if the types
// differ).
func (e *Emitter) lowerLocalDecl(vd *ast.VarDecl) {
	t := vd.VarType
	isArray := len(vd.ArrayDims) > 0 || vd.IsEmpty
	if isArray {
		count := 0
		if len(vd.ArrayDims) > 0 {
			count = int(ast.EvaluateConstant(vd.ArrayDims[0]))
		} else if vd.IsEmpty {
			count = e.inferArrayLenFromInit(vd)
		}
		t = types.ArrayOf(vd.VarType, count)
	}

	n := e.newRegNum()
	localName := fmt.Sprintf("%s.%d", vd.Name, n)
	e.syms.AddLocal(&symtab.Symbol{
		Name:         localName,
		OriginalName: vd.Name,
		Type:         t,
		IsArray:      isArray,
	})

	llt := e.llType(t)
	e.emit("%%%s = alloca %s", localName, llt)

	switch {
	case t.Kind == types.Array && vd.Init != nil:
		s, ok := vd.Init.(*ast.StringExpr)
		if !ok {
			e.errors.Report("array %q initialized with a non-aggregate, non-string expression", vd.Name)
			return
		}
		e.lowerArrayStringInit(localName, t, s)
	case t.Kind == types.Array && vd.InitList != nil:
		e.lowerArrayListInit(localName, t, vd.InitList)
	case vd.Init != nil:
		op := e.loadIfNeeded(e.lowerExpr(vd.Init))
		casted := e.castTo(op, t)
		e.emit("store %s %s, %s* %%%s", llt, casted.Name, llt, localName)
	}
}

func (e *Emitter) lowerArrayStringInit(localName string, t *types.TypeInfo, s *ast.StringExpr) {
	llt := e.llType(t)
	data := append([]byte(s.Value), 0)
	for i, b := range data {
		ptr := e.newReg()
		e.emit("%s = getelementptr %s, %s* %%%s, i32 0, i32 %d", ptr, llt, llt, localName, i)
		e.emit("store i8 %d, i8* %s", int(int8(b)), ptr)
	}
}

func (e *Emitter) lowerArrayListInit(localName string, t *types.TypeInfo, elems []ast.Expr) {
	llt := e.llType(t)
	elemT := e.llType(t.Elem)
	for i, el := range elems {
		op := e.loadIfNeeded(e.lowerExpr(el))
		casted := e.castTo(op, t.Elem)
		ptr := e.newReg()
		e.emit("%s = getelementptr %s, %s* %%%s, i32 0, i32 %d", ptr, llt, llt, localName, i)
		e.emit("store %s %s, %s* %s", elemT, casted.Name, elemT, ptr)
	}
}
