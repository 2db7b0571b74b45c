package emitter

import (
	"strconv"
	"strings"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// emitGlobalVars is pass 5 of spec §4.5.1: for each unemitted global
// symbol, emit an extern declaration, a typedef skip, a
// zero-initialized aggregate, a zero/null scalar, or the declaration's
// initializer. Initializers are emitted in three forms only: an
// integer constant, a string literal for an array, and a brace list
// (integer-constant elements as written, any other element as 0). Any
// other initializer expression, including a string literal for a
// pointer, is not emitted, and the global gets its zero/null value.
func (e *Emitter) emitGlobalVars(prog *ast.Program) {
	for _, d := range prog.Decls {
		vd, ok := d.(*ast.VarDecl)
		if !ok {
			continue
		}
		sym := e.syms.LookupGlobal(vd.Name)
		if sym == nil || sym.IsEmitted {
			continue
		}
		sym.IsEmitted = true
		e.emitOneGlobal(vd, sym.Type)
	}
	e.emitRaw("\n")
}

func (e *Emitter) emitOneGlobal(vd *ast.VarDecl, t *types.TypeInfo) {
	llt := e.llType(t)

	if vd.Storage == types.StorageExtern && vd.Init == nil && vd.InitList == nil {
		e.emitRaw("@%s = external global %s\n", vd.Name, llt)
		return
	}

	if s, ok := vd.Init.(*ast.StringExpr); ok && t.Kind == types.Array {
		e.emitRaw("@%s = global %s c\"%s\"\n", vd.Name, llt, escapeLLVMString(s.Value))
		return
	}

	if vd.InitList != nil {
		var parts []string
		for _, el := range vd.InitList {
			c, ok := el.(*ast.ConstExpr)
			elemType := t.Elem
			if !ok {
				parts = append(parts, e.llType(elemType)+" 0")
				continue
			}
			parts = append(parts, e.llType(elemType)+" "+strconv.FormatInt(c.Value, 10))
		}
		e.emitRaw("@%s = global %s [%s]\n", vd.Name, llt, strings.Join(parts, ", "))
		return
	}

	if c, ok := vd.Init.(*ast.ConstExpr); ok {
		e.emitRaw("@%s = global %s %s\n", vd.Name, llt, strconv.FormatInt(c.Value, 10))
		return
	}

	if t.Kind == types.Array || t.Kind == types.Struct || t.Kind == types.Union {
		e.emitRaw("@%s = global %s zeroinitializer\n", vd.Name, llt)
		return
	}

	e.emitRaw("@%s = global %s %s\n", vd.Name, llt, e.zeroOrNull(t))
}
