package emitter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// emitFunction is pass 4 of spec §4.5.1, implementing §4.5.2: clear
// locals, redirect output to transient buffers, emit parameter
// prologue (alloca + store), lower the body, append a safety
// terminator, then splice the alloca buffer ahead of the body buffer
// into the function's real text.
func (e *Emitter) emitFunction(fd *ast.FuncDecl) {
	e.syms.ClearLocals()
	e.curRetType = fd.ReturnType
	e.userLabels = make(map[string]string)

	bodyBuf := new(bytes.Buffer)
	allocaBuf := new(bytes.Buffer)
	e.body = bodyBuf
	e.alloca = allocaBuf

	var paramDecls []string
	for i, p := range fd.Params {
		regName := fmt.Sprintf("p%d", i)
		n := e.newRegNum()
		localName := fmt.Sprintf("%s.%d", p.Name, n)
		e.syms.AddLocal(&symtab.Symbol{
			Name:         localName,
			OriginalName: p.Name,
			Type:         p.Type,
			IsParameter:  true,
		})
		llt := e.llType(p.Type)
		e.emit("%%%s = alloca %s", localName, llt)
		e.emit("store %s %%%s, %s* %%%s", llt, regName, llt, localName)
		paramDecls = append(paramDecls, fmt.Sprintf("%s %%%s", llt, regName))
	}
	if fd.Variadic {
		paramDecls = append(paramDecls, "...")
	}

	if fd.Body != nil {
		e.lowerStmt(fd.Body)
	}

	if fd.ReturnType.Kind == types.Void {
		e.emit("ret void")
	} else {
		e.emit("ret %s %s", e.llType(fd.ReturnType), e.zeroOrNull(fd.ReturnType))
	}

	e.emitRaw("define %s @%s(%s) {\n", e.llType(fd.ReturnType), fd.Name, strings.Join(paramDecls, ", "))
	e.out.Write(allocaBuf.Bytes())
	e.out.Write(bodyBuf.Bytes())
	e.emitRaw("}\n\n")

	e.body = nil
	e.alloca = nil

	if sym := e.syms.LookupGlobal(fd.Name); sym != nil {
		sym.IsEmitted = true
	}
}
