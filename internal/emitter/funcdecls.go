package emitter

import (
	"strings"

	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// emitFuncDeclarations is pass 6 of spec §4.5.1: for each unemitted
// global with function type that is not an llvm.* intrinsic, emit an
// external "declare" line reflecting its signature and variadic flag.
func (e *Emitter) emitFuncDeclarations() {
	for s := e.syms.Globals(); s != nil; s = s.Next {
		if s.IsEmitted || s.Type == nil || s.Type.Kind != types.Function {
			continue
		}
		if strings.HasPrefix(s.Name, "llvm.") {
			continue
		}
		s.IsEmitted = true

		var params []string
		for m := s.Type.Params; m != nil; m = m.Next {
			params = append(params, e.llType(m.Type))
		}
		if s.Type.Variadic {
			params = append(params, "...")
		}
		e.emitRaw("declare %s @%s(%s)\n", e.llType(s.Type.Elem), s.Name, strings.Join(params, ", "))
	}
	e.emitRaw("\n")
}
