package emitter

import "strings"

// emitStructTypes is pass 3 of spec §4.5.1: for each type on the
// all-structs list, emit "%struct.NAME = type { T1, T2, ... }".
func (e *Emitter) emitStructTypes() {
	for _, ti := range e.syms.AllStructs() {
		var fields []string
		for m := ti.Members; m != nil; m = m.Next {
			fields = append(fields, e.llType(m.Type))
		}
		e.emitRaw("%%struct.%s = type { %s }\n", ti.Tag, strings.Join(fields, ", "))
	}
	e.emitRaw("\n")
}
