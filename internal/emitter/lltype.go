package emitter

import (
	"fmt"

	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// llType renders t as an LLVM IR type string. Bool and char both
// render as i8 to respect the one-byte storage size fixed in spec §3
// (LLVM's i1 is a one-bit, not one-byte, type).
func (e *Emitter) llType(t *types.TypeInfo) string {
	if t == nil {
		return "i32"
	}
	if t.IsPointer() {
		return e.llType(t.Elem) + "*"
	}
	switch t.Kind {
	case types.Void:
		return "void"
	case types.Bool, types.Char:
		return "i8"
	case types.Short:
		return "i16"
	case types.Int, types.Signed, types.Unsigned:
		return "i32"
	case types.Long:
		return "i64"
	case types.Float:
		return "float"
	case types.Double:
		return "double"
	case types.Enum:
		return "i32"
	case types.Array:
		return fmt.Sprintf("[%d x %s]", t.ArrayCount, e.llType(t.Elem))
	case types.Struct, types.Union:
		return "%struct." + t.Tag
	case types.Function:
		return e.llType(t.Elem)
	default:
		return "i32"
	}
}

// zeroOrNull renders the zero/null literal for t, used by the
// function-emission safety terminator and by zero-initialized
// globals.
func (e *Emitter) zeroOrNull(t *types.TypeInfo) string {
	if t.IsPointer() {
		return "null"
	}
	if t.IsFloating() {
		return "0.0"
	}
	return "0"
}
