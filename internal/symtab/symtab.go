// Package symtab implements the two-tier (global + local) symbol
// table of spec §4.4: three append-only global lists (globals, tags,
// all-structs) plus one clearable per-function locals list.
package symtab

import "github.com/gmofishsauce/cc2llvm/internal/types"

// Symbol is one entry in the symbol table, per spec §3.
type Symbol struct {
	Name         string
	OriginalName string
	Type         *types.TypeInfo
	Offset       int // struct member offset
	Index        int // struct member zero-based index, for GEP emission
	IsGlobal     bool
	IsParameter  bool
	IsArray      bool
	IsEnumConst  bool
	IsEmitted    bool
	EnumValue    int64
	Next         *Symbol
}

// Table holds the symbol table for one compilation.
type Table struct {
	globals    *Symbol // append-only, most-recently-added first
	tags       map[string]*types.TypeInfo
	allStructs []*types.TypeInfo // emission order: append-only
	locals     *Symbol
}

// New creates an empty Table with built-ins registered.
func New() *Table {
	t := &Table{tags: make(map[string]*types.TypeInfo)}
	t.registerBuiltins()
	return t
}

// registerBuiltins pre-populates names the emitter treats as known
// types, per spec §4.4.
func (t *Table) registerBuiltins() {
	t.AddGlobal(&Symbol{
		Name:         "__builtin_va_list",
		OriginalName: "__builtin_va_list",
		Type:         types.PointerTo(types.CharType()),
	})
}

// AddGlobal sets IsGlobal and prepends sym to the global list.
func (t *Table) AddGlobal(sym *Symbol) {
	sym.IsGlobal = true
	sym.Next = t.globals
	t.globals = sym
}

// AddLocal prepends sym to the local list, deduplicating on name so a
// local shadowing a parameter does not re-add the same symbol.
func (t *Table) AddLocal(sym *Symbol) {
	for s := t.locals; s != nil; s = s.Next {
		if s.Name == sym.Name {
			return
		}
	}
	sym.Next = t.locals
	t.locals = sym
}

// Lookup resolves a name: locals first (matching Name or
// OriginalName), then globals.
func (t *Table) Lookup(name string) *Symbol {
	for s := t.locals; s != nil; s = s.Next {
		if s.Name == name || s.OriginalName == name {
			return s
		}
	}
	for s := t.globals; s != nil; s = s.Next {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// LookupGlobal looks up a name in the global scope only.
func (t *Table) LookupGlobal(name string) *Symbol {
	for s := t.globals; s != nil; s = s.Next {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Globals returns the append-only global list, oldest last (since the
// list is built by prepend, mirroring the teacher's symtab).
func (t *Table) Globals() *Symbol { return t.globals }

// ClearLocals clears the local symbol list at the start of a function
// definition; globals persist.
func (t *Table) ClearLocals() {
	t.locals = nil
}

// TagAdd registers a struct/union/enum tag in the tag namespace.
func (t *Table) TagAdd(tag string, ti *types.TypeInfo) {
	t.tags[tag] = ti
}

// TagLookup resolves a tag name to its type descriptor.
func (t *Table) TagLookup(tag string) *types.TypeInfo {
	return t.tags[tag]
}

// AddStruct appends ti to the all-structs list used by the emitter to
// emit type declarations before any function body.
func (t *Table) AddStruct(ti *types.TypeInfo) {
	t.allStructs = append(t.allStructs, ti)
}

// AllStructs returns the all-structs list in source order.
func (t *Table) AllStructs() []*types.TypeInfo {
	return t.allStructs
}
