// Package types implements the C-subset type system: construction,
// duplication, sizing, alignment, and compatibility of type
// descriptors, including struct/union layout.
package types

import "fmt"

// Kind is the base-kind tag of a TypeInfo.
type Kind int

const (
	Invalid Kind = iota
	Void
	Bool
	Char
	Short
	Int
	Long
	Float
	Double
	Signed
	Unsigned
	Struct
	Union
	Enum
	Pointer
	Array
	Function
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Function:
		return "function"
	default:
		return "invalid"
	}
}

// Qualifier is a bitmask of C type qualifiers.
type Qualifier int

const (
	QualNone     Qualifier = 0
	QualConst    Qualifier = 1 << 0
	QualVolatile Qualifier = 1 << 1
)

// StorageClass is the declared storage class of a declaration.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageAuto
	StorageRegister
	StorageStatic
	StorageExtern
	StorageTypedef
)

// Member is a struct/union field or function parameter, carried as a
// linked list the way the teacher's Symbol.Next chains locals.
type Member struct {
	Name   string
	Type   *TypeInfo
	Offset int
	Index  int
	Next   *Member
}

// TypeInfo describes one C type. Immutable once built except during
// struct-layout finalization (FinishLayout).
type TypeInfo struct {
	Kind           Kind
	Qualifiers     Qualifier
	Storage        StorageClass
	PointerLevel   int
	ArrayCount     int // 0 when the declarator used []
	Elem           *TypeInfo // element-or-return type
	Params         *Member   // parameter list (function types)
	Variadic       bool
	Tag            string // struct/union/enum tag, synthesized anon.N when anonymous
	Members        *Member
	size           int
	align          int
	layoutFinished bool
}

var anonCounter int

// NextAnonTag returns a fresh synthesized tag of the form "anon.N".
func NextAnonTag() string {
	anonCounter++
	return fmt.Sprintf("anon.%d", anonCounter)
}

// --- Constructors -----------------------------------------------------

func basic(k Kind, size, align int) *TypeInfo {
	return &TypeInfo{Kind: k, size: size, align: align}
}

func VoidType() *TypeInfo     { return basic(Void, 0, 1) }
func BoolType() *TypeInfo     { return basic(Bool, 1, 1) }
func CharType() *TypeInfo     { return basic(Char, 1, 1) }
func ShortType() *TypeInfo    { return basic(Short, 2, 2) }
func IntType() *TypeInfo      { return basic(Int, 4, 4) }
func LongType() *TypeInfo     { return basic(Long, 8, 8) }
func FloatType() *TypeInfo    { return basic(Float, 4, 4) }
func DoubleType() *TypeInfo   { return basic(Double, 8, 8) }

// PointerTo clones base and increments its pointer level, per §4.2:
// "pointers (clone + increment pointer_level)".
func PointerTo(base *TypeInfo) *TypeInfo {
	clone := base.Duplicate()
	clone.Kind = Pointer
	clone.Elem = base
	clone.PointerLevel = base.PointerLevel + 1
	clone.size = 8
	clone.align = 8
	return clone
}

// ArrayOf creates an array type with the element type in the
// "return-type slot" (Elem), per the AST invariant in spec §3.
func ArrayOf(elem *TypeInfo, count int) *TypeInfo {
	t := &TypeInfo{Kind: Array, Elem: elem, ArrayCount: count}
	t.size = elem.Size() * count
	t.align = elem.Alignment()
	return t
}

// FuncType creates a function type descriptor.
func FuncType(ret *TypeInfo, params *Member, variadic bool) *TypeInfo {
	return &TypeInfo{Kind: Function, Elem: ret, Params: params, Variadic: variadic, size: 0, align: 1}
}

// StructType creates a new, not-yet-laid-out struct type. tag is
// synthesized by the caller (NextAnonTag) when the declaration was
// anonymous.
func StructType(tag string) *TypeInfo {
	return &TypeInfo{Kind: Struct, Tag: tag, align: 1}
}

// UnionType creates a new, not-yet-laid-out union type.
func UnionType(tag string) *TypeInfo {
	return &TypeInfo{Kind: Union, Tag: tag, align: 1}
}

// EnumType creates an enum type; enums are always 4 bytes per §3.
func EnumType(tag string) *TypeInfo {
	return &TypeInfo{Kind: Enum, Tag: tag, size: 4, align: 4}
}

// Duplicate makes a shallow copy. TypeInfo has no next-link of its
// own, so nothing is cleared; Members and Params are shared with t.
func (t *TypeInfo) Duplicate() *TypeInfo {
	cp := *t
	return &cp
}

// AddMember appends a member in source order (struct/union fields or
// function parameters), mirroring the teacher's append-only symbol
// lists.
func (t *TypeInfo) AddMember(name string, mt *TypeInfo) *Member {
	m := &Member{Name: name, Type: mt}
	if t.Members == nil {
		t.Members = m
		return m
	}
	cur := t.Members
	for cur.Next != nil {
		cur = cur.Next
	}
	cur.Next = m
	return m
}

// FindMember looks up a member by name (struct/union field).
func (t *TypeInfo) FindMember(name string) *Member {
	for m := t.Members; m != nil; m = m.Next {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FinishLayout computes cumulative offsets for struct members, or
// leaves every union member at offset 0. Each member receives a
// zero-based index and a byte offset; the aggregate's size is rounded
// up to the maximum member alignment.
func (t *TypeInfo) FinishLayout() {
	if t.layoutFinished {
		return
	}
	maxAlign := 1
	offset := 0
	idx := 0
	for m := t.Members; m != nil; m = m.Next {
		malign := m.Type.Alignment()
		if malign > maxAlign {
			maxAlign = malign
		}
		switch t.Kind {
		case Struct:
			offset = alignUp(offset, malign)
			m.Offset = offset
			offset += m.Type.Size()
		case Union:
			m.Offset = 0
			if m.Type.Size() > offset {
				offset = m.Type.Size()
			}
		}
		m.Index = idx
		idx++
	}
	t.size = alignUp(offset, maxAlign)
	if t.size == 0 {
		t.size = 0
	}
	t.align = maxAlign
	t.layoutFinished = true
}

// Size returns the size in bytes of t, per the fixed rules in spec §3.
func (t *TypeInfo) Size() int {
	if t == nil {
		return 0
	}
	if t.PointerLevel >= 1 && t.Kind != Pointer {
		return 8
	}
	return t.size
}

// Alignment returns the alignment requirement in bytes (minimum 1).
func (t *TypeInfo) Alignment() int {
	if t == nil || t.align == 0 {
		return 1
	}
	return t.align
}

// IsPointer reports whether t is semantically a pointer: per the
// invariant in spec §3, pointer_level >= 1 makes a type a pointer
// regardless of its base-kind tag.
func (t *TypeInfo) IsPointer() bool {
	return t != nil && (t.Kind == Pointer || t.PointerLevel >= 1)
}

// IsIntegral reports whether t is one of the integer base kinds.
func (t *TypeInfo) IsIntegral() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Bool, Char, Short, Int, Long, Signed, Unsigned, Enum:
		return true
	}
	return false
}

// IsFloating reports whether t is float or double.
func (t *TypeInfo) IsFloating() bool {
	return t != nil && (t.Kind == Float || t.Kind == Double)
}

// String renders a human-readable type name, used in diagnostics.
func (t *TypeInfo) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Pointer:
		return t.Elem.String() + "*"
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.ArrayCount)
	case Struct:
		return "struct " + t.Tag
	case Union:
		return "union " + t.Tag
	case Enum:
		return "enum " + t.Tag
	default:
		return t.Kind.String()
	}
}

// TypesCompatible implements the compatibility rules of spec §4.2.
func TypesCompatible(a, b *TypeInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsPointer() && b.IsIntegral() {
		return true
	}
	if b.IsPointer() && a.IsIntegral() {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Struct, Union, Enum:
		return a.Tag == "" && b.Tag == "" || a.Tag == b.Tag
	case Pointer:
		return TypesCompatible(a.Elem, b.Elem)
	case Array:
		return a.ArrayCount == b.ArrayCount && TypesCompatible(a.Elem, b.Elem)
	case Function:
		return TypesCompatible(a.Elem, b.Elem)
	default:
		return true
	}
}

func alignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
