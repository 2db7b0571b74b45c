package emitter

import (
	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// harvestGlobals is pass 2 of spec §4.5.1: walk top-level nodes and
// ensure a global symbol exists for every variable or function
// declaration, updating the stored type when an extern declaration
// earlier gave way to a concrete definition. It also registers
// struct/union/enum tags and enumerator constants, and typedef names
// per spec §4.4 (entered in the global namespace, marked emitted so
// no storage is ever materialized).
func (e *Emitter) harvestGlobals(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.AggregateDecl:
			e.harvestAggregate(n)
		case *ast.EnumDecl:
			e.harvestEnum(n)
		case *ast.TypedefDecl:
			e.syms.AddGlobal(&symtab.Symbol{
				Name:         n.Name,
				OriginalName: n.Name,
				Type:         n.Type,
				IsEmitted:    true,
			})
		case *ast.VarDecl:
			e.harvestVar(n)
		case *ast.FuncDecl:
			e.harvestFunc(n)
		}
	}
}

func (e *Emitter) harvestAggregate(n *ast.AggregateDecl) {
	tag := n.Tag
	if tag == "" {
		tag = types.NextAnonTag()
	}
	var ti *types.TypeInfo
	if n.Kind == ast.AggregateUnion {
		ti = types.UnionType(tag)
	} else {
		ti = types.StructType(tag)
	}
	for _, f := range n.Fields {
		ft := f.FieldType
		if f.ArrayLen > 0 {
			ft = types.ArrayOf(ft, f.ArrayLen)
		}
		ti.AddMember(f.Name, ft)
	}
	ti.FinishLayout()
	e.syms.TagAdd(tag, ti)
	e.syms.AddStruct(ti)
}

func (e *Emitter) harvestEnum(n *ast.EnumDecl) {
	tag := n.Tag
	if tag == "" {
		tag = types.NextAnonTag()
	}
	ti := types.EnumType(tag)
	e.syms.TagAdd(tag, ti)

	next := int64(0)
	for _, en := range n.Enumerators {
		val := next
		if en.Value != nil {
			val = ast.EvaluateConstant(en.Value)
		}
		e.syms.AddGlobal(&symtab.Symbol{
			Name:         en.Name,
			OriginalName: en.Name,
			Type:         ti,
			IsEnumConst:  true,
			EnumValue:    val,
			IsEmitted:    true,
		})
		next = val + 1
	}
}

func (e *Emitter) harvestVar(n *ast.VarDecl) {
	t := n.VarType
	isArray := len(n.ArrayDims) > 0 || n.IsEmpty
	if isArray {
		count := 0
		if len(n.ArrayDims) > 0 {
			count = int(ast.EvaluateConstant(n.ArrayDims[0]))
		} else if n.IsEmpty {
			count = e.inferArrayLenFromInit(n)
		}
		t = types.ArrayOf(n.VarType, count)
	}

	existing := e.syms.LookupGlobal(n.Name)
	if existing != nil {
		if existing.Type == nil || existing.Type.Size() == 0 {
			existing.Type = t
		}
		return
	}
	e.syms.AddGlobal(&symtab.Symbol{
		Name:         n.Name,
		OriginalName: n.Name,
		Type:         t,
		IsArray:      isArray,
	})
}

// inferArrayLenFromInit sizes a "[]"-declared array from its
// initializer, per the Open Question decision in SPEC_FULL.md:
// string-literal initializers size from the string length including
// the trailing NUL, and brace initializer lists size from their
// element count.
func (e *Emitter) inferArrayLenFromInit(n *ast.VarDecl) int {
	if s, ok := n.Init.(*ast.StringExpr); ok {
		return len(s.Value) + 1
	}
	if n.InitList != nil {
		return len(n.InitList)
	}
	return 0
}

func (e *Emitter) harvestFunc(n *ast.FuncDecl) {
	var params *types.Member
	ft := &types.TypeInfo{Kind: types.Function}
	for _, p := range n.Params {
		m := &types.Member{Name: p.Name, Type: p.Type}
		if params == nil {
			ft.Params = m
			params = m
		} else {
			params.Next = m
			params = m
		}
	}
	ft.Elem = n.ReturnType
	ft.Variadic = n.Variadic

	existing := e.syms.LookupGlobal(n.Name)
	if existing != nil {
		existing.Type = ft
		return
	}
	e.syms.AddGlobal(&symtab.Symbol{
		Name:         n.Name,
		OriginalName: n.Name,
		Type:         ft,
	})
}
