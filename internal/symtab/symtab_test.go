package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

func TestLocalShadowsGlobalThenClearLocalsRestoresGlobal(t *testing.T) {
	tbl := New()
	tbl.AddGlobal(&Symbol{Name: "x", OriginalName: "x", Type: types.IntType()})

	tbl.AddLocal(&Symbol{Name: "x.1", OriginalName: "x", Type: types.CharType()})
	sym := tbl.Lookup("x")
	require.Equal(t, "x.1", sym.Name, "local shadows global of same original name")

	tbl.ClearLocals()
	sym = tbl.Lookup("x")
	require.True(t, sym.IsGlobal)
	require.Equal(t, types.IntType(), sym.Type)
}

func TestOriginalNameLookupResolvesUniquifiedSymbol(t *testing.T) {
	tbl := New()
	tbl.AddLocal(&Symbol{Name: "p.3", OriginalName: "p", Type: types.IntType(), IsParameter: true})
	sym := tbl.Lookup("p")
	require.NotNil(t, sym)
	require.Equal(t, "p.3", sym.Name)
}

func TestAddLocalDedupesByName(t *testing.T) {
	tbl := New()
	tbl.AddLocal(&Symbol{Name: "n", OriginalName: "n"})
	tbl.AddLocal(&Symbol{Name: "n", OriginalName: "n"})
	count := 0
	for s := tbl.locals; s != nil; s = s.Next {
		count++
	}
	require.Equal(t, 1, count)
}

func TestBuiltinVaListIsPreregistered(t *testing.T) {
	tbl := New()
	sym := tbl.LookupGlobal("__builtin_va_list")
	require.NotNil(t, sym)
}

func TestTagNamespaceIsSeparate(t *testing.T) {
	tbl := New()
	st := types.StructType("P")
	tbl.TagAdd("P", st)
	require.Same(t, st, tbl.TagLookup("P"))
	require.Nil(t, tbl.LookupGlobal("P"))
}

func TestAllStructsIsAppendOnlyInOrder(t *testing.T) {
	tbl := New()
	a := types.StructType("A")
	b := types.StructType("B")
	tbl.AddStruct(a)
	tbl.AddStruct(b)
	require.Equal(t, []*types.TypeInfo{a, b}, tbl.AllStructs())
}
