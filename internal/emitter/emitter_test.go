package emitter

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/errs"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

func newTestEmitter(out *bytes.Buffer) *Emitter {
	return New(out, symtab.New(), errs.New(io.Discard), nil)
}

func ident(name string) *ast.IdentExpr { return &ast.IdentExpr{Name: name} }

func TestEmitFunctionParamsAndReturn(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "add",
		ReturnType: types.IntType(),
		Params: []*ast.Param{
			{Name: "a", Type: types.IntType()},
			{Name: "b", Type: types.IntType()},
		},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("a"), Right: ident("b")}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "define i32 @add(i32 %p0, i32 %p1)")
	require.Contains(t, ir, "= alloca i32")
	require.Contains(t, ir, "store i32 %p0")
	require.Contains(t, ir, "= add i32")
	require.Contains(t, ir, "ret i32")
}

func TestForLoopLabelsAndBranches(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "sum",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "n", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.DeclStmt{Decl: &ast.VarDecl{Name: "i", VarType: types.IntType()}},
			&ast.DeclStmt{Decl: &ast.VarDecl{Name: "s", VarType: types.IntType()}},
			&ast.ForStmt{
				Init: &ast.ExprStmt{X: &ast.AssignExpr{Op: ast.Assign, LHS: ident("i"), RHS: &ast.ConstExpr{Value: 0}}},
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: ident("n")},
				Post: &ast.AssignExpr{Op: ast.Assign, LHS: ident("i"), RHS: &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: &ast.ConstExpr{Value: 1}}},
				Body: &ast.CompoundStmt{Items: []ast.Stmt{
					&ast.ExprStmt{X: &ast.AssignExpr{Op: ast.Assign, LHS: ident("s"), RHS: &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("s"), Right: ident("i")}}},
				}},
			},
			&ast.ReturnStmt{Value: ident("s")},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "for_cond0:")
	require.Contains(t, ir, "for_body0:")
	require.Contains(t, ir, "for_incr0:")
	require.Contains(t, ir, "for_end0:")
	require.Contains(t, ir, "icmp slt i32")
	require.NotContains(t, ir, "unreachable")
}

func TestShortCircuitOnlyEvaluatesRightInGuardedBlock(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "both",
		ReturnType: types.IntType(),
		Params: []*ast.Param{
			{Name: "a", Type: types.IntType()},
			{Name: "b", Type: types.IntType()},
		},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpLAnd, Left: ident("a"), Right: ident("b")}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "sc_rhs0:")
	require.Contains(t, ir, "sc_short0:")
	require.Contains(t, ir, "sc_end0:")

	rhsIdx := strings.Index(ir, "sc_rhs0:")
	shortIdx := strings.Index(ir, "sc_short0:")
	require.Less(t, shortIdx, rhsIdx, "the short-circuit block must come before the right-operand block in source order")
}

func TestSwitchLowersToIcmpChainNotLLVMSwitch(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "classify",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "n", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.SwitchStmt{
				Tag: ident("n"),
				Body: &ast.CompoundStmt{Items: []ast.Stmt{
					&ast.CaseStmt{Value: &ast.ConstExpr{Value: 1}},
					&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 10}},
					&ast.CaseStmt{Value: &ast.ConstExpr{Value: 2}},
					&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 20}},
					&ast.DefaultStmt{},
					&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 0}},
				}},
			},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "icmp eq i32")
	require.Contains(t, ir, "switch_case0:")
	require.Contains(t, ir, "switch_default0:")
	require.NotContains(t, ir, "switch i32")
}

func TestStringLiteralEscapesAsHexBytesWithTrailingNul(t *testing.T) {
	vd := &ast.VarDecl{
		Name:    "msg",
		VarType: types.CharType(),
		IsEmpty: true,
		Init:    &ast.StringExpr{Value: "hi\n"},
	}
	prog := &ast.Program{Decls: []ast.Decl{vd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, `c"hi\0A\00"`)
	require.NotContains(t, ir, "hi\n\"")
}

func TestAllocasAreHoistedAheadOfBodyInstructions(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "late_decl",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "a", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ExprStmt{X: &ast.UnaryExpr{Op: ast.UnaryPreInc, Operand: ident("a")}},
			&ast.DeclStmt{Decl: &ast.VarDecl{Name: "late", VarType: types.IntType(), Init: &ast.ConstExpr{Value: 5}}},
			&ast.ReturnStmt{Value: ident("late")},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	bodyStart := strings.Index(ir, "define i32 @late_decl")
	lastAlloca := strings.LastIndex(ir, "= alloca")
	firstAdd := strings.Index(ir, "= add i32")
	require.Greater(t, lastAlloca, bodyStart)
	require.Greater(t, firstAdd, lastAlloca, "every alloca must be hoisted ahead of the first ordinary instruction")
}

func TestArrayDecaysViaTwoIndexGEPOnLoad(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "first",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.DeclStmt{Decl: &ast.VarDecl{
				Name: "arr", VarType: types.IntType(),
				ArrayDims: []ast.Expr{&ast.ConstExpr{Value: 3}},
			}},
			&ast.ReturnStmt{Value: &ast.IndexExpr{Array: ident("arr"), Index: &ast.ConstExpr{Value: 0}}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "getelementptr [3 x i32], [3 x i32]*")
	require.Contains(t, ir, "i32 0, i32 0")
}

func TestStructMemberAccessUsesFieldIndexGEP(t *testing.T) {
	st := types.StructType("Point")
	st.AddMember("x", types.IntType())
	st.AddMember("y", types.IntType())
	st.FinishLayout()

	agg := &ast.AggregateDecl{Kind: ast.AggregateStruct, Tag: "Point", Fields: []*ast.FieldDecl{
		{Name: "x", FieldType: types.IntType()},
		{Name: "y", FieldType: types.IntType()},
	}}
	fd := &ast.FuncDecl{
		Name:       "gety",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.DeclStmt{Decl: &ast.VarDecl{Name: "p", VarType: st}},
			&ast.ReturnStmt{Value: &ast.FieldExpr{Object: ident("p"), Field: "y"}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{agg, fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "%struct.Point = type { i32, i32 }")
	require.Contains(t, ir, "getelementptr %struct.Point, %struct.Point* %p")
	require.Contains(t, ir, "i32 0, i32 1")
}

func TestIntToCharCastEmitsTrunc(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "narrow",
		ReturnType: types.CharType(),
		Params:     []*ast.Param{{Name: "x", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.DeclStmt{Decl: &ast.VarDecl{
				Name: "c", VarType: types.CharType(),
				Init: &ast.CastExpr{TargetType: types.CharType(), Operand: ident("x")},
			}},
			&ast.ReturnStmt{Value: ident("c")},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	require.Contains(t, out.String(), "trunc i32")
	require.Contains(t, out.String(), "to i8")
}

func TestPrintfCallPassesStringLiteralByLabel(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "main",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{
				Callee: "printf",
				Args:   []ast.Expr{&ast.StringExpr{Value: "%d\n"}, &ast.ConstExpr{Value: 42}},
			}},
			&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 0}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "call i32 (i8*, ...) @printf(i8* @.str0, i32 42)")
	require.Equal(t, 1, strings.Count(ir, "private unnamed_addr constant"))
	require.Contains(t, ir, `c"%d\0A\00"`)
}

func TestGlobalArrayInitAndSubscript(t *testing.T) {
	vd := &ast.VarDecl{
		Name:      "a",
		VarType:   types.IntType(),
		ArrayDims: []ast.Expr{&ast.ConstExpr{Value: 3}},
		InitList:  []ast.Expr{&ast.ConstExpr{Value: 10}, &ast.ConstExpr{Value: 20}, &ast.ConstExpr{Value: 30}},
	}
	fd := &ast.FuncDecl{
		Name:       "main",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.IndexExpr{Array: ident("a"), Index: &ast.ConstExpr{Value: 1}}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{vd, fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "@a = global [3 x i32] [i32 10, i32 20, i32 30]")
	require.Contains(t, ir, "i32 0, i32 1")
	require.Contains(t, ir, "ret i32")
}

func TestTypedefIsNeverEmittedAsGlobal(t *testing.T) {
	td := &ast.TypedefDecl{Name: "myint", Type: types.IntType()}
	prog := &ast.Program{Decls: []ast.Decl{td}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	require.NotContains(t, out.String(), "@myint")
}

func TestExternGlobalAndUndefinedCalleeDeclared(t *testing.T) {
	vd := &ast.VarDecl{Name: "env", VarType: types.IntType(), Storage: types.StorageExtern}
	fd := &ast.FuncDecl{
		Name:       "main",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: "getchar"}},
			&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 0}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{vd, fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "@env = external global i32")
	require.Contains(t, ir, "declare i32 @getchar(...)")
}

func TestGotoBranchesToUserLabel(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "jumpy",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.GotoStmt{Label: "done"},
			&ast.LabelStmt{Label: "done"},
			&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 1}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "br label %user_label_done")
	require.Contains(t, ir, "user_label_done:")
}

func TestCompoundAssignmentLoadsAppliesStores(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "bump",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "x", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ExprStmt{X: &ast.AssignExpr{Op: ast.AddAssign, LHS: ident("x"), RHS: &ast.ConstExpr{Value: 3}}},
			&ast.ReturnStmt{Value: ident("x")},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "= add i32")
	loadIdx := strings.Index(ir, "= load i32")
	addIdx := strings.Index(ir, "= add i32")
	storeIdx := strings.LastIndex(ir, "store i32")
	require.Greater(t, addIdx, loadIdx)
	require.Greater(t, storeIdx, addIdx)
}

func TestTernaryEmitsPhiOverBranchBlocks(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "pick",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "c", Type: types.IntType()}},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.TernaryExpr{
				Cond: ident("c"),
				Then: &ast.ConstExpr{Value: 1},
				Else: &ast.ConstExpr{Value: 2},
			}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "tern_then0:")
	require.Contains(t, ir, "tern_else0:")
	require.Contains(t, ir, "= phi i32 [ 1, %tern_then0 ], [ 2, %tern_else0 ]")
}

func TestUndefinedIdentifierCountsErrorWithoutCrash(t *testing.T) {
	sink := errs.New(io.Discard)
	fd := &ast.FuncDecl{
		Name:       "oops",
		ReturnType: types.IntType(),
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: ident("missing")},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	em := New(out, symtab.New(), sink, nil)
	require.NoError(t, em.Run(prog))
	require.Equal(t, 1, sink.Count())
}

func TestVaStartBitcastsAndCallsIntrinsic(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "vsum",
		ReturnType: types.IntType(),
		Params:     []*ast.Param{{Name: "n", Type: types.IntType()}},
		Variadic:   true,
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.DeclStmt{Decl: &ast.VarDecl{Name: "ap", VarType: types.PointerTo(types.CharType())}},
			&ast.ExprStmt{X: &ast.CallExpr{Callee: "__builtin_va_start", Args: []ast.Expr{ident("ap")}}},
			&ast.ExprStmt{X: &ast.CallExpr{Callee: "__builtin_va_end", Args: []ast.Expr{ident("ap")}}},
			&ast.ReturnStmt{Value: &ast.ConstExpr{Value: 0}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "define i32 @vsum(i32 %p0, ...)")
	require.Contains(t, ir, "call void @llvm.va_start(i8*")
	require.Contains(t, ir, "call void @llvm.va_end(i8*")
}

func TestPointerMinusPointerDividesByElementSize(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "dist",
		ReturnType: types.IntType(),
		Params: []*ast.Param{
			{Name: "a", Type: types.PointerTo(types.IntType())},
			{Name: "b", Type: types.PointerTo(types.IntType())},
		},
		Body: &ast.CompoundStmt{Items: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpSub, Left: ident("a"), Right: ident("b")}},
		}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fd}}

	out := new(bytes.Buffer)
	require.NoError(t, newTestEmitter(out).Run(prog))
	ir := out.String()

	require.Contains(t, ir, "ptrtoint i32*")
	require.Contains(t, ir, "sdiv i64")
	require.Contains(t, ir, ", 4")
	require.Contains(t, ir, "trunc i64")
}
