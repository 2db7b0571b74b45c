// Package astwriter renders a *ast.Program to the flat, line-oriented
// text protocol that internal/astreader reads back, playing the role
// the teacher's lang/yparse/output.go plays for lang/sem/reader.go:
// one line per top-level declaration, with the declaration's own
// statements and expressions folded into that line as a parenthesized
// prefix form rather than spread across further indented lines, since
// this core has no lexer/parser of its own to drive a multi-line
// per-statement dump.
package astwriter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// Writer renders a program to the text protocol.
type Writer struct {
	w *bufio.Writer
}

// New creates a Writer over w.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write serializes prog, one line per top-level declaration, and
// flushes the underlying writer.
func (wr *Writer) Write(prog *ast.Program) error {
	for _, d := range prog.Decls {
		fmt.Fprintln(wr.w, declString(d))
	}
	return wr.w.Flush()
}

func declString(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.VarDecl:
		return varDeclString(n)
	case *ast.FuncDecl:
		return funcDeclString(n)
	case *ast.AggregateDecl:
		return aggregateDeclString(n)
	case *ast.EnumDecl:
		return enumDeclString(n)
	case *ast.TypedefDecl:
		return fmt.Sprintf("(typedef %s %s)", n.Name, typeString(n.Type))
	default:
		return "(unknown-decl)"
	}
}

func varDeclString(n *ast.VarDecl) string {
	parts := []string{"var", n.Name, typeString(n.VarType)}
	if len(n.ArrayDims) > 0 {
		parts = append(parts, "dims", sexprList(exprs(n.ArrayDims)))
	}
	if n.IsEmpty {
		parts = append(parts, "empty")
	}
	if n.Init != nil {
		parts = append(parts, "init", exprString(n.Init))
	}
	if n.InitList != nil {
		parts = append(parts, "initlist", sexprList(exprs(n.InitList)))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func funcDeclString(n *ast.FuncDecl) string {
	var params []string
	for _, p := range n.Params {
		params = append(params, fmt.Sprintf("(%s %s)", p.Name, typeString(p.Type)))
	}
	head := fmt.Sprintf("(func %s %s (%s)", n.Name, typeString(n.ReturnType), strings.Join(params, " "))
	if n.Variadic {
		head += " variadic"
	}
	if n.Body == nil {
		return head + ")"
	}
	return head + " " + stmtString(n.Body) + ")"
}

func aggregateDeclString(n *ast.AggregateDecl) string {
	kind := "struct"
	if n.Kind == ast.AggregateUnion {
		kind = "union"
	}
	var fields []string
	for _, f := range n.Fields {
		if f.ArrayLen > 0 {
			fields = append(fields, fmt.Sprintf("(%s %s %d)", f.Name, typeString(f.FieldType), f.ArrayLen))
		} else {
			fields = append(fields, fmt.Sprintf("(%s %s)", f.Name, typeString(f.FieldType)))
		}
	}
	return fmt.Sprintf("(%s %s %s)", kind, n.Tag, strings.Join(fields, " "))
}

func enumDeclString(n *ast.EnumDecl) string {
	var items []string
	for _, en := range n.Enumerators {
		if en.Value != nil {
			items = append(items, fmt.Sprintf("(%s %s)", en.Name, exprString(en.Value)))
		} else {
			items = append(items, fmt.Sprintf("(%s)", en.Name))
		}
	}
	return fmt.Sprintf("(enum %s %s)", n.Tag, strings.Join(items, " "))
}

func exprs(in []ast.Expr) []string {
	var out []string
	for _, e := range in {
		out = append(out, exprString(e))
	}
	return out
}

func sexprList(items []string) string {
	return "(" + strings.Join(items, " ") + ")"
}

func stmtString(s ast.Stmt) string {
	if s == nil {
		return "(nil)"
	}
	switch n := s.(type) {
	case *ast.CompoundStmt:
		var items []string
		for _, it := range n.Items {
			items = append(items, stmtString(it))
		}
		return "(block " + strings.Join(items, " ") + ")"
	case *ast.DeclStmt:
		return varDeclString(n.Decl)
	case *ast.ExprStmt:
		if n.X == nil {
			return "(empty-stmt)"
		}
		return fmt.Sprintf("(exprstmt %s)", exprString(n.X))
	case *ast.IfStmt:
		if n.Else != nil {
			return fmt.Sprintf("(if %s %s %s)", exprString(n.Cond), stmtString(n.Then), stmtString(n.Else))
		}
		return fmt.Sprintf("(if %s %s)", exprString(n.Cond), stmtString(n.Then))
	case *ast.WhileStmt:
		return fmt.Sprintf("(while %s %s)", exprString(n.Cond), stmtString(n.Body))
	case *ast.DoWhileStmt:
		return fmt.Sprintf("(do %s %s)", stmtString(n.Body), exprString(n.Cond))
	case *ast.ForStmt:
		return fmt.Sprintf("(for %s %s %s %s)", stmtString(n.Init), optExprString(n.Cond), optExprString(n.Post), stmtString(n.Body))
	case *ast.SwitchStmt:
		return fmt.Sprintf("(switch %s %s)", exprString(n.Tag), stmtString(n.Body))
	case *ast.CaseStmt:
		return fmt.Sprintf("(case %s)", exprString(n.Value))
	case *ast.DefaultStmt:
		return "(default)"
	case *ast.BreakStmt:
		return "(break)"
	case *ast.ContinueStmt:
		return "(continue)"
	case *ast.ReturnStmt:
		if n.Value == nil {
			return "(return)"
		}
		return fmt.Sprintf("(return %s)", exprString(n.Value))
	case *ast.GotoStmt:
		return fmt.Sprintf("(goto %s)", n.Label)
	case *ast.LabelStmt:
		return fmt.Sprintf("(label %s)", n.Label)
	default:
		return "(unknown-stmt)"
	}
}

func optExprString(e ast.Expr) string {
	if e == nil {
		return "(none)"
	}
	return exprString(e)
}

func exprString(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.ConstExpr:
		return fmt.Sprintf("(const %d)", n.Value)
	case *ast.StringExpr:
		return fmt.Sprintf("(str %q)", n.Value)
	case *ast.IdentExpr:
		return fmt.Sprintf("(ident %s)", n.Name)
	case *ast.BinaryExpr:
		return fmt.Sprintf("(binop %s %s %s)", n.Op, exprString(n.Left), exprString(n.Right))
	case *ast.AssignExpr:
		return fmt.Sprintf("(assign %d %s %s)", n.Op, exprString(n.LHS), exprString(n.RHS))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(unop %d %s)", n.Op, exprString(n.Operand))
	case *ast.CastExpr:
		return fmt.Sprintf("(cast %s %s)", typeString(n.TargetType), exprString(n.Operand))
	case *ast.CallExpr:
		return fmt.Sprintf("(call %s %s)", n.Callee, sexprList(exprs(n.Args)))
	case *ast.IndexExpr:
		return fmt.Sprintf("(index %s %s)", exprString(n.Array), exprString(n.Index))
	case *ast.FieldExpr:
		op := "."
		if n.IsArrow {
			op = "->"
		}
		return fmt.Sprintf("(field %s %s %s)", op, exprString(n.Object), n.Field)
	case *ast.TernaryExpr:
		return fmt.Sprintf("(ternary %s %s %s)", exprString(n.Cond), exprString(n.Then), exprString(n.Else))
	case *ast.InitListExpr:
		return fmt.Sprintf("(initlist %s)", sexprList(exprs(n.Elems)))
	default:
		return "(unknown-expr)"
	}
}

// typeString renders a TypeInfo as a compact type tag that astreader's
// parseTypeString parses back.
func typeString(t *types.TypeInfo) string {
	if t == nil {
		return "int"
	}
	if t.IsPointer() && t.Kind != types.Pointer {
		return "ptr:" + typeString(t.Elem)
	}
	switch t.Kind {
	case types.Void:
		return "void"
	case types.Bool:
		return "bool"
	case types.Char:
		return "char"
	case types.Short:
		return "short"
	case types.Int:
		return "int"
	case types.Long:
		return "long"
	case types.Float:
		return "float"
	case types.Double:
		return "double"
	case types.Pointer:
		return "ptr:" + typeString(t.Elem)
	case types.Array:
		return fmt.Sprintf("arr:%d:%s", t.ArrayCount, typeString(t.Elem))
	case types.Struct:
		return "struct:" + t.Tag
	case types.Union:
		return "union:" + t.Tag
	case types.Enum:
		return "enum:" + t.Tag
	default:
		return "int"
	}
}
