package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ident(name string) Expr    { return &IdentExpr{Name: name} }
func lit(v int64) Expr          { return &ConstExpr{Kind: ConstInt, Value: v} }
func bin(op BinaryOp, l, r Expr) Expr {
	return &BinaryExpr{Op: op, Left: l, Right: r}
}

func TestParseIntLiteralHexAndDecimal(t *testing.T) {
	require.EqualValues(t, 255, ParseIntLiteral("0xff"))
	require.EqualValues(t, 42, ParseIntLiteral("42"))
}

func TestParseCharLiteralEscapes(t *testing.T) {
	require.EqualValues(t, '\n', ParseCharLiteral(`\n`))
	require.EqualValues(t, '\t', ParseCharLiteral(`\t`))
	require.EqualValues(t, '\r', ParseCharLiteral(`\r`))
	require.EqualValues(t, 0, ParseCharLiteral(`\0`))
	require.EqualValues(t, 'q', ParseCharLiteral(`\q`), "unknown escapes pass through")
	require.EqualValues(t, 'a', ParseCharLiteral(`a`))
}

func TestEvaluateConstantArithmetic(t *testing.T) {
	// a + b*c
	a, b, c := lit(2), lit(3), lit(4)
	expr := bin(OpAdd, a, bin(OpMul, b, c))
	require.EqualValues(t, 2+3*4, EvaluateConstant(expr))
}

func TestEvaluateConstantDivisionByZeroFoldsToZero(t *testing.T) {
	expr := bin(OpDiv, lit(1), lit(0))
	require.EqualValues(t, 0, EvaluateConstant(expr))
}

func TestEvaluateConstantNonFoldableYieldsZero(t *testing.T) {
	expr := bin(OpAnd, lit(1), lit(1))
	require.EqualValues(t, 0, EvaluateConstant(expr))
}
