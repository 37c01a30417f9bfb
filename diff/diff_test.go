package diff

import (
	"math"
	"testing"

	"parx/ast"
	"parx/symtab"
)

// evalNode is a direct tree-walking evaluator used only to check
// derivatives against a central finite difference; the compiled
// stack-machine evaluator lives in package vm and is exercised by its
// own tests.
func evalNode(n ast.Node, x float64) float64 {
	switch v := n.(type) {
	case *ast.Const:
		return v.Value
	case *ast.Ref:
		return x
	case *ast.Unary:
		return evalUnary(v.Op, evalNode(v.X, x))
	case *ast.Binary:
		return evalBinary(v.Op, evalNode(v.L, x), evalNode(v.R, x))
	case *ast.Cond:
		if evalNode(v.If, x) != 0 {
			return evalNode(v.Then, x)
		}
		return evalNode(v.Else, x)
	}
	panic("unreachable")
}

func evalUnary(op ast.Op, v float64) float64 {
	switch op {
	case ast.NEG:
		return -v
	case ast.REV:
		return 1 / v
	case ast.SQR:
		return v * v
	case ast.SIN:
		return math.Sin(v)
	case ast.COS:
		return math.Cos(v)
	case ast.EXP:
		return math.Exp(v)
	case ast.LOG:
		return math.Log(v)
	case ast.SQRT:
		return math.Sqrt(v)
	}
	panic("unsupported op in test evaluator")
}

func evalBinary(op ast.Op, l, r float64) float64 {
	switch op {
	case ast.ADD:
		return l + r
	case ast.SUB:
		return l - r
	case ast.MUL:
		return l * r
	case ast.DIV:
		return l / r
	case ast.POW:
		return math.Pow(l, r)
	}
	panic("unsupported op in test evaluator")
}

func finiteDifferenceCheck(t *testing.T, name string, expr func(b *ast.Builder, x ast.Node) ast.Node, at float64) {
	t.Helper()
	b := ast.NewBuilder()
	x := b.Ref(symtab.VAR, 0, "x")
	f := expr(b, x)

	d := New(b)
	df := d.D(f, Wrt{Kind: symtab.VAR, Index: 0})

	const h = 1e-6
	numeric := (evalNode(f, at+h) - evalNode(f, at-h)) / (2 * h)
	analytic := evalNode(df, at)

	if math.Abs(numeric-analytic) > 1e-4*(1+math.Abs(numeric)) {
		t.Errorf("%s: d/dx at %v = %v (analytic), want ~%v (finite difference)", name, at, analytic, numeric)
	}
}

func TestDerivativeRulesAgainstFiniteDifference(t *testing.T) {
	cases := []struct {
		name string
		expr func(b *ast.Builder, x ast.Node) ast.Node
		at   float64
	}{
		{"sin(x)", func(b *ast.Builder, x ast.Node) ast.Node { return b.Unary(ast.SIN, x) }, 0.7},
		{"x^3", func(b *ast.Builder, x ast.Node) ast.Node { return b.Binary(ast.POW, x, b.Const(3)) }, 2.0},
		{"x*x + 2*x", func(b *ast.Builder, x ast.Node) ast.Node {
			return b.Binary(ast.ADD, b.Binary(ast.MUL, x, x), b.Binary(ast.MUL, b.Const(2), x))
		}, 1.5},
		{"1/x", func(b *ast.Builder, x ast.Node) ast.Node { return b.Unary(ast.REV, x) }, 3.0},
		{"exp(x)*sin(x)", func(b *ast.Builder, x ast.Node) ast.Node {
			return b.Binary(ast.MUL, b.Unary(ast.EXP, x), b.Unary(ast.SIN, x))
		}, 0.3},
		{"sqrt(x)", func(b *ast.Builder, x ast.Node) ast.Node { return b.Unary(ast.SQRT, x) }, 4.0},
		{"log(x)", func(b *ast.Builder, x ast.Node) ast.Node { return b.Unary(ast.LOG, x) }, 2.5},
	}
	for _, c := range cases {
		finiteDifferenceCheck(t, c.name, c.expr, c.at)
	}
}

func TestDerivativeWithRespectToUnrelatedSymbolIsZero(t *testing.T) {
	b := ast.NewBuilder()
	x := b.Ref(symtab.VAR, 0, "x")
	y := b.Ref(symtab.VAR, 1, "y")
	expr := b.Binary(ast.MUL, x, x)

	d := New(b)
	dy := d.D(expr, Wrt{Kind: symtab.VAR, Index: 1})
	if v, ok := ast.AsConst(dy); !ok || v != 0 {
		t.Errorf("d(x*x)/dy = %v, want the constant 0", dy)
	}
	_ = y
}

func TestMemoizationReturnsSameNode(t *testing.T) {
	b := ast.NewBuilder()
	x := b.Ref(symtab.VAR, 0, "x")
	expr := b.Unary(ast.SIN, x)

	d := New(b)
	wrt := Wrt{Kind: symtab.VAR, Index: 0}
	first := d.D(expr, wrt)
	second := d.D(expr, wrt)
	if first != second {
		t.Errorf("D() did not return the memoized node on a repeated call")
	}
}

func TestCondDerivativeIsPiecewise(t *testing.T) {
	b := ast.NewBuilder()
	x := b.Ref(symtab.VAR, 0, "x")
	flg := b.Ref(symtab.FLG, 0, "f")
	expr := b.Cond(flg, b.Binary(ast.MUL, x, x), x)

	d := New(b)
	deriv := d.D(expr, Wrt{Kind: symtab.VAR, Index: 0})

	cond, ok := deriv.(*ast.Cond)
	if !ok {
		t.Fatalf("derivative of a Cond must itself be a Cond, got %#v", deriv)
	}
	if cond.If != flg {
		t.Errorf("derivative Cond must reuse the original condition node")
	}
}
