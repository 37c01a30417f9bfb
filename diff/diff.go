// Package diff implements the symbolic differentiation pass: for an
// expression node and a chosen independent symbol (a VAR or PAR by
// kind and index), it produces the derivative tree per the rule table
// in spec §4.6, applying the builder's simplifier to every
// intermediate node so the derivative graph stays dense only where
// needed. Dispatch is a type switch over ast.Node, the Go analogue of
// the teacher's ExpressionVisitor double-dispatch (VisitBinary,
// VisitUnary, ...), since ast.Node here is a closed sum type rather
// than an open visitor-accepting interface.
package diff

import (
	"math"

	"parx/ast"
	"parx/symtab"
)

// Wrt names the independent symbol a derivative is taken with respect
// to.
type Wrt struct {
	Kind  symtab.Kind
	Index int
}

// Differentiator memoizes derivative subtrees per (node, wrt) pair so
// that, per the spec, "the same derivative-tree instance is reused if
// a subexpression's derivative ... turns out identical after
// simplification" — the code generator's CSE then only has to de-dup
// by pointer identity, not re-discover the sharing.
type Differentiator struct {
	b    *ast.Builder
	memo map[memoKey]ast.Node
}

type memoKey struct {
	n   ast.Node
	wrt Wrt
}

func New(b *ast.Builder) *Differentiator {
	return &Differentiator{b: b, memo: make(map[memoKey]ast.Node)}
}

// D returns d(n)/d(wrt), building and caching it if not already
// computed for this (node, wrt) pair.
func (d *Differentiator) D(n ast.Node, wrt Wrt) ast.Node {
	key := memoKey{n: n, wrt: wrt}
	if v, ok := d.memo[key]; ok {
		return v
	}
	result := d.differentiate(n, wrt)
	d.memo[key] = result
	return result
}

func (d *Differentiator) differentiate(n ast.Node, wrt Wrt) ast.Node {
	b := d.b
	switch v := n.(type) {
	case *ast.Const:
		return b.Const(0)

	case *ast.Ref:
		// CON, FLG are also zero here: only VAR/PAR can be wrt targets,
		// and a Ref of any other kind never equals wrt's (kind, index).
		if v.Kind == wrt.Kind && v.Index == wrt.Index {
			return b.Const(1)
		}
		return b.Const(0)

	case *ast.Unary:
		return d.differentiateUnary(v, wrt)

	case *ast.Binary:
		return d.differentiateBinary(v, wrt)

	case *ast.Cond:
		// Piecewise-constant: the condition itself has no derivative, but
		// it gates which branch's derivative applies.
		return b.Cond(v.If, d.D(v.Then, wrt), d.D(v.Else, wrt))
	}
	return b.Const(0)
}

func (d *Differentiator) differentiateUnary(v *ast.Unary, wrt Wrt) ast.Node {
	b := d.b
	u := d.D(v.X, wrt)
	x := v.X

	// A zero derivative operand short-circuits every rule below to a
	// constant 0 without needing a per-case check; let the builder's
	// own constant folding collapse MUL/DIV by a zero u down to 0.
	switch v.Op {
	case ast.NEG:
		return b.Unary(ast.NEG, u)
	case ast.REV:
		// d(1/x) = -u' / x^2
		return b.Unary(ast.NEG, b.Binary(ast.DIV, u, b.Unary(ast.SQR, x)))
	case ast.SQR:
		return b.Binary(ast.MUL, b.Const(2), b.Binary(ast.MUL, x, u))
	case ast.SIN:
		return b.Binary(ast.MUL, b.Unary(ast.COS, x), u)
	case ast.COS:
		return b.Unary(ast.NEG, b.Binary(ast.MUL, b.Unary(ast.SIN, x), u))
	case ast.TAN:
		return b.Binary(ast.DIV, u, b.Unary(ast.SQR, b.Unary(ast.COS, x)))
	case ast.ASIN:
		denom := b.Unary(ast.SQRT, b.Binary(ast.SUB, b.Const(1), b.Unary(ast.SQR, x)))
		return b.Binary(ast.DIV, u, denom)
	case ast.ACOS:
		denom := b.Unary(ast.SQRT, b.Binary(ast.SUB, b.Const(1), b.Unary(ast.SQR, x)))
		return b.Unary(ast.NEG, b.Binary(ast.DIV, u, denom))
	case ast.ATAN:
		denom := b.Binary(ast.ADD, b.Const(1), b.Unary(ast.SQR, x))
		return b.Binary(ast.DIV, u, denom)
	case ast.SINH:
		return b.Binary(ast.MUL, b.Unary(ast.COSH, x), u)
	case ast.COSH:
		return b.Binary(ast.MUL, b.Unary(ast.SINH, x), u)
	case ast.TANH:
		return b.Binary(ast.DIV, u, b.Unary(ast.SQR, b.Unary(ast.COSH, x)))
	case ast.EXP:
		return b.Binary(ast.MUL, b.Unary(ast.EXP, x), u)
	case ast.LOG:
		return b.Binary(ast.DIV, u, x)
	case ast.LG:
		return b.Binary(ast.DIV, u, b.Binary(ast.MUL, x, b.Const(math.Log(10))))
	case ast.SQRT:
		return b.Binary(ast.DIV, u, b.Binary(ast.MUL, b.Const(2), b.Unary(ast.SQRT, x)))
	case ast.ABS:
		return b.Binary(ast.MUL, b.Unary(ast.SGN, x), u)
	case ast.SGN:
		return b.Const(0)
	case ast.ERF:
		coeff := b.Const(2 / math.Sqrt(math.Pi))
		expPart := b.Unary(ast.EXP, b.Unary(ast.NEG, b.Unary(ast.SQR, x)))
		return b.Binary(ast.MUL, coeff, b.Binary(ast.MUL, expPart, u))
	case ast.NOT:
		// logical, piecewise-constant
		return b.Const(0)
	}
	return b.Const(0)
}

func (d *Differentiator) differentiateBinary(v *ast.Binary, wrt Wrt) ast.Node {
	b := d.b
	switch v.Op {
	case ast.ADD:
		return b.Binary(ast.ADD, d.D(v.L, wrt), d.D(v.R, wrt))
	case ast.SUB:
		return b.Binary(ast.SUB, d.D(v.L, wrt), d.D(v.R, wrt))
	case ast.MUL:
		du, dv := d.D(v.L, wrt), d.D(v.R, wrt)
		return b.Binary(ast.ADD, b.Binary(ast.MUL, du, v.R), b.Binary(ast.MUL, v.L, dv))
	case ast.DIV:
		du, dv := d.D(v.L, wrt), d.D(v.R, wrt)
		num := b.Binary(ast.SUB, b.Binary(ast.MUL, du, v.R), b.Binary(ast.MUL, v.L, dv))
		den := b.Unary(ast.SQR, v.R)
		return b.Binary(ast.DIV, num, den)
	case ast.POW:
		if exp, ok := ast.AsConst(v.R); ok {
			du := d.D(v.L, wrt)
			newExp := b.Const(exp - 1)
			return b.Binary(ast.MUL, b.Binary(ast.MUL, v.R, b.Binary(ast.POW, v.L, newExp)), du)
		}
		du, dv := d.D(v.L, wrt), d.D(v.R, wrt)
		lnU := b.Unary(ast.LOG, v.L)
		term1 := b.Binary(ast.MUL, dv, lnU)
		term2 := b.Binary(ast.DIV, b.Binary(ast.MUL, v.R, du), v.L)
		inner := b.Binary(ast.ADD, term1, term2)
		return b.Binary(ast.MUL, b.Binary(ast.POW, v.L, v.R), inner)
	case ast.AND, ast.OR, ast.LT, ast.GT, ast.LE, ast.GE, ast.EQ, ast.NE:
		return b.Const(0)
	}
	return b.Const(0)
}
