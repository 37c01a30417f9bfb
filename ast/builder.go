package ast

import (
	"math"

	"parx/symtab"
)

// Builder is the sole entry point for constructing expression nodes,
// playing the role the original's make_node plays for every PRX_NODE_S:
// every node returned by Const/Ref/Unary/Binary has already passed
// through constant folding and identity elimination, and is shared by
// pointer identity with any structurally identical node built earlier
// in the same Builder's lifetime (one Builder per compilation, the way
// one arena backs one compilation).
type Builder struct {
	consts  map[float64]*Const
	unaries map[unaryKey]*Unary
	binops  map[binKey]*Binary
	conds   map[condKey]*Cond
}

type unaryKey struct {
	op Op
	x  Node
}

type binKey struct {
	op   Op
	l, r Node
}

type condKey struct {
	ifN, thenN, elseN Node
}

// NewBuilder returns a Builder with empty CSE caches.
func NewBuilder() *Builder {
	return &Builder{
		consts:  make(map[float64]*Const),
		unaries: make(map[unaryKey]*Unary),
		binops:  make(map[binKey]*Binary),
		conds:   make(map[condKey]*Cond),
	}
}

// Cond builds a value-level conditional, folding away the branch not
// taken when the condition is a known constant and interning the result
// so that two statically identical conditionals share one node.
func (b *Builder) Cond(cond, then, els Node) Node {
	if v, ok := AsConst(cond); ok {
		if v != 0 {
			return then
		}
		return els
	}
	key := condKey{ifN: cond, thenN: then, elseN: els}
	if n, ok := b.conds[key]; ok {
		return n
	}
	n := &Cond{If: cond, Then: then, Else: els}
	b.conds[key] = n
	return n
}

// Const returns the (shared) constant leaf for v.
func (b *Builder) Const(v float64) Node {
	if n, ok := b.consts[v]; ok {
		return n
	}
	n := &Const{Value: v}
	b.consts[v] = n
	return n
}

// Ref returns a symbol reference leaf. References are not CSE'd across
// calls since each carries positional identity only through its
// (Kind, Index) pair, which codegen compares by value, not pointer.
func (b *Builder) Ref(kind symtab.Kind, index int, name string) Node {
	return &Ref{Kind: kind, Index: index, Name: name}
}

// Unary builds a one-operand node, applying constant folding and the
// NEG(NEG x) / REV(REV x) involution identities before interning.
func (b *Builder) Unary(op Op, x Node) Node {
	if v, ok := AsConst(x); ok {
		if folded, ok := foldUnary(op, v); ok {
			return b.Const(folded)
		}
	}
	switch op {
	case NEG:
		if inner, ok := x.(*Unary); ok && inner.Op == NEG {
			return inner.X
		}
	case REV:
		if inner, ok := x.(*Unary); ok && inner.Op == REV {
			return inner.X
		}
		// LOG(EXP x) -> x and EXP(LOG x) -> x are deliberately NOT
		// applied: they hold only when x cannot be zero, and this
		// builder has no range-analysis pass to prove that, so the
		// rule is skipped conservatively per the simplifier's own
		// soundness requirement.
	}

	key := unaryKey{op: op, x: x}
	if n, ok := b.unaries[key]; ok {
		return n
	}
	n := &Unary{Op: op, X: x}
	b.unaries[key] = n
	return n
}

// Binary builds a two-operand node, applying constant folding, the
// identity-elimination table, and left-leaning constant
// canonicalization before interning.
func (b *Builder) Binary(op Op, l, r Node) Node {
	if lv, ok := AsConst(l); ok {
		if rv, ok2 := AsConst(r); ok2 {
			if folded, ok3 := foldBinary(op, lv, rv); ok3 {
				return b.Const(folded)
			}
		}
	}

	if simplified, ok := simplifyIdentity(b, op, l, r); ok {
		return simplified
	}

	if op.IsCommutative() {
		_, lConst := l.(*Const)
		_, rConst := r.(*Const)
		if !lConst && rConst {
			l, r = r, l
		}
	}

	key := binKey{op: op, l: l, r: r}
	if n, ok := b.binops[key]; ok {
		return n
	}
	n := &Binary{Op: op, L: l, R: r}
	b.binops[key] = n
	return n
}

// foldUnary evaluates op on a constant operand, for operators where
// the real-valued function is total and exact folding is safe.
func foldUnary(op Op, v float64) (float64, bool) {
	switch op {
	case NEG:
		return -v, true
	case REV:
		return 1 / v, true
	case SQR:
		return v * v, true
	case ABS:
		return math.Abs(v), true
	case SGN:
		switch {
		case v > 0:
			return 1, true
		case v < 0:
			return -1, true
		default:
			return 0, true
		}
	case SIN:
		return math.Sin(v), true
	case COS:
		return math.Cos(v), true
	case TAN:
		return math.Tan(v), true
	case ASIN:
		return math.Asin(v), true
	case ACOS:
		return math.Acos(v), true
	case ATAN:
		return math.Atan(v), true
	case SINH:
		return math.Sinh(v), true
	case COSH:
		return math.Cosh(v), true
	case TANH:
		return math.Tanh(v), true
	case EXP:
		return math.Exp(v), true
	case LOG:
		return math.Log(v), true
	case LG:
		return math.Log10(v), true
	case SQRT:
		return math.Sqrt(v), true
	case ERF:
		return math.Erf(v), true
	case NOT:
		if v == 0 {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func foldBinary(op Op, l, r float64) (float64, bool) {
	switch op {
	case ADD:
		return l + r, true
	case SUB:
		return l - r, true
	case MUL:
		return l * r, true
	case DIV:
		return l / r, true
	case POW:
		return math.Pow(l, r), true
	case AND:
		if l != 0 && r != 0 {
			return 1, true
		}
		return 0, true
	case OR:
		if l != 0 || r != 0 {
			return 1, true
		}
		return 0, true
	case LT:
		return boolf(l < r), true
	case GT:
		return boolf(l > r), true
	case LE:
		return boolf(l <= r), true
	case GE:
		return boolf(l >= r), true
	case EQ:
		return boolf(l == r), true
	case NE:
		return boolf(l != r), true
	}
	return 0, false
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// simplifyIdentity applies the identity-elimination table from the
// spec's Simplifier section. It never applies an identity that is only
// true for real numbers but not for IEEE-754 doubles (x-x->0, x/x->1
// are deliberately absent: both fail for NaN/Inf operands).
func simplifyIdentity(b *Builder, op Op, l, r Node) (Node, bool) {
	lv, lIsConst := AsConst(l)
	rv, rIsConst := AsConst(r)

	switch op {
	case ADD:
		if rIsConst && rv == 0 {
			return l, true
		}
		if lIsConst && lv == 0 {
			return r, true
		}
	case SUB:
		if rIsConst && rv == 0 {
			return l, true
		}
		if lIsConst && lv == 0 {
			return b.Unary(NEG, r), true
		}
	case MUL:
		if rIsConst && rv == 1 {
			return l, true
		}
		if lIsConst && lv == 1 {
			return r, true
		}
		if (rIsConst && rv == 0) || (lIsConst && lv == 0) {
			return b.Const(0), true
		}
	case DIV:
		if rIsConst && rv == 1 {
			return l, true
		}
	case POW:
		if rIsConst && rv == 0 {
			return b.Const(1), true
		}
		if rIsConst && rv == 1 {
			return l, true
		}
	}
	return nil, false
}
