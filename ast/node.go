package ast

import "parx/symtab"

// Node is the expression-graph interface. Every concrete node type is
// a pointer type so that two Node values compare equal iff they are
// the same arena-owned object — the pointer-identity CSE the spec's
// code generator relies on ("common subtrees de-duplicated by identity
// ... within the arena") falls directly out of Go's pointer equality
// and needs no separate identity field.
type Node interface {
	isNode()
}

// Const is a number-pool leaf.
type Const struct {
	Value float64
}

func (*Const) isNode() {}

// Ref is a symbol-table leaf: a VAR/AUX/PAR/CON/FLG/TMP reference by
// kind and within-kind index.
type Ref struct {
	Kind  symtab.Kind
	Index int
	Name  string
}

func (*Ref) isNode() {}

// Unary is a one-operand operator node.
type Unary struct {
	Op Op
	X  Node
}

func (*Unary) isNode() {}

// Binary is a two-operand operator node.
type Binary struct {
	Op   Op
	L, R Node
}

func (*Binary) isNode() {}

// Cond is a value-level conditional (cond ? then : else), the Node-sum-
// type form of an equation-section if/else/fi once constant propagation
// over the statement list has reduced it to a single expression per
// assigned symbol; see package codegen's linearizer. Its derivative is
// itself a Cond over the branch derivatives, since the condition is
// piecewise-constant and gates which branch's derivative applies.
type Cond struct {
	If, Then, Else Node
}

func (*Cond) isNode() {}

// AsConst reports whether n is a constant leaf and returns its value.
func AsConst(n Node) (float64, bool) {
	c, ok := n.(*Const)
	if !ok {
		return 0, false
	}
	return c.Value, true
}
