package codegen

import (
	"parx/ast"
	"parx/parser"
	"parx/symtab"
)

// linearize reduces the equation section's statement list to a single
// final expression per assigned RES/AUX name, by propagating each
// assignment's value forward and folding a conditional's two branches
// into one ast.Cond value node wherever a name is assigned differently
// on each side — the bridge from the statement-oriented parse ("name =
// expr;", "if/else/fi") to the value-oriented graph codegen and diff
// both already operate over via a type switch on ast.Node.
func linearize(b *ast.Builder, stmts []ast.Stmt, values map[string]ast.Node) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Assign:
			values[s.Target.Name] = s.Value

		case *ast.If:
			thenValues := cloneValues(values)
			linearize(b, s.Then, thenValues)
			elseValues := cloneValues(values)
			if s.Else != nil {
				linearize(b, s.Else, elseValues)
			}
			mergeBranches(b, s.Cond, values, thenValues, elseValues)
		}
	}
}

func cloneValues(m map[string]ast.Node) map[string]ast.Node {
	out := make(map[string]ast.Node, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeBranches folds thenValues/elseValues back into values: any name
// touched by either branch gets a Cond node unless both branches agree
// on the exact same node (pointer equality), in which case no branching
// is needed in the emitted code at all. A name touched in only one
// branch falls back, on the untouched branch, to its value before the
// conditional — or to a zero constant if it had none, which can only
// happen for a name the parser's assignment-exclusivity check already
// would have flagged as not consistently assigned.
func mergeBranches(b *ast.Builder, cond ast.Node, values, thenValues, elseValues map[string]ast.Node) {
	seen := make(map[string]bool)
	touched := func(m map[string]ast.Node) {
		for name := range m {
			if !seen[name] {
				seen[name] = true
			}
		}
	}
	touched(thenValues)
	touched(elseValues)

	for name := range seen {
		tv, hasThen := thenValues[name]
		ev, hasElse := elseValues[name]
		prior, hasPrior := values[name]

		if !hasThen {
			if hasPrior {
				tv = prior
			} else {
				tv = b.Const(0)
			}
		}
		if !hasElse {
			if hasPrior {
				ev = prior
			} else {
				ev = b.Const(0)
			}
		}

		if tv == ev {
			values[name] = tv
			continue
		}
		values[name] = b.Cond(cond, tv, ev)
	}
}

// finalValues runs linearize over the full equation section and returns
// the resulting name -> final-expression map, with every AUX and TMP
// reference substituted by its own final value (recursively, since an
// AUX may itself reference another AUX or a TMP). AUX and TMP carry no
// evaluator input vector of their own — unlike VAR/PAR/CON/FLG, the
// evaluate() surface in §6 never passes their values in — so by the
// time codegen walks a residual's value tree, every leaf must resolve to
// one of the five declared-table kinds the interpreter actually reads.
// Substituting them here, before differentiation, also gives "for each
// assignment statement whose left-hand side is a RES or AUX, the
// differentiator produces... chain-rule contributions" for free: the
// chain rule through an AUX's own dependence on VAR/PAR falls out of
// differentiating the already-substituted tree, with no separate
// chain-rule bookkeeping needed.
func finalValues(prog *parser.Program) map[string]ast.Node {
	values := make(map[string]ast.Node)
	linearize(prog.Builder, prog.Equations, values)

	memo := make(map[ast.Node]ast.Node)
	out := make(map[string]ast.Node, len(values))
	for _, res := range prog.Res {
		if v, ok := values[res.Name]; ok {
			out[res.Name] = substitute(prog.Builder, v, values, memo)
		}
	}
	return out
}

// substitute walks n, replacing every AUX/TMP Ref with the (recursively
// substituted) node it was assigned, and rebuilding Unary/Binary/Cond
// parents through the Builder so the result stays CSE'd and simplified.
// Results are memoized by original-node identity since the source graph
// is a DAG and the same shared subtree must not be walked twice.
func substitute(b *ast.Builder, n ast.Node, values map[string]ast.Node, memo map[ast.Node]ast.Node) ast.Node {
	if out, ok := memo[n]; ok {
		return out
	}

	var out ast.Node
	switch v := n.(type) {
	case *ast.Const:
		out = v

	case *ast.Ref:
		if v.Kind == symtab.AUX || v.Kind == symtab.TMP {
			def, ok := values[v.Name]
			if !ok {
				// Caught earlier as a SemanticError (AUX used but never
				// assigned); substituting to 0 keeps this pass total.
				out = b.Const(0)
				break
			}
			out = substitute(b, def, values, memo)
			break
		}
		out = v

	case *ast.Unary:
		out = b.Unary(v.Op, substitute(b, v.X, values, memo))

	case *ast.Binary:
		out = b.Binary(v.Op, substitute(b, v.L, values, memo), substitute(b, v.R, values, memo))

	case *ast.Cond:
		out = b.Cond(
			substitute(b, v.If, values, memo),
			substitute(b, v.Then, values, memo),
			substitute(b, v.Else, values, memo),
		)

	default:
		out = n
	}

	memo[n] = out
	return out
}
