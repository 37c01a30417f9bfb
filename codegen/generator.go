package codegen

import (
	"math"

	"parx/ast"
	"parx/compileerr"
	"parx/diff"
	"parx/parser"
	"parx/symtab"
)

// Generator linearizes the equation section, differentiates every
// residual with respect to every declared VAR and PAR, and emits the
// resulting expression graphs as a flat []uint32 program, following the
// post-order-walk-with-CSE scheme of §4.7. It plays the role the
// teacher's ASTCompiler plays for Nilan: one emit call per tree, a
// temporary-slot allocator standing in for the teacher's local-variable
// slot allocator, and panic/recover to unwind a single Generate call back
// to a returned error on an internal inconsistency, exactly like
// ASTCompiler.CompileAST.
type Generator struct {
	code        []uint32
	numbers     []float64
	numberIndex map[float64]int

	// tmpOf and tmpSeq are reset per emitted block: TMP-slot sharing is
	// scoped to one block's post-order walk (the value code for one
	// residual, or one of its derivative codes), not to the whole
	// program, so that the evaluator can run any single block in
	// isolation (e.g. to compute only the variables the caller selected)
	// without depending on another block having run first.
	tmpOf  map[ast.Node]int
	tmpSeq int
	maxTmp int
}

func New() *Generator {
	return &Generator{numberIndex: make(map[float64]int)}
}

// Generate differentiates and emits code for every declared RES, in
// declaration order, against every declared VAR and PAR.
func (g *Generator) Generate(prog *parser.Program) (out *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case compileerr.DeveloperError:
				err = v
			case compileerr.OutOfMemory:
				err = v
			default:
				panic(r)
			}
		}
	}()

	values := finalValues(prog)
	differ := diff.New(prog.Builder)

	parLower := make([]float64, len(prog.Pars))
	parUpper := make([]float64, len(prog.Pars))
	for i, par := range prog.Pars {
		parLower[i] = par.LowerLimit
		parUpper[i] = par.UpperLimit
	}
	checksEntry := g.emitChecks(parLower, parUpper)

	var residuals []ResidualLayout
	for _, res := range prog.Res {
		value, ok := values[res.Name]
		if !ok {
			panic(compileerr.DeveloperError{Message: "residual " + res.Name + " has no linearized value"})
		}

		layout := ResidualLayout{
			Name:     res.Name,
			VarEntry: make(map[int]int),
			ParEntry: make(map[int]int),
		}
		layout.ValueEntry = g.emitBlock(value)

		for i := range prog.Vars {
			d := differ.D(value, diff.Wrt{Kind: symtab.VAR, Index: i})
			layout.VarEntry[i] = g.emitBlock(d)
		}
		for i := range prog.Pars {
			d := differ.D(value, diff.Wrt{Kind: symtab.PAR, Index: i})
			layout.ParEntry[i] = g.emitBlock(d)
		}

		residuals = append(residuals, layout)
	}

	g.code = append(g.code, encode(OP_EOD, 0))

	return &Program{
		Code:          g.code,
		Numbers:       g.numbers,
		NumTemp:       g.maxTmp,
		Residuals:     residuals,
		ChecksEntry:   checksEntry,
		ParLowerLimit: parLower,
		ParUpperLimit: parUpper,
	}, nil
}

// emitChecks emits the CHKL/CHKG sequence run once at evaluator entry and
// returns its word offset. A limit of +/-Inf never gets a check emitted,
// since an unbounded side of the range can never be violated.
func (g *Generator) emitChecks(lower, upper []float64) int {
	entry := len(g.code)
	for i, v := range lower {
		if !math.IsInf(v, -1) {
			g.push(encode(OP_CHKL, uint32(i)))
		}
	}
	for i, v := range upper {
		if !math.IsInf(v, 1) {
			g.push(encode(OP_CHKG, uint32(i)))
		}
	}
	g.push(encode(OP_RET, 0))
	return entry
}

// emitBlock emits one post-order-walked expression plus a trailing RET
// and returns the word offset the block starts at.
func (g *Generator) emitBlock(n ast.Node) int {
	entry := len(g.code)
	g.tmpOf = make(map[ast.Node]int)
	g.tmpSeq = 0

	refs := make(map[ast.Node]int)
	countRefs(n, refs)

	g.emitNode(n, refs)
	g.push(encode(OP_RET, 0))

	if g.tmpSeq > g.maxTmp {
		g.maxTmp = g.tmpSeq
	}
	return entry
}

func (g *Generator) push(word uint32) {
	g.code = append(g.code, word)
}

func (g *Generator) numberSlot(v float64) int {
	if i, ok := g.numberIndex[v]; ok {
		return i
	}
	i := len(g.numbers)
	g.numbers = append(g.numbers, v)
	g.numberIndex[v] = i
	return i
}

// countRefs counts, for every node reachable from n, how many times it
// is referenced as a child in the DAG (not how many times it would be
// visited by a naive tree walk): a node's own children are only
// recursed into the first time the node itself is counted, since every
// later reference reaches the same already-counted subtree.
func countRefs(n ast.Node, refs map[ast.Node]int) {
	refs[n]++
	if refs[n] > 1 {
		return
	}
	switch v := n.(type) {
	case *ast.Unary:
		countRefs(v.X, refs)
	case *ast.Binary:
		countRefs(v.L, refs)
		countRefs(v.R, refs)
	case *ast.Cond:
		countRefs(v.If, refs)
		countRefs(v.Then, refs)
		countRefs(v.Else, refs)
	}
}

func isBranching(n ast.Node) bool {
	switch n.(type) {
	case *ast.Unary, *ast.Binary, *ast.Cond:
		return true
	}
	return false
}

// emitNode performs the post-order walk: operands before operators.
// Common subtrees (refs[n] > 1) are materialized into a TMP slot the
// first time they're computed and loaded from that slot on every later
// reference, exactly once per block, per §4.7.
func (g *Generator) emitNode(n ast.Node, refs map[ast.Node]int) {
	if slot, ok := g.tmpOf[n]; ok {
		g.push(encode(OP_LDTMP, uint32(slot)))
		return
	}

	switch v := n.(type) {
	case *ast.Const:
		g.push(encode(OP_NUM, uint32(g.numberSlot(v.Value))))
	case *ast.Ref:
		g.push(encode(OP_OPD, packOperand(int(v.Kind), v.Index)))
	case *ast.Unary:
		g.emitNode(v.X, refs)
		g.push(encode(unaryOp[v.Op], 0))
	case *ast.Binary:
		g.emitNode(v.L, refs)
		g.emitNode(v.R, refs)
		g.push(encode(binaryOp[v.Op], 0))
	case *ast.Cond:
		g.emitCond(v, refs)
	default:
		panic(compileerr.DeveloperError{Message: "unknown node type in code generator"})
	}

	if isBranching(n) && refs[n] > 1 {
		slot := g.tmpSeq
		g.tmpSeq++
		g.push(encode(OP_DUP, 0))
		g.push(encode(OP_STMP, uint32(slot)))
		g.tmpOf[n] = slot
	}
}

// emitCond emits IF <elseTarget>, <then code>, JMP <end>, <else code>,
// backpatched once both branch lengths are known, in the style of the
// teacher's emitPlaceholderJump/patchJump.
func (g *Generator) emitCond(c *ast.Cond, refs map[ast.Node]int) {
	g.emitNode(c.If, refs)
	ifWord := len(g.code)
	g.push(encode(OP_IF, 0)) // placeholder operand, patched below

	g.emitNode(c.Then, refs)
	jmpWord := len(g.code)
	g.push(encode(OP_JMP, 0)) // placeholder operand, patched below

	elseEntry := len(g.code)
	g.emitNode(c.Else, refs)
	end := len(g.code)

	g.code[ifWord] = encode(OP_IF, uint32(elseEntry))
	g.code[jmpWord] = encode(OP_JMP, uint32(end))
}

var unaryOp = map[ast.Op]Op{
	ast.NEG: OP_NEG, ast.REV: OP_REV, ast.SQR: OP_SQR, ast.NOT: OP_NOT,
	ast.SIN: OP_SIN, ast.COS: OP_COS, ast.TAN: OP_TAN,
	ast.ASIN: OP_ASIN, ast.ACOS: OP_ACOS, ast.ATAN: OP_ATAN,
	ast.SINH: OP_SINH, ast.COSH: OP_COSH, ast.TANH: OP_TANH,
	ast.EXP: OP_EXP, ast.LOG: OP_LOG, ast.LG: OP_LG, ast.SQRT: OP_SQRT,
	ast.ABS: OP_ABS, ast.SGN: OP_SGN, ast.ERF: OP_ERF,
}

var binaryOp = map[ast.Op]Op{
	ast.ADD: OP_ADD, ast.SUB: OP_SUB, ast.MUL: OP_MUL, ast.DIV: OP_DIV, ast.POW: OP_POW,
	ast.AND: OP_AND, ast.OR: OP_OR,
	ast.LT: OP_LT, ast.GT: OP_GT, ast.LE: OP_LE, ast.GE: OP_GE, ast.EQ: OP_EQ, ast.NE: OP_NE,
}
