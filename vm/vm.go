// Package vm implements the stack-machine interpreter of spec §4.8: it
// executes the flat []uint32 CODE vector codegen.Generator produces to
// compute a residual vector r and, optionally, its Jacobians with
// respect to the declared VAR and PAR inputs. It follows the fetch-
// decode-dispatch shape of the teacher's vm.VM.Run (instruction pointer,
// switch over opcode, explicit advance-by-width) generalized from a
// single-result `[]any` expression evaluator to one producing a
// residual vector plus Jacobian matrices over a `[]float64` stack, since
// the model DSL is untyped apart from the boolean-as-float FLG inputs.
package vm

import (
	"math"

	"parx/codegen"
	"parx/symtab"
)

// Evaluator wraps a compiled Program. It holds no mutable state of its
// own: every Evaluate call allocates its own operand stack and TMP
// scratch array, so one Evaluator is safe to call concurrently from
// multiple goroutines, per §5's re-entrancy requirement, as long as each
// caller passes its own input/output buffers.
type Evaluator struct {
	prog *codegen.Program
}

// New returns an Evaluator over the compiled program prog. prog is
// never mutated after compilation; Evaluate only ever reads it.
func New(prog *codegen.Program) *Evaluator {
	return &Evaluator{prog: prog}
}

// Evaluate computes the residual vector r (length len(Residuals)) and,
// when requested, the selected columns of its Jacobians, following the
// §6 evaluator surface. x, a, p, c, f are the declared VAR, AUX, PAR,
// CON, FLG input vectors in declared-index order.
//
// jacX and jacP are [residual][declared-index] matrices; only columns
// selected by varFlags/parFlags are written when jacXFlag/jacPFlag are
// true (an unselected or flag-false column is left exactly as the
// caller passed it in, conventionally zero). jacA is accepted for
// interface symmetry with the §6 surface but is never written: AUX
// references are substituted away by the code generator before any
// CODE word is emitted (see codegen.finalValues), so a compiled
// program never reads the `a` vector and ∂r/∂a, with AUX eliminated
// from the residual expression entirely, is identically zero — see
// DESIGN.md's resolution of this Open Question.
//
// On a domain error (division by zero, log/sqrt of a non-positive
// operand, a POW domain violation, or operand-stack underflow) Evaluate
// returns a non-nil *DomainError; r and the Jacobian buffers retain
// whatever they held before the failing residual's block ran, per §4.8.
func (e *Evaluator) Evaluate(
	x, a, p, c, f []float64,
	r []float64,
	jacXFlag bool, varFlags []bool, jacX [][]float64,
	jacA [][]float64,
	jacPFlag bool, parFlags []bool, jacP [][]float64,
) error {
	if err := e.runChecks(p); err != nil {
		return err
	}

	for k, layout := range e.prog.Residuals {
		tmp := make([]float64, e.prog.NumTemp)
		v, err := e.runBlock(layout.ValueEntry, x, p, c, f, tmp)
		if err != nil {
			return err
		}
		r[k] = v

		if jacXFlag {
			for j, entry := range layout.VarEntry {
				if j >= len(varFlags) || !varFlags[j] {
					continue
				}
				tmp := make([]float64, e.prog.NumTemp)
				v, err := e.runBlock(entry, x, p, c, f, tmp)
				if err != nil {
					return err
				}
				jacX[k][j] = v
			}
		}

		if jacPFlag {
			for m, entry := range layout.ParEntry {
				if m >= len(parFlags) || !parFlags[m] {
					continue
				}
				tmp := make([]float64, e.prog.NumTemp)
				v, err := e.runBlock(entry, x, p, c, f, tmp)
				if err != nil {
					return err
				}
				jacP[k][m] = v
			}
		}
	}
	return nil
}

// maxStackDepth bounds the operand stack the way §5 describes
// ("bounded by the compile-time maximum tree depth × 2"): the code
// generator never emits a tree deeper than the whole program itself, so
// this is a generous, cheap-to-check ceiling that only ever trips
// against a corrupted or hand-written bytecode stream.
func (e *Evaluator) maxStackDepth() int {
	return len(e.prog.Code) + 16
}

// runChecks executes the CHKL/CHKG sequence at Program.ChecksEntry,
// validating every bounded PAR in p against its declared limit before any
// residual runs, per §4.7. Unlike runBlock's expression blocks, a checks
// block pushes nothing; it runs straight through to OP_RET (or the first
// violated limit) and returns.
func (e *Evaluator) runChecks(p []float64) error {
	ip := e.prog.ChecksEntry
	for {
		word := e.prog.Code[ip]
		op, operand := codegen.Decode(word)

		switch op {
		case codegen.OP_CHKL:
			if p[operand] < e.prog.ParLowerLimit[operand] {
				return DomainError{Kind: ParamOutOfRange, Message: "parameter below its declared lower limit"}
			}
			ip++
		case codegen.OP_CHKG:
			if p[operand] > e.prog.ParUpperLimit[operand] {
				return DomainError{Kind: ParamOutOfRange, Message: "parameter above its declared upper limit"}
			}
			ip++
		case codegen.OP_RET:
			return nil
		default:
			return DomainError{Kind: StackUnderflow, Message: "unexpected opcode in checks block"}
		}
	}
}

// runBlock executes the straight-line (branching only via IF/JMP) CODE
// block starting at entry until it reaches OP_RET, and returns the
// value left on top of the stack at that point.
func (e *Evaluator) runBlock(entry int, x, p, c, f []float64, tmp []float64) (float64, error) {
	var stack Stack
	limit := e.maxStackDepth()
	ip := entry

	pop1 := func() (float64, error) {
		v, ok := stack.Pop()
		if !ok {
			return 0, DomainError{Kind: StackUnderflow, Message: "operand stack underflow"}
		}
		return v, nil
	}
	pop2 := func() (float64, float64, error) {
		rhs, ok := stack.Pop()
		if !ok {
			return 0, 0, DomainError{Kind: StackUnderflow, Message: "operand stack underflow"}
		}
		lhs, ok := stack.Pop()
		if !ok {
			return 0, 0, DomainError{Kind: StackUnderflow, Message: "operand stack underflow"}
		}
		return lhs, rhs, nil
	}
	push := func(v float64) error {
		if len(stack) >= limit {
			return DomainError{Kind: StackOverflow, Message: "operand stack overflow"}
		}
		stack.Push(v)
		return nil
	}

	for {
		word := e.prog.Code[ip]
		op, operand := codegen.Decode(word)

		switch op {
		case codegen.OP_NUM:
			if err := push(e.prog.Numbers[operand]); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_OPD:
			kind, idx := codegen.UnpackOperand(operand)
			v, err := loadOperand(symtab.Kind(kind), idx, x, p, c, f)
			if err != nil {
				return 0, err
			}
			if err := push(v); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_NEG:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			if err := push(-v); err != nil {
				return 0, err
			}
			ip++
		case codegen.OP_REV:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			if v == 0 {
				return 0, DomainError{Kind: DivByZero, Message: "reciprocal of zero"}
			}
			if err := push(1 / v); err != nil {
				return 0, err
			}
			ip++
		case codegen.OP_SQR:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			if err := push(v * v); err != nil {
				return 0, err
			}
			ip++
		case codegen.OP_NOT:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			if err := push(boolf(v == 0)); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_ADD, codegen.OP_SUB, codegen.OP_MUL, codegen.OP_DIV, codegen.OP_POW,
			codegen.OP_AND, codegen.OP_OR,
			codegen.OP_LT, codegen.OP_GT, codegen.OP_LE, codegen.OP_GE, codegen.OP_EQ, codegen.OP_NE:
			lhs, rhs, err := pop2()
			if err != nil {
				return 0, err
			}
			v, err := binaryResult(op, lhs, rhs)
			if err != nil {
				return 0, err
			}
			if err := push(v); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_SIN, codegen.OP_COS, codegen.OP_TAN, codegen.OP_ASIN, codegen.OP_ACOS, codegen.OP_ATAN,
			codegen.OP_SINH, codegen.OP_COSH, codegen.OP_TANH, codegen.OP_EXP, codegen.OP_LOG, codegen.OP_LG,
			codegen.OP_SQRT, codegen.OP_ABS, codegen.OP_SGN, codegen.OP_ERF:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			result, err := unaryResult(op, v)
			if err != nil {
				return 0, err
			}
			if err := push(result); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_DUP:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			if err := push(v); err != nil {
				return 0, err
			}
			if err := push(v); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_STMP:
			v, err := pop1()
			if err != nil {
				return 0, err
			}
			tmp[operand] = v
			ip++

		case codegen.OP_LDTMP:
			if err := push(tmp[operand]); err != nil {
				return 0, err
			}
			ip++

		case codegen.OP_IF:
			cond, err := pop1()
			if err != nil {
				return 0, err
			}
			if cond == 0 {
				ip = int(operand)
			} else {
				ip++
			}

		case codegen.OP_JMP:
			ip = int(operand)

		case codegen.OP_RET:
			return pop1()

		case codegen.OP_EOD:
			return 0, DomainError{Kind: StackUnderflow, Message: "reached end of program inside a block"}

		default:
			return 0, DomainError{Kind: StackUnderflow, Message: "unknown opcode in compiled program"}
		}
	}
}

func loadOperand(kind symtab.Kind, idx int, x, p, c, f []float64) (float64, error) {
	switch kind {
	case symtab.VAR:
		return x[idx], nil
	case symtab.PAR:
		return p[idx], nil
	case symtab.CON:
		return c[idx], nil
	case symtab.FLG:
		return f[idx], nil
	default:
		return 0, DomainError{Kind: StackUnderflow, Message: "unsupported operand kind in compiled program"}
	}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func binaryResult(op codegen.Op, l, r float64) (float64, error) {
	switch op {
	case codegen.OP_ADD:
		return l + r, nil
	case codegen.OP_SUB:
		return l - r, nil
	case codegen.OP_MUL:
		return l * r, nil
	case codegen.OP_DIV:
		if r == 0 {
			return 0, DomainError{Kind: DivByZero, Message: "division by zero"}
		}
		return l / r, nil
	case codegen.OP_POW:
		if l < 0 && r != math.Trunc(r) {
			return 0, DomainError{Kind: PowDomain, Message: "negative base with non-integer exponent"}
		}
		if l == 0 && r < 0 {
			return 0, DomainError{Kind: PowDomain, Message: "zero base with negative exponent"}
		}
		return math.Pow(l, r), nil
	case codegen.OP_AND:
		return boolf(l != 0 && r != 0), nil
	case codegen.OP_OR:
		return boolf(l != 0 || r != 0), nil
	case codegen.OP_LT:
		return boolf(l < r), nil
	case codegen.OP_GT:
		return boolf(l > r), nil
	case codegen.OP_LE:
		return boolf(l <= r), nil
	case codegen.OP_GE:
		return boolf(l >= r), nil
	case codegen.OP_EQ:
		return boolf(l == r), nil
	case codegen.OP_NE:
		return boolf(l != r), nil
	}
	return 0, DomainError{Kind: StackUnderflow, Message: "unknown binary opcode"}
}

func unaryResult(op codegen.Op, v float64) (float64, error) {
	switch op {
	case codegen.OP_SIN:
		return math.Sin(v), nil
	case codegen.OP_COS:
		return math.Cos(v), nil
	case codegen.OP_TAN:
		return math.Tan(v), nil
	case codegen.OP_ASIN:
		if v < -1 || v > 1 {
			return 0, DomainError{Kind: PowDomain, Message: "asin argument out of [-1,1]"}
		}
		return math.Asin(v), nil
	case codegen.OP_ACOS:
		if v < -1 || v > 1 {
			return 0, DomainError{Kind: PowDomain, Message: "acos argument out of [-1,1]"}
		}
		return math.Acos(v), nil
	case codegen.OP_ATAN:
		return math.Atan(v), nil
	case codegen.OP_SINH:
		return math.Sinh(v), nil
	case codegen.OP_COSH:
		return math.Cosh(v), nil
	case codegen.OP_TANH:
		return math.Tanh(v), nil
	case codegen.OP_EXP:
		return math.Exp(v), nil
	case codegen.OP_LOG:
		if v <= 0 {
			return 0, DomainError{Kind: LogNonPositive, Message: "log of non-positive operand"}
		}
		return math.Log(v), nil
	case codegen.OP_LG:
		if v <= 0 {
			return 0, DomainError{Kind: LogNonPositive, Message: "lg of non-positive operand"}
		}
		return math.Log10(v), nil
	case codegen.OP_SQRT:
		if v < 0 {
			return 0, DomainError{Kind: SqrtNegative, Message: "sqrt of negative operand"}
		}
		return math.Sqrt(v), nil
	case codegen.OP_ABS:
		return math.Abs(v), nil
	case codegen.OP_SGN:
		switch {
		case v > 0:
			return 1, nil
		case v < 0:
			return -1, nil
		default:
			return 0, nil
		}
	case codegen.OP_ERF:
		return math.Erf(v), nil
	}
	return 0, DomainError{Kind: StackUnderflow, Message: "unknown unary opcode"}
}
