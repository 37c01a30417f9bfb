// Package codegen linearizes an equation-section statement list (plus
// its differentiator-produced derivative trees) into the stack-machine
// program vm.Evaluator executes: a flat []uint32 of CODE words and a
// parallel number pool, following §4.7's post-order-walk, CSE-aware
// emission scheme. It plays the role the teacher's
// compiler.ASTCompiler.CompileAST plays for Nilan — a tree-to-bytecode
// visitor with jump backpatching for control flow — generalized from a
// byte-oriented Instructions stream to uint32 CODE words, since §6's
// persisted bytecode format is a uniform little-endian uint32 array
// rather than a variable-width opcode encoding.
package codegen

// Op tags one CODE word's operation. Packing follows a fixed
// tag-in-high-byte/operand-in-low-24-bits scheme: word = uint32(op)<<24 |
// (operand & 0x00FFFFFF). Every Op here is one the code generator
// actually emits; the full OPR/CODE tag set in spec §3 (INC, DEC, EQU,
// ASS, NASS, CLR, SOK, STOP, DOPD, LDF, ...) is wider than what compiled
// programs in this implementation use, since several of those tags exist
// for the reference representation's internal bookkeeping rather than
// for values reachable from the equation-section grammar. LDF in
// particular collapses into OP_OPD here: a FLG reference is just another
// packed Kind/index load, so a dedicated flag-load tag would be a second
// opcode for exactly the same dispatch OP_OPD already performs.
type Op uint8

const (
	OP_NUM Op = iota // number-pool load; operand: pool index
	OP_OPD           // declared-symbol load; operand: packed Kind/index

	OP_NEG
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_POW
	OP_REV
	OP_SQR

	OP_SIN
	OP_COS
	OP_TAN
	OP_ASIN
	OP_ACOS
	OP_ATAN
	OP_SINH
	OP_COSH
	OP_TANH
	OP_EXP
	OP_LOG
	OP_LG
	OP_SQRT
	OP_ABS
	OP_SGN
	OP_ERF

	OP_AND
	OP_OR
	OP_NOT
	OP_LT
	OP_GT
	OP_LE
	OP_GE
	OP_EQ
	OP_NE

	OP_DUP        // duplicate top of stack, used before materializing a CSE'd value
	OP_STMP       // pop top of stack into the TMP scratch slot named by operand
	OP_LDTMP      // push the TMP scratch slot named by operand

	OP_JMP  // unconditional jump; operand: absolute word index
	OP_IF   // pop condition; jump to operand (absolute word index) if zero
	OP_RET  // end of one residual/derivative's code, result is top of stack
	OP_EOD  // end of program

	// OP_CHKL and OP_CHKG are entry-point range checks, per §4.7: operand
	// is the PAR declared index; the limit itself isn't packed into the
	// operand (a limit is a float, and may be +/-Inf) but looked up in
	// Program.ParLowerLimit/ParUpperLimit, indexed the same way.
	OP_CHKL // lower-limit check against Program.ParLowerLimit[operand]
	OP_CHKG // upper-limit check against Program.ParUpperLimit[operand]
)

// operandKindBits packs a symtab.Kind (0..6) into the top 3 bits of an
// OP_OPD operand, leaving 21 bits (2M) for the within-kind index.
const operandKindShift = 21

func packOperand(kind, index int) uint32 {
	return uint32(kind)<<operandKindShift | uint32(index)&((1<<operandKindShift)-1)
}

func unpackOperand(operand uint32) (kind, index int) {
	return int(operand >> operandKindShift), int(operand & ((1 << operandKindShift) - 1))
}

// UnpackOperand exposes unpackOperand to other packages (the vm
// dispatch loop, the disassembler) without exporting the shift constant
// itself.
func UnpackOperand(operand uint32) (kind, index int) {
	return unpackOperand(operand)
}

func encode(op Op, operand uint32) uint32 {
	return uint32(op)<<24 | (operand & 0x00FFFFFF)
}

// Decode splits a CODE word into its Op tag and 24-bit operand, used by
// both the VM dispatch loop and the disassembler.
func Decode(word uint32) (Op, uint32) {
	return Op(word >> 24), word & 0x00FFFFFF
}
