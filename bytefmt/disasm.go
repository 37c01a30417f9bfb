package bytefmt

import (
	"fmt"
	"strings"

	"parx/codegen"
)

// opNames mirrors codegen's unexported mnemonic table so the
// disassembler doesn't need codegen to export one; it only has to stay
// readable, not round-trip.
var opNames = map[codegen.Op]string{
	codegen.OP_NUM: "NUM", codegen.OP_OPD: "OPD",
	codegen.OP_NEG: "NEG", codegen.OP_ADD: "ADD", codegen.OP_SUB: "SUB",
	codegen.OP_MUL: "MUL", codegen.OP_DIV: "DIV", codegen.OP_POW: "POW",
	codegen.OP_REV: "REV", codegen.OP_SQR: "SQR",
	codegen.OP_SIN: "SIN", codegen.OP_COS: "COS", codegen.OP_TAN: "TAN",
	codegen.OP_ASIN: "ASIN", codegen.OP_ACOS: "ACOS", codegen.OP_ATAN: "ATAN",
	codegen.OP_SINH: "SINH", codegen.OP_COSH: "COSH", codegen.OP_TANH: "TANH",
	codegen.OP_EXP: "EXP", codegen.OP_LOG: "LOG", codegen.OP_LG: "LG",
	codegen.OP_SQRT: "SQRT", codegen.OP_ABS: "ABS", codegen.OP_SGN: "SGN", codegen.OP_ERF: "ERF",
	codegen.OP_AND: "AND", codegen.OP_OR: "OR", codegen.OP_NOT: "NOT",
	codegen.OP_LT: "LT", codegen.OP_GT: "GT", codegen.OP_LE: "LE", codegen.OP_GE: "GE",
	codegen.OP_EQ: "EQ", codegen.OP_NE: "NE",
	codegen.OP_DUP: "DUP", codegen.OP_STMP: "STMP", codegen.OP_LDTMP: "LDTMP",
	codegen.OP_JMP: "JMP", codegen.OP_IF: "IF", codegen.OP_RET: "RET", codegen.OP_EOD: "EOD",
	codegen.OP_CHKL: "CHKL", codegen.OP_CHKG: "CHKG",
}

var kindNames = [...]string{"VAR", "AUX", "PAR", "CON", "FLG", "RES", "TMP"}

// Disassemble renders code as one mnemonic line per CODE word, the way
// the teacher's DiassembleBytecode renders one line per instruction,
// generalized from its byte-oriented Instructions stream to this
// format's uniform uint32 words: no instruction-width bookkeeping is
// needed since every word is exactly one CODE unit.
func Disassemble(code []uint32, numbers []float64) string {
	var b strings.Builder
	for ip, word := range code {
		op, operand := codegen.Decode(word)
		name := opNames[op]
		if name == "" {
			name = fmt.Sprintf("OP?(%d)", op)
		}
		switch op {
		case codegen.OP_NUM:
			var v float64
			if int(operand) < len(numbers) {
				v = numbers[operand]
			}
			fmt.Fprintf(&b, "%04d  %-6s #%d (%v)\n", ip, name, operand, v)
		case codegen.OP_OPD:
			kind, idx := codegen.UnpackOperand(operand)
			kn := "?"
			if kind >= 0 && kind < len(kindNames) {
				kn = kindNames[kind]
			}
			fmt.Fprintf(&b, "%04d  %-6s %s[%d]\n", ip, name, kn, idx)
		case codegen.OP_JMP, codegen.OP_IF:
			fmt.Fprintf(&b, "%04d  %-6s -> %d\n", ip, name, operand)
		case codegen.OP_STMP, codegen.OP_LDTMP:
			fmt.Fprintf(&b, "%04d  %-6s slot %d\n", ip, name, operand)
		case codegen.OP_CHKL, codegen.OP_CHKG:
			fmt.Fprintf(&b, "%04d  %-6s PAR[%d]\n", ip, name, operand)
		default:
			fmt.Fprintf(&b, "%04d  %-6s\n", ip, name)
		}
	}
	return b.String()
}
