package codegen

// Program is the compiled artifact: the flat CODE word vector, the
// number pool, and the per-residual code offsets the evaluator needs to
// find where each residual's value code, selected-variable derivative
// code, and selected-parameter derivative code begins, per §4.7's
// program layout.
type Program struct {
	Code    []uint32
	Numbers []float64

	// NumTemp is the high-water mark of TMP scratch slots used by any
	// single residual's code (including its derivative blocks); it sizes
	// the evaluator's per-call scratch array.
	NumTemp int

	// Residuals describes, per declared RES (in declaration order), the
	// entry word index of its residual-value code block and the entry
	// word index of each selected variable's and parameter's derivative
	// block, keyed by that variable's/parameter's declared index.
	Residuals []ResidualLayout

	// ChecksEntry is the word index of the CHKL/CHKG sequence run once at
	// evaluator entry, per §4.7 ("range checks on parameters become
	// CHKL(index)/CHKG(index) emitted at evaluator entry"). ParLowerLimit
	// and ParUpperLimit hold the declared PAR limits the checks compare
	// against, indexed the same way as the PAR declared index packed into
	// each CHKL/CHKG operand; a non-finite limit never gets a check
	// emitted for it, since an unbounded side of the range can never be
	// violated.
	ChecksEntry   int
	ParLowerLimit []float64
	ParUpperLimit []float64
}

// ResidualLayout locates one residual's emitted code blocks within
// Program.Code.
type ResidualLayout struct {
	Name        string
	ValueEntry  int
	VarEntry    map[int]int // VAR declared index -> entry word index
	ParEntry    map[int]int // PAR declared index -> entry word index
}
