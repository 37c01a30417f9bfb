package codegen

import (
	"math"
	"testing"

	"parx/parser"
)

func generate(t *testing.T, source string) *Program {
	t.Helper()
	p := parser.New("<test>", source)
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("Parse() returned errors: %v", errs)
	}
	gen := New()
	compiled, err := gen.Generate(prog)
	if err != nil {
		t.Fatalf("Generate() returned an error: %v", err)
	}
	return compiled
}

func TestGenerateProducesOneLayoutPerResidual(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
par a = {2, 0, 10, 0, 10}
res r1 = {}
res r2 = {}
equation
r1 = a*x;
r2 = x + a;
end
`
	compiled := generate(t, src)
	if len(compiled.Residuals) != 2 {
		t.Fatalf("Residuals = %d entries, want 2", len(compiled.Residuals))
	}
	if compiled.Residuals[0].Name != "r1" || compiled.Residuals[1].Name != "r2" {
		t.Errorf("Residuals in declaration order = %v", compiled.Residuals)
	}
	for _, layout := range compiled.Residuals {
		if len(layout.VarEntry) != 1 {
			t.Errorf("%s.VarEntry has %d entries, want 1 (for var x)", layout.Name, len(layout.VarEntry))
		}
		if len(layout.ParEntry) != 1 {
			t.Errorf("%s.ParEntry has %d entries, want 1 (for par a)", layout.Name, len(layout.ParEntry))
		}
	}
}

func TestEveryCodeBlockEndsInRET(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = x*x + x;
end
`
	compiled := generate(t, src)
	entry := compiled.Residuals[0].ValueEntry
	ip := entry
	for {
		op, _ := Decode(compiled.Code[ip])
		if op == OP_RET {
			break
		}
		ip++
		if ip >= len(compiled.Code) {
			t.Fatalf("ran off the end of Code before reaching OP_RET")
		}
	}
}

func TestSharedSubexpressionMaterializedOnce(t *testing.T) {
	// (x*x) appears twice; the generator should compute it once and
	// reuse it through a TMP slot rather than emitting the multiply
	// twice.
	src := `model t
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = x*x + x*x;
end
`
	compiled := generate(t, src)
	if compiled.NumTemp < 1 {
		t.Errorf("NumTemp = %d, want at least 1 TMP slot for the shared x*x subexpression", compiled.NumTemp)
	}

	entry := compiled.Residuals[0].ValueEntry
	mulCount := 0
	for ip := entry; ; ip++ {
		op, _ := Decode(compiled.Code[ip])
		if op == OP_MUL {
			mulCount++
		}
		if op == OP_RET {
			break
		}
	}
	if mulCount != 1 {
		t.Errorf("MUL emitted %d times, want exactly 1 (the shared subexpression materialized once)", mulCount)
	}
}

func TestProgramEndsInEOD(t *testing.T) {
	compiled := generate(t, `model t
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = x;
end
`)
	op, _ := Decode(compiled.Code[len(compiled.Code)-1])
	if op != OP_EOD {
		t.Errorf("last code word decodes to %v, want OP_EOD", op)
	}
}

func TestChecksEmitOnlyForBoundedLimits(t *testing.T) {
	compiled := generate(t, `model t
declaration
var x = {1e-6, -1, 1}
par a = {2, 0, 10, 0, 10}
par b = {3, -10, 10, -inf, inf}
res r = {}
equation
r = a*x + b;
end
`)
	wantLower := []float64{0, math.Inf(-1)}
	wantUpper := []float64{10, math.Inf(1)}
	for i := range wantLower {
		if compiled.ParLowerLimit[i] != wantLower[i] || compiled.ParUpperLimit[i] != wantUpper[i] {
			t.Fatalf("par[%d] limits = [%v, %v], want [%v, %v]", i, compiled.ParLowerLimit[i], compiled.ParUpperLimit[i], wantLower[i], wantUpper[i])
		}
	}

	var chkl, chkg int
	for ip := compiled.ChecksEntry; ; ip++ {
		op, operand := Decode(compiled.Code[ip])
		switch op {
		case OP_CHKL:
			chkl++
			if operand != 0 {
				t.Errorf("OP_CHKL operand = %d, want 0 (only par a is lower-bounded)", operand)
			}
		case OP_CHKG:
			chkg++
			if operand != 0 {
				t.Errorf("OP_CHKG operand = %d, want 0 (only par a is upper-bounded)", operand)
			}
		case OP_RET:
			goto done
		}
	}
done:
	if chkl != 1 || chkg != 1 {
		t.Errorf("emitted %d CHKL and %d CHKG, want exactly 1 of each (par b's +/-inf limits need no check)", chkl, chkg)
	}
}
