package vm

import (
	"testing"

	"parx/codegen"
	"parx/parser"
)

func compile(t *testing.T, source string) *codegen.Program {
	t.Helper()
	p := parser.New("<test>", source)
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("Parse() returned errors: %v", errs)
	}
	gen := codegen.New()
	compiled, err := gen.Generate(prog)
	if err != nil {
		t.Fatalf("Generate() returned an error: %v", err)
	}
	return compiled
}

func TestDivisionByZeroIsADomainError(t *testing.T) {
	src := `model div0
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = 1/x;
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	err := ev.Evaluate([]float64{0}, nil, nil, nil, nil, r, false, nil, nil, nil, false, nil, nil)
	de, ok := err.(DomainError)
	if !ok {
		t.Fatalf("Evaluate() at x=0 returned %v, want a DomainError", err)
	}
	if de.Kind != DivByZero {
		t.Errorf("DomainError.Kind = %v, want DivByZero", de.Kind)
	}
}

func TestLogOfNonPositiveIsADomainError(t *testing.T) {
	src := `model logneg
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = log(x);
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	err := ev.Evaluate([]float64{-1}, nil, nil, nil, nil, r, false, nil, nil, nil, false, nil, nil)
	de, ok := err.(DomainError)
	if !ok {
		t.Fatalf("Evaluate() at x=-1 returned %v, want a DomainError", err)
	}
	if de.Kind != LogNonPositive {
		t.Errorf("DomainError.Kind = %v, want LogNonPositive", de.Kind)
	}
}

func TestSqrtOfNegativeIsADomainError(t *testing.T) {
	src := `model sqrtneg
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = sqrt(x);
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	err := ev.Evaluate([]float64{-4}, nil, nil, nil, nil, r, false, nil, nil, nil, false, nil, nil)
	de, ok := err.(DomainError)
	if !ok {
		t.Fatalf("Evaluate() at x=-4 returned %v, want a DomainError", err)
	}
	if de.Kind != SqrtNegative {
		t.Errorf("DomainError.Kind = %v, want SqrtNegative", de.Kind)
	}
}

func TestParamBelowLowerLimitIsADomainError(t *testing.T) {
	src := `model parlimit
declaration
par a = {2, 0, 10, 0, 10}
res r = {}
equation
r = a;
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	err := ev.Evaluate(nil, nil, []float64{-1}, nil, nil, r, false, nil, nil, nil, false, nil, nil)
	de, ok := err.(DomainError)
	if !ok {
		t.Fatalf("Evaluate() at a=-1 returned %v, want a DomainError", err)
	}
	if de.Kind != ParamOutOfRange {
		t.Errorf("DomainError.Kind = %v, want ParamOutOfRange", de.Kind)
	}
}

func TestParamAboveUpperLimitIsADomainError(t *testing.T) {
	src := `model parlimit
declaration
par a = {2, 0, 10, 0, 10}
res r = {}
equation
r = a;
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	err := ev.Evaluate(nil, nil, []float64{11}, nil, nil, r, false, nil, nil, nil, false, nil, nil)
	de, ok := err.(DomainError)
	if !ok {
		t.Fatalf("Evaluate() at a=11 returned %v, want a DomainError", err)
	}
	if de.Kind != ParamOutOfRange {
		t.Errorf("DomainError.Kind = %v, want ParamOutOfRange", de.Kind)
	}
}

func TestParamWithinLimitsSucceeds(t *testing.T) {
	src := `model parlimit
declaration
par a = {2, 0, 10, 0, 10}
res r = {}
equation
r = a;
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	if err := ev.Evaluate(nil, nil, []float64{5}, nil, nil, r, false, nil, nil, nil, false, nil, nil); err != nil {
		t.Fatalf("Evaluate() at a=5 returned an unexpected error: %v", err)
	}
	if r[0] != 5 {
		t.Errorf("r[0] = %v, want 5", r[0])
	}
}

func TestStackPushPopOrder(t *testing.T) {
	var s Stack
	s.Push(1)
	s.Push(2)
	s.Push(3)
	if top, ok := s.Top(); !ok || top != 3 {
		t.Fatalf("Top() = %v (ok=%v), want 3", top, ok)
	}
	for _, want := range []float64{3, 2, 1} {
		v, ok := s.Pop()
		if !ok || v != want {
			t.Fatalf("Pop() = %v (ok=%v), want %v", v, ok, want)
		}
	}
	if !s.IsEmpty() {
		t.Errorf("stack should be empty after popping every element")
	}
	if _, ok := s.Pop(); ok {
		t.Errorf("Pop() on an empty stack should report ok=false")
	}
}

func TestNormalEvaluationSucceeds(t *testing.T) {
	src := `model ok
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = sin(x)*sin(x) + cos(x)*cos(x);
end
`
	compiled := compile(t, src)
	ev := New(compiled)
	r := []float64{0}
	if err := ev.Evaluate([]float64{0.9}, nil, nil, nil, nil, r, false, nil, nil, nil, false, nil, nil); err != nil {
		t.Fatalf("Evaluate() returned an unexpected error: %v", err)
	}
	if diff := r[0] - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("sin^2+cos^2 = %v, want ~1", r[0])
	}
}
