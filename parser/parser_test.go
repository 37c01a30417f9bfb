package parser

import (
	"math"
	"testing"
)

func parseOK(t *testing.T, source string) *Program {
	t.Helper()
	p := New("<test>", source)
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("Parse() returned errors: %v", errs)
	}
	return prog
}

func TestDeclarationTablesPopulated(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
aux y = {1e-6, -1, 1}
par a = {2, 0, 10, 0, 10}
con c = {5}
flg f = {1}
res r = {}
equation
y = x;
r = y + a + c + f;
end
`
	prog := parseOK(t, src)
	if len(prog.Vars) != 1 || prog.Vars[0].Name != "x" {
		t.Errorf("Vars = %v, want [x]", prog.Vars)
	}
	if len(prog.Auxs) != 1 || prog.Auxs[0].Name != "y" {
		t.Errorf("Auxs = %v, want [y]", prog.Auxs)
	}
	if len(prog.Pars) != 1 || prog.Pars[0].Default != 2 {
		t.Errorf("Pars = %v, want default 2", prog.Pars)
	}
	if len(prog.Cons) != 1 || prog.Cons[0].Default != 5 {
		t.Errorf("Cons = %v, want default 5", prog.Cons)
	}
	if len(prog.Flgs) != 1 || prog.Flgs[0].Default != 1 {
		t.Errorf("Flgs = %v, want default 1", prog.Flgs)
	}
	if len(prog.Res) != 1 || prog.Res[0].Name != "r" {
		t.Errorf("Res = %v, want [r]", prog.Res)
	}
}

func TestDeclaredUnitIsCaptured(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1} V
par a = {2, 0, 10, 0, 10}
res r = {}
equation
r = a*x;
end
`
	prog := parseOK(t, src)
	if len(prog.Vars) != 1 || prog.Vars[0].Unit != "V" {
		t.Fatalf("Vars[0].Unit = %q, want %q", prog.Vars[0].Unit, "V")
	}
	if len(prog.Pars) != 1 || prog.Pars[0].Unit != "" {
		t.Errorf("Pars[0].Unit = %q, want empty (no unit given)", prog.Pars[0].Unit)
	}
}

func TestHeaderLinesCaptureFullFreeText(t *testing.T) {
	src := `model My Diode
author Jane Q. Engineer
date 2026-01-01
version 1.0
ident diode1
declaration
res r = {}
equation
r = 1;
end
`
	prog := parseOK(t, src)
	if prog.Model != "My Diode" {
		t.Errorf("Model = %q, want %q", prog.Model, "My Diode")
	}
	if prog.Author != "Jane Q. Engineer" {
		t.Errorf("Author = %q, want %q", prog.Author, "Jane Q. Engineer")
	}
	if prog.Date != "2026-01-01" {
		t.Errorf("Date = %q, want %q", prog.Date, "2026-01-01")
	}
	if prog.Version != "1.0" {
		t.Errorf("Version = %q, want %q", prog.Version, "1.0")
	}
	if prog.Ident != "diode1" {
		t.Errorf("Ident = %q, want %q", prog.Ident, "diode1")
	}
}

func TestHeaderSingleWordLineIsNotSwallowed(t *testing.T) {
	src := `model t
declaration
res r = {}
equation
r = 1;
end
`
	prog := parseOK(t, src)
	if prog.Model != "t" {
		t.Errorf("Model = %q, want %q", prog.Model, "t")
	}
}

func TestRedeclarationIsAnError(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
par x = {1, 0, 1, 0, 1}
res r = {}
equation
r = x;
end
`
	p := New("<test>", src)
	_, errs := p.Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a redeclaration error, got none")
	}
}

func TestUndeclaredNameUsedIsAnError(t *testing.T) {
	src := `model t
declaration
res r = {}
equation
r = ghost;
end
`
	p := New("<test>", src)
	_, errs := p.Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a 'used before declaration' error for an undeclared name")
	}
}

func TestDoubleAssignmentOnSamePathIsAnError(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
res r = {}
equation
r = x;
r = x + 1;
end
`
	p := New("<test>", src)
	_, errs := p.Parse()
	if len(errs) == 0 {
		t.Fatalf("expected an error assigning r twice on the same control-flow path")
	}
}

func TestMutuallyExclusiveBranchAssignmentIsAllowed(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
flg f = {1}
res r = {}
equation
if (f)
  r = x;
else
  r = -x;
fi
end
`
	prog := parseOK(t, src)
	if len(prog.Equations) != 1 {
		t.Fatalf("expected exactly one top-level statement (the if), got %d", len(prog.Equations))
	}
}

func TestSymbolsNotAssignedReportsUnassignedResAndAux(t *testing.T) {
	src := `model t
declaration
aux y = {1e-6, -1, 1}
res r = {}
res s = {}
equation
r = y;
end
`
	p := New("<test>", src)
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("Parse() returned errors: %v", errs)
	}
	unassigned := prog.SymbolsNotAssigned()
	want := map[string]bool{"y": true, "s": true}
	if len(unassigned) != len(want) {
		t.Fatalf("SymbolsNotAssigned() = %v, want two entries (y and s)", unassigned)
	}
	for _, name := range unassigned {
		if !want[name] {
			t.Errorf("unexpected unassigned symbol %q", name)
		}
	}
}

func TestSymbolsNotUsedReportsDeclaredButUnreferenced(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -1, 1}
var unused = {1e-6, -1, 1}
res r = {}
equation
r = x;
end
`
	prog := parseOK(t, src)
	notUsed := prog.SymbolsNotUsed()
	found := false
	for _, name := range notUsed {
		if name == "unused" {
			found = true
		}
	}
	if !found {
		t.Errorf("SymbolsNotUsed() = %v, want it to include \"unused\"", notUsed)
	}
}

func TestConditionalNestingBeyondLimitIsAnError(t *testing.T) {
	src := "model t\ndeclaration\nvar x = {1e-6, -1, 1}\nres r = {}\nequation\n"
	for i := 0; i < maxIfDepth+2; i++ {
		src += "if (x)\n"
	}
	src += "r = x;\n"
	for i := 0; i < maxIfDepth+2; i++ {
		src += "fi\n"
	}
	src += "end\n"

	p := New("<test>", src)
	_, errs := p.Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a conditional-nesting-depth error")
	}
}

func TestInfLimitsParse(t *testing.T) {
	src := `model t
declaration
var x = {1e-6, -inf, +inf}
res r = {}
equation
r = x;
end
`
	prog := parseOK(t, src)
	if prog.Vars[0].LowerLimit != math.Inf(-1) {
		t.Errorf("LowerLimit = %v, want -Inf", prog.Vars[0].LowerLimit)
	}
	if prog.Vars[0].UpperLimit != math.Inf(1) {
		t.Errorf("UpperLimit = %v, want +Inf", prog.Vars[0].UpperLimit)
	}
}
