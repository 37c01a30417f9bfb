package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"parx/compiler"
	"parx/vm"
)

// evalCmd implements the 'eval' command: compile a model and run one
// evaluation at the declared default point (PAR/CON/FLG defaults, VAR
// at zero), printing the residual vector and, with -jac, the selected
// Jacobians. It plays the role the teacher's runCmd plays for Nilan —
// compile, then hand the artifact straight to the VM — generalized to
// this DSL's vector-valued residual/Jacobian evaluator instead of a
// single expression result.
type evalCmd struct {
	jac bool
}

func (*evalCmd) Name() string     { return "eval" }
func (*evalCmd) Synopsis() string { return "Compile and evaluate a .mdl model at its default point" }
func (*evalCmd) Usage() string {
	return `eval <file.mdl>:
  Compile a model and evaluate its residuals at VAR=0 and the declared
  PAR/CON/FLG defaults.
`
}

func (c *evalCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jac, "jac", false, "also print the VAR/PAR Jacobians")
}

func (c *evalCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	source, err := readSource(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	result, errs := compiler.Compile(args[0], source)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	prog := result.Source
	x := make([]float64, len(prog.Vars))
	a := make([]float64, len(prog.Auxs))
	p := make([]float64, len(prog.Pars))
	cons := make([]float64, len(prog.Cons))
	fl := make([]float64, len(prog.Flgs))
	for i, decl := range prog.Pars {
		p[i] = decl.Default
	}
	for i, decl := range prog.Cons {
		cons[i] = decl.Default
	}
	for i, decl := range prog.Flgs {
		fl[i] = decl.Default
	}

	r := make([]float64, len(prog.Res))
	varFlags := make([]bool, len(prog.Vars))
	parFlags := make([]bool, len(prog.Pars))
	jacX := make([][]float64, len(prog.Res))
	jacA := make([][]float64, len(prog.Res))
	jacP := make([][]float64, len(prog.Res))
	for i := range jacX {
		jacX[i] = make([]float64, len(prog.Vars))
		jacA[i] = make([]float64, len(prog.Auxs))
		jacP[i] = make([]float64, len(prog.Pars))
	}
	for i := range varFlags {
		varFlags[i] = true
	}
	for i := range parFlags {
		parFlags[i] = true
	}

	ev := vm.New(result.Compiled)
	if err := ev.Evaluate(x, a, p, cons, fl, r, c.jac, varFlags, jacX, jacA, c.jac, parFlags, jacP); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	for i, res := range prog.Res {
		fmt.Fprintf(os.Stdout, "%s = %g\n", res.Name, r[i])
		if c.jac {
			for j, vd := range prog.Vars {
				fmt.Fprintf(os.Stdout, "  d%s/d%s = %g\n", res.Name, vd.Name, jacX[i][j])
			}
			for m, pd := range prog.Pars {
				fmt.Fprintf(os.Stdout, "  d%s/d%s = %g\n", res.Name, pd.Name, jacP[i][m])
			}
		}
	}
	return subcommands.ExitSuccess
}
