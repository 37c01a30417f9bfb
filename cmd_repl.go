package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"parx/compiler"
	"parx/vm"
)

// replCmd implements the interactive REPL, in the shape of the
// teacher's replCmd but reading a whole buffered model instead of one
// expression per line: a .mdl source is line-oriented across several
// sections (MODEL/VAR/.../EQUATIONS), so one line is never a complete
// compilation unit the way it is for Nilan. Lines accumulate in a
// buffer until "run" (compile and evaluate the buffer) or "reset"
// (discard it); "exit" or EOF quits. readline — present in the
// teacher's go.mod but never imported by any of its own files — is
// wired in here for history and line editing, the one genuinely new
// piece of ambient-stack surface this command needed.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive model-authoring session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Type model source a line at a time,
  then "run" to compile and evaluate it, "reset" to clear the buffer,
  or "exit" to quit.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New("parx> ")
	if err != nil {
		fmt.Printf("💥 failed to start line editor: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("\n\nWelcome to ParX!")
	runREPL(rl, rl.Stdout())
	return subcommands.ExitSuccess
}

func runREPL(rl *readline.Instance, out io.Writer) {
	var buf strings.Builder

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}

		switch strings.TrimSpace(line) {
		case "exit":
			return
		case "reset":
			buf.Reset()
			continue
		case "run":
			evalBuffer(buf.String(), out)
			buf.Reset()
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

func evalBuffer(source string, out io.Writer) {
	result, errs := compiler.Compile("<repl>", source)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(out, e)
		}
		return
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
	ev := vm.New(result.Compiled)
	if err := ev.Evaluate(x, a, p, cons, fl, r, false, nil, nil, nil, false, nil, nil); err != nil {
		fmt.Fprintf(out, "💥 %v\n", err)
		return
	}
	for i, res := range prog.Res {
		fmt.Fprintf(out, "%s = %g\n", res.Name, r[i])
	}
}
