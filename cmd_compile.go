package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"parx/bytefmt"
	"parx/compiler"
)

// compileCmd implements the 'compile' command: it runs the full
// lexer/parser/codegen pipeline over a .mdl source file and, on
// success, persists the §6 bytecode file alongside it, mirroring the
// teacher's emitBytecodeCmd ("emit") but against this DSL's own
// compiled artifact shape instead of Nilan's byte-oriented Instructions.
type compileCmd struct {
	out string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile a .mdl model file to bytecode" }
func (*compileCmd) Usage() string {
	return `compile <file.mdl>:
  Compile a ParX model description to a .pxc bytecode file.
`
}

func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output .pxc path (default: <input>.pxc)")
}

func (c *compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	encoded, err := bytefmt.Encode(result.Source, result.Compiled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 bytecode encoding failed: %v\n", err)
		return subcommands.ExitFailure
	}

	out := c.out
	if out == "" {
		out = strings.TrimSuffix(args[0], ".mdl") + ".pxc"
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write %s: %v\n", out, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stdout, "compiled %s -> %s (%d residuals, %d code words, %d numbers)\n",
		args[0], out, len(result.Source.Res), len(result.Compiled.Code), len(result.Compiled.Numbers))
	return subcommands.ExitSuccess
}
