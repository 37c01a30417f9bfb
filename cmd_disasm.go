package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"parx/bytefmt"
	"parx/compiler"
)

// disasmCmd implements the 'disasm' command, rendering the compiled
// CODE vector as one mnemonic line per word, mirroring the teacher's
// DiassembleBytecode.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a .mdl model's compiled bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file.mdl>:
  Compile a model and print its bytecode in human-readable form.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	for _, res := range result.Compiled.Residuals {
		fmt.Fprintf(os.Stdout, "; residual %s\n", res.Name)
	}
	fmt.Fprint(os.Stdout, bytefmt.Disassemble(result.Compiled.Code, result.Compiled.Numbers))
	return subcommands.ExitSuccess
}
