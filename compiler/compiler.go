// Package compiler wires the lexer, parser, code generator, and
// bytefmt encoder into the single §6 "compiler query surface": one
// Compile call that turns .mdl source text into a compiled program plus
// diagnostics, or a diagnostics-only failure. It plays the role the
// teacher's ASTCompiler.CompileAST plays as the one entry point gluing
// Nilan's lexer → parser → bytecode stages together, generalized to
// this DSL's two extra stages (symbolic differentiation, bytecode
// persistence) and to the spec's "no bytecode on any diagnostic" rule.
//
// Reading a .mdl file from disk is an external collaborator's job (see
// spec.md §1's non-goals): Compile takes already-loaded source text, not
// a path, the way a host would read the file and hand the bytes in.
package compiler

import (
	"parx/codegen"
	"parx/compileerr"
	"parx/parser"
	"parx/token"
)

// Result is everything a successful compilation produces: the parsed
// Program (declared tables, symbol tree), and the compiled bytecode
// Program (CODE vector, number pool, residual code layout).
type Result struct {
	Source   *parser.Program
	Compiled *codegen.Program
}

// Compile runs the full pipeline over source (tagged with file for
// diagnostic positions) and returns either a Result or a non-empty
// diagnostics list — never both, per §4.4: "a compilation with at least
// one error produces no bytecode".
func Compile(file, source string) (*Result, []error) {
	p := parser.New(file, source)
	prog, errs := p.Parse()
	if len(errs) > 0 {
		return nil, errs
	}

	if semErrs := checkAssignmentInvariant(file, prog); len(semErrs) > 0 {
		return nil, semErrs
	}

	gen := codegen.New()
	compiled, err := gen.Generate(prog)
	if err != nil {
		return nil, []error{err}
	}

	return &Result{Source: prog, Compiled: compiled}, nil
}

// checkAssignmentInvariant enforces §3's "every RES name must appear on
// the left of exactly one top-level '=' ... every AUX used on the right
// of an equation must eventually be assigned": any declared RES or AUX
// left unassigned after a clean parse is a SemanticError, not merely
// something symbols_not_assigned() happens to report.
func checkAssignmentInvariant(file string, prog *parser.Program) []error {
	var errs []error
	for _, name := range prog.SymbolsNotAssigned() {
		errs = append(errs, compileerr.SemanticError{
			Pos:     compileerr.Position{File: file},
			Message: name + " is declared but never assigned",
		})
	}
	return errs
}

// SymbolsNotAssigned returns declared RES or AUX names that were never
// the left-hand side of an assignment, per §6.
func SymbolsNotAssigned(prog *parser.Program) []string {
	return prog.SymbolsNotAssigned()
}

// SymbolsNotUsed returns declared symbols of any kind never referenced
// by an equation, per §6.
func SymbolsNotUsed(prog *parser.Program) []string {
	return prog.SymbolsNotUsed()
}

// ReservedNameTokens returns the fixed set of bytes that can never
// appear inside a declared name.
func ReservedNameTokens() string { return token.ReservedNameTokens }

// NotAtNameStartTokens returns the fixed set of bytes that a name may
// contain but never begin with.
func NotAtNameStartTokens() string { return token.NotAtNameStartTokens }

// NameSeparatorToken returns the host namespacing separator.
func NameSeparatorToken() string { return token.NameSeparatorToken }
