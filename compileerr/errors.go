// Package compileerr collects the structured diagnostic kinds the
// compiler can raise, one Go type per §7 error kind. Each follows the
// teacher's pattern of a small struct carrying a message plus an
// Error() string method with a category-identifying prefix (the
// teacher uses an emoji per error family in compiler/errors.go and
// parser/error.go; ParX instead tags each with its taxonomy name since
// diagnostics here are machine-consumed by callers via §6, not just
// printed to a terminal).
package compileerr

import "fmt"

// Position locates a diagnostic within a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// LexError reports a bad number literal, unterminated unit, or
// oversized token.
type LexError struct {
	Pos     Position
	Message string
}

func (e LexError) Error() string {
	return fmt.Sprintf("💥 LexError at %s: %s", e.Pos, e.Message)
}

// SyntaxError reports an unexpected token, missing punctuation, or a
// malformed declaration.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 SyntaxError at %s: %s", e.Pos, e.Message)
}

// NameError reports redeclaration, use before declaration, or a
// reserved-prefix violation.
type NameError struct {
	Pos     Position
	Name    string
	Message string
}

func (e NameError) Error() string {
	return fmt.Sprintf("💥 NameError at %s: %q %s", e.Pos, e.Name, e.Message)
}

// TypeError reports an LHS kind invalid for an assignment context, or a
// flag used where a real number is required.
type TypeError struct {
	Pos     Position
	Message string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("💥 TypeError at %s: %s", e.Pos, e.Message)
}

// SemanticError reports an unassigned RES, a doubly-assigned AUX, or
// conditional nesting beyond the allowed depth.
type SemanticError struct {
	Pos     Position
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError at %s: %s", e.Pos, e.Message)
}

// OutOfMemory is fatal: it aborts compilation once the compile-time
// arena's accounted size would exceed the caller-configured budget. The
// arena is still released on this path.
type OutOfMemory struct {
	Message string
}

func (e OutOfMemory) Error() string {
	return fmt.Sprintf("💥 OutOfMemory: %s", e.Message)
}

// DeveloperError signals an internal inconsistency in a well-formed
// parse tree — the differentiator and code generator presume the parser
// already enforced grammar and type rules, so these are assertion-level
// and never user-visible diagnostics.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}
