package parser

import (
	"parx/arena"
	"parx/ast"
	"parx/symtab"
)

// VarDecl is a declared VAR or AUX row: three values (abstol, lower
// limit, upper limit) per §3's declared-table layout.
type VarDecl struct {
	Name       string
	AbsTol     float64
	LowerLimit float64
	UpperLimit float64
	Unit       string
}

// ParDecl is a declared PAR row: five values (default, lower bound,
// upper bound, lower limit, upper limit).
type ParDecl struct {
	Name       string
	Default    float64
	LowerBound float64
	UpperBound float64
	LowerLimit float64
	UpperLimit float64
	Unit       string
}

// ConDecl is a declared CON row: one value (default).
type ConDecl struct {
	Name    string
	Default float64
	Unit    string
}

// FlgDecl is a declared FLG row: one value (default, interpreted as a
// boolean 0/1).
type FlgDecl struct {
	Name    string
	Default float64
	Unit    string
}

// ResDecl is a declared RES row: no values, just a name.
type ResDecl struct {
	Name string
}

// Program is everything the parser produces from one .mdl source: the
// header fields, the six declared tables in declaration order, the
// symbol tree backing name resolution, the expression builder that
// interned every node reachable from Equations, and the equation-section
// statement list.
type Program struct {
	Model, Author, Date, Version, Ident string

	Vars []VarDecl
	Auxs []VarDecl
	Pars []ParDecl
	Cons []ConDecl
	Flgs []FlgDecl
	Res  []ResDecl

	Symbols   *symtab.Tree
	Builder   *ast.Builder
	Equations []ast.Stmt

	// Arena backs every interned name and unit string this Program's
	// declared tables hold, plus the declared-table row storage itself,
	// per §4.1: one compilation, one arena, freed in one shot once
	// parsing completes. ArenaBytes records what FreeAll reported.
	Arena      *arena.Arena
	ArenaBytes int64
}

func newProgram() *Program {
	return &Program{
		Symbols: symtab.New(),
		Builder: ast.NewBuilder(),
		Arena:   arena.New(),
	}
}

// SymbolsNotAssigned returns declared RES/AUX symbols that were never the
// left-hand side of an assignment, per §6's symbols_not_assigned query.
func (p *Program) SymbolsNotAssigned() []string {
	var out []string
	p.Symbols.InOrder(func(s *symtab.Symbol) {
		if (s.Kind == symtab.RES || s.Kind == symtab.AUX) && !s.Assigned {
			out = append(out, s.Name)
		}
	})
	return out
}

// SymbolsNotUsed returns declared symbols of any kind never referenced by
// an equation, per §6's symbols_not_used query.
func (p *Program) SymbolsNotUsed() []string {
	var out []string
	p.Symbols.InOrder(func(s *symtab.Symbol) {
		if !s.Used {
			out = append(out, s.Name)
		}
	})
	return out
}
