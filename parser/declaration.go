package parser

import (
	"math"

	"parx/symtab"
	"parx/token"
)

// declKeywordKind maps a declaration keyword lexeme to its symbol kind.
var declKeywordKind = map[string]symtab.Kind{
	token.KwVar: symtab.VAR,
	token.KwAux: symtab.AUX,
	token.KwPar: symtab.PAR,
	token.KwCon: symtab.CON,
	token.KwFlg: symtab.FLG,
	token.KwRes: symtab.RES,
}

// valueCount is the fixed value-list length for each declaration kind,
// per §4.4: VAR/AUX=3 (abstol, lower limit, upper limit), PAR=5 (default,
// lower bound, upper bound, lower limit, upper limit), CON=1 (default),
// FLG=1 (default), RES=0.
var valueCount = map[symtab.Kind]int{
	symtab.VAR: 3,
	symtab.AUX: 3,
	symtab.PAR: 5,
	symtab.CON: 1,
	symtab.FLG: 1,
	symtab.RES: 0,
}

// parseDeclarationSection consumes declaration lines until the
// 'equation' section keyword is reached.
func (p *Parser) parseDeclarationSection() {
	for {
		p.skipEOLs()
		if p.cur.Kind != token.KEYWORD {
			return
		}
		kind, ok := declKeywordKind[p.cur.Lexeme]
		if !ok {
			return // presumably 'equation'
		}
		p.parseDeclaration(kind)
	}
}

// parseDeclaration parses one "KIND name = { v1, v2, ... } [unit]" line
// for the given kind, registers the name, and appends a row to the
// matching declared table. On a malformed line it records the error and
// recovers to the next line.
func (p *Parser) parseDeclaration(kind symtab.Kind) {
	kwTok := p.advance() // the KIND keyword
	if p.cur.Kind != token.NAME {
		p.errs = append(p.errs, p.syntaxErrorf("expected declared name after %q", kwTok.Lexeme))
		p.recoverToLineEnd()
		return
	}
	nameTok := p.advance()

	if _, err := p.consumePunct(token.ASSIGN, "'='"); err != nil {
		p.recoverToLineEnd()
		return
	}
	if _, err := p.consumePunct(token.LBRACE, "'{'"); err != nil {
		p.recoverToLineEnd()
		return
	}

	n := valueCount[kind]
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := p.consumePunct(token.COMMA, "','"); err != nil {
				p.recoverToLineEnd()
				return
			}
		}
		v, err := p.parseSignedValue()
		if err != nil {
			p.recoverToLineEnd()
			return
		}
		values = append(values, v)
	}
	if !p.checkPunct(token.RBRACE) {
		err := p.syntaxErrorf("expected '}', found %q", p.cur.Lexeme)
		p.errs = append(p.errs, err)
		p.recoverToLineEnd()
		return
	}

	// The unit, if any, is the raw text up to the next comma/EOL. cur
	// still holds the '}' token here, which the lexer produced by
	// scanning exactly one rune past the previous token (scanPunct
	// advances past '}' as it builds the token, then stops): the lexer's
	// cursor is already sitting right after '}' in the source, so
	// ScanUnit must run before cur is advanced past it. Advancing first
	// would pull() one further token ahead, moving the lexer cursor past
	// whatever follows '}' before ScanUnit ever gets to read it.
	unitTok, err := p.lx.ScanUnit()
	if err != nil {
		p.errs = append(p.errs, err)
	}
	p.cur = p.pull()

	name := p.program.Arena.AllocString(nameTok.Lexeme)
	unit := p.program.Arena.AllocString(unitTok.Lexeme)
	p.registerDeclaration(kind, name, values, unit, nameTok)

	p.recoverToLineEnd()
}

// registerDeclaration declares the symbol and appends a row to the
// declared table for kind, returning the new row's index.
func (p *Parser) registerDeclaration(kind symtab.Kind, name string, values []float64, unit string, pos token.Token) int {
	var index int
	switch kind {
	case symtab.VAR:
		index = len(p.program.Vars)
		p.program.Vars = append(p.program.Vars, VarDecl{Name: name, AbsTol: values[0], LowerLimit: values[1], UpperLimit: values[2], Unit: unit})
	case symtab.AUX:
		index = len(p.program.Auxs)
		p.program.Auxs = append(p.program.Auxs, VarDecl{Name: name, AbsTol: values[0], LowerLimit: values[1], UpperLimit: values[2], Unit: unit})
	case symtab.PAR:
		index = len(p.program.Pars)
		p.program.Pars = append(p.program.Pars, ParDecl{
			Name: name, Default: values[0], LowerBound: values[1], UpperBound: values[2],
			LowerLimit: values[3], UpperLimit: values[4], Unit: unit,
		})
	case symtab.CON:
		index = len(p.program.Cons)
		p.program.Cons = append(p.program.Cons, ConDecl{Name: name, Default: values[0], Unit: unit})
	case symtab.FLG:
		index = len(p.program.Flgs)
		p.program.Flgs = append(p.program.Flgs, FlgDecl{Name: name, Default: values[0], Unit: unit})
	case symtab.RES:
		index = len(p.program.Res)
		p.program.Res = append(p.program.Res, ResDecl{Name: name})
	}
	p.declareSymbol(name, kind, index, pos)
	return index
}

// parseSignedValue parses one value-list entry: an optional leading
// sign, then a NUMBER/NAMED_CONSTANT literal, or the keyword-like name
// "inf"/"Inf" for an unbounded limit.
func (p *Parser) parseSignedValue() (float64, error) {
	sign := 1.0
	if p.isMatchPunct(token.ADD) {
		// no-op, sign stays +1
	} else if p.isMatchPunct(token.SUB) {
		sign = -1
	}

	switch {
	case p.cur.Kind == token.NUMBER || p.cur.Kind == token.NAMED_CONSTANT:
		v := p.cur.Literal
		p.advance()
		return sign * v, nil
	case p.cur.Kind == token.NAME && (p.cur.Lexeme == "inf" || p.cur.Lexeme == "Inf"):
		p.advance()
		return sign * math.Inf(1), nil
	default:
		err := p.syntaxErrorf("expected a number, named constant, or inf, found %q", p.cur.Lexeme)
		p.errs = append(p.errs, err)
		return 0, err
	}
}
