package parser

import (
	"parx/ast"
	"parx/compileerr"
	"parx/symtab"
	"parx/token"
)

// parseEquationSection consumes statements until 'end' or EOF, per
// §4.4's two-phase grammar.
func (p *Parser) parseEquationSection() {
	assigned := make(map[string]bool)
	for {
		p.skipEOLs()
		if p.atEOF() || p.isMatchKeyword(token.KwEnd) {
			return
		}
		stmt, err := p.statement(assigned)
		if err != nil {
			p.recoverToLineEnd()
			continue
		}
		if stmt != nil {
			p.program.Equations = append(p.program.Equations, stmt)
		}
		p.skipEOLs()
	}
}

// statement parses one assignment or conditional. assigned tracks which
// symbols have already been assigned along the current control-flow
// path, per the path-sensitive exclusivity check documented on
// parseIfStatement.
func (p *Parser) statement(assigned map[string]bool) (ast.Stmt, error) {
	if p.checkKeyword(token.KwIf) {
		return p.parseIfStatement(assigned)
	}
	return p.parseAssignment(assigned)
}

// parseAssignment parses "name = expr;". name must resolve to a RES or
// AUX symbol (assigned at most once per control-flow path) or be a fresh
// name, in which case a TMP symbol is introduced implicitly.
func (p *Parser) parseAssignment(assigned map[string]bool) (ast.Stmt, error) {
	if p.cur.Kind != token.NAME {
		err := p.syntaxErrorf("expected assignment or 'if', found %q", p.cur.Lexeme)
		p.errs = append(p.errs, err)
		return nil, err
	}
	nameTok := p.advance()

	sym := p.program.Symbols.Find(nameTok.Lexeme)
	if sym == nil {
		sym = p.newTemp(nameTok.Lexeme, nameTok)
	} else {
		switch sym.Kind {
		case symtab.RES, symtab.AUX, symtab.TMP:
			// assignable
		default:
			err := compileerr.TypeError{
				Pos:     compileerr.Position{File: p.file, Line: nameTok.Line, Column: nameTok.Column},
				Message: "cannot assign to " + sym.Kind.String() + " " + sym.Name,
			}
			p.errs = append(p.errs, err)
			return nil, err
		}
	}

	if assigned[sym.Name] {
		err := compileerr.SemanticError{
			Pos:     compileerr.Position{File: p.file, Line: nameTok.Line, Column: nameTok.Column},
			Message: sym.Name + " assigned more than once",
		}
		p.errs = append(p.errs, err)
		return nil, err
	}

	if _, err := p.consumePunct(token.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumePunct(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	assigned[sym.Name] = true
	sym.Assigned = true
	sym.Def = value

	return &ast.Assign{Target: sym, Value: value}, nil
}

// parseIfStatement parses "if (cond) stmt-list [else stmt-list] fi",
// nestable up to maxIfDepth.
//
// Assignment exclusivity across branches: a symbol assigned in the
// 'then' branch and a symbol assigned in the 'else' branch are
// mutually exclusive at runtime, so each branch is checked against its
// own copy of assigned starting from the state before the conditional;
// after both branches, every symbol assigned in either branch is folded
// back into the caller's assigned set, since a later unconditional
// assignment to the same symbol cannot be live on every path once a
// branch has set it.
func (p *Parser) parseIfStatement(assigned map[string]bool) (ast.Stmt, error) {
	ifTok := p.advance() // 'if'
	p.ifDepth++
	defer func() { p.ifDepth-- }()
	if p.ifDepth > maxIfDepth {
		err := compileerr.SemanticError{
			Pos:     compileerr.Position{File: p.file, Line: ifTok.Line, Column: ifTok.Column},
			Message: "conditional nesting exceeds 16",
		}
		p.errs = append(p.errs, err)
		return nil, err
	}

	if _, err := p.consumePunct(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumePunct(token.RPAREN, "')'"); err != nil {
		return nil, err
	}

	snapshot := cloneAssigned(assigned)
	thenAssigned := cloneAssigned(assigned)
	thenStmts := p.statementList(thenAssigned, token.KwElse, token.KwFi)

	var elseStmts []ast.Stmt
	elseAssigned := snapshot
	if p.isMatchKeyword(token.KwElse) {
		elseAssigned = cloneAssigned(snapshot)
		elseStmts = p.statementList(elseAssigned, token.KwFi)
	}

	if _, err := p.consumeKeyword(token.KwFi, "expected 'fi'"); err != nil {
		return nil, err
	}

	for name := range thenAssigned {
		assigned[name] = true
	}
	for name := range elseAssigned {
		assigned[name] = true
	}

	return &ast.If{Cond: cond, Then: thenStmts, Else: elseStmts}, nil
}

// statementList parses statements until the next token is one of the
// given terminating keywords or EOF is reached.
func (p *Parser) statementList(assigned map[string]bool, terminators ...string) []ast.Stmt {
	term := make(map[string]bool, len(terminators))
	for _, t := range terminators {
		term[t] = true
	}
	var stmts []ast.Stmt
	for {
		p.skipEOLs()
		if p.atEOF() {
			return stmts
		}
		if p.cur.Kind == token.KEYWORD && term[p.cur.Lexeme] {
			return stmts
		}
		stmt, err := p.statement(assigned)
		if err != nil {
			p.recoverToLineEnd()
			continue
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
}

func cloneAssigned(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
