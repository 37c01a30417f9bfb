package parser

import (
	"parx/ast"
	"parx/compileerr"
	"parx/token"
)

// functionOps maps a recognized function name to the unary operator it
// lexes as, when immediately followed by '('. Function recognition is
// contextual, per §4.4 ("recognized contextually when followed by '('");
// a bare name spelled the same as a function but not followed by '(' is
// an ordinary symbol reference instead.
var functionOps = map[string]ast.Op{
	"sin": ast.SIN, "cos": ast.COS, "tan": ast.TAN,
	"asin": ast.ASIN, "acos": ast.ACOS, "atan": ast.ATAN,
	"sinh": ast.SINH, "cosh": ast.COSH, "tanh": ast.TANH,
	"exp": ast.EXP, "log": ast.LOG, "lg": ast.LG,
	"sqrt": ast.SQRT, "abs": ast.ABS, "sgn": ast.SGN, "erf": ast.ERF,
}

// expression is the grammar's entry point: the loosest-binding level,
// logical OR.
func (p *Parser) expression() (ast.Node, error) {
	return p.or()
}

func (p *Parser) or() (ast.Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isMatchPunct(token.OR) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = p.program.Builder.Binary(ast.OR, left, right)
	}
	return left, nil
}

func (p *Parser) and() (ast.Node, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.isMatchPunct(token.AND) {
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = p.program.Builder.Binary(ast.AND, left, right)
	}
	return left, nil
}

var comparisonOps = map[string]ast.Op{
	token.LT: ast.LT, token.GT: ast.GT, token.LE: ast.LE,
	token.GE: ast.GE, token.EQ: ast.EQ, token.NE: ast.NE,
}

// comparison parses a single precedence level covering all six
// relational/equality operators, per §4.4's precedence table listing
// "comparisons" as one level rather than splitting equality from
// relational order.
func (p *Parser) comparison() (ast.Node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.PUNCT {
		op, ok := comparisonOps[p.cur.Lexeme]
		if !ok {
			break
		}
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = p.program.Builder.Binary(op, left, right)
	}
	return left, nil
}

func (p *Parser) additive() (ast.Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch {
		case p.checkPunct(token.ADD):
			op = ast.ADD
		case p.checkPunct(token.SUB):
			op = ast.SUB
		default:
			return left, nil
		}
		p.advance()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = p.program.Builder.Binary(op, left, right)
	}
}

func (p *Parser) multiplicative() (ast.Node, error) {
	left, err := p.power()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch {
		case p.checkPunct(token.MUL):
			op = ast.MUL
		case p.checkPunct(token.DIV):
			op = ast.DIV
		default:
			return left, nil
		}
		p.advance()
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		left = p.program.Builder.Binary(op, left, right)
	}
}

// power is right-associative and binds tighter than the arithmetic
// binary operators but looser than unary '-'/'!', per §4.4's explicit
// ordering (unary tightest, then '^').
func (p *Parser) power() (ast.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.isMatchPunct(token.POW) {
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		return p.program.Builder.Binary(ast.POW, left, right), nil
	}
	return left, nil
}

func (p *Parser) unary() (ast.Node, error) {
	switch {
	case p.isMatchPunct(token.SUB):
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return p.program.Builder.Unary(ast.NEG, x), nil
	case p.isMatchPunct(token.NOT):
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return p.program.Builder.Unary(ast.NOT, x), nil
	}
	return p.primary()
}

// primary parses numeric/named-constant literals, parenthesized
// expressions, function calls, and symbol references.
func (p *Parser) primary() (ast.Node, error) {
	switch p.cur.Kind {
	case token.NUMBER, token.NAMED_CONSTANT:
		v := p.cur.Literal
		p.advance()
		return p.program.Builder.Const(v), nil

	case token.PUNCT:
		if p.cur.Lexeme == token.LPAREN {
			p.advance()
			inner, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consumePunct(token.RPAREN, "')'"); err != nil {
				return nil, err
			}
			return inner, nil
		}

	case token.NAME:
		name := p.cur.Lexeme
		if op, ok := functionOps[name]; ok && p.peekIsLParen() {
			p.advance() // function name
			p.advance() // '('
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consumePunct(token.RPAREN, "')'"); err != nil {
				return nil, err
			}
			return p.program.Builder.Unary(op, arg), nil
		}
		return p.symbolRef()
	}

	err := p.syntaxErrorf("unexpected token %q in expression", p.cur.Lexeme)
	p.errs = append(p.errs, err)
	p.advance()
	return nil, err
}

// peekIsLParen reports whether the token after cur is '(', without
// disturbing cur. Safe to call here: expression parsing never needs to
// call ScanUnit, so filling the one-token lookahead buffer is harmless.
func (p *Parser) peekIsLParen() bool {
	if p.ahead == nil {
		t := p.pull()
		p.ahead = &t
	}
	return p.ahead.Kind == token.PUNCT && p.ahead.Lexeme == token.LPAREN
}

// symbolRef resolves a bare NAME as a reference to an already-declared
// VAR/AUX/PAR/CON/FLG/TMP symbol, marking it used. An undeclared name
// used on the right-hand side of an equation is a NameError, since only
// the left-hand side of an assignment may introduce a TMP.
func (p *Parser) symbolRef() (ast.Node, error) {
	nameTok := p.advance()
	sym := p.program.Symbols.Find(nameTok.Lexeme)
	if sym == nil {
		err := compileerr.NameError{
			Pos:     compileerr.Position{File: p.file, Line: nameTok.Line, Column: nameTok.Column},
			Name:    nameTok.Lexeme,
			Message: "used before declaration",
		}
		p.errs = append(p.errs, err)
		return nil, err
	}
	sym.Used = true
	return p.program.Builder.Ref(sym.Kind, sym.Index, sym.Name), nil
}
