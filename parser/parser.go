// Package parser implements the two-phase recursive-descent parser for
// a .mdl source file: a header, a declaration section, and an equation
// section. It follows the token-buffer shape of the teacher's own
// parser.Parser (peek/previous/advance/isMatch/consume over a token
// stream) adapted to a lexer that is pulled one token at a time instead
// of scanned up front, since the grammar needs the lexer's ScanUnit
// escape hatch at one exact position (see package lexer).
package parser

import (
	"fmt"

	"parx/compileerr"
	"parx/lexer"
	"parx/symtab"
	"parx/token"
)

const maxIfDepth = 16

// Parser consumes a token stream built lazily from a lexer.Lexer and
// builds a Program plus a list of diagnostics. Unlike the teacher, which
// scans every token into a slice before parsing starts, position here is
// implicit in the lexer's own cursor: cur is the lookahead token, and
// ahead holds at most one further token of lookahead so that ScanUnit can
// still be called at the exact point the grammar expects it (right after
// consuming a declaration's closing '}', with ahead guaranteed nil).
type Parser struct {
	file string
	lx   *lexer.Lexer
	cur  token.Token
	ahead *token.Token

	errs    []error
	program *Program
	ifDepth int
	tmpSeq  int
}

// New returns a Parser over source, tagging diagnostics with file.
func New(file, source string) *Parser {
	p := &Parser{file: file, lx: lexer.New(file, source), program: newProgram()}
	p.cur = p.pull()
	return p
}

// Parse runs the full grammar (header, declaration section, equation
// section) and returns the built Program together with every diagnostic
// collected along the way. Per §4.4, a compilation with at least one
// error produces no usable bytecode downstream, but the Program returned
// here still reflects everything the parser managed to build before
// giving up on each malformed construct, to maximize diagnostic yield.
func (p *Parser) Parse() (*Program, []error) {
	p.parseHeader()
	p.consumeKeyword(token.KwDeclaration, "expected 'declaration' section keyword")
	p.skipEOLs()
	p.parseDeclarationSection()
	p.consumeKeyword(token.KwEquation, "expected 'equation' section keyword")
	p.skipEOLs()
	p.parseEquationSection()

	// Every name/unit string the declared tables hold was copied out of
	// the arena's own byte slices (AllocString), so the arena's
	// bookkeeping can be released the moment parsing finishes, per
	// §5's "releases it on all exit paths" — success and failure alike.
	p.program.ArenaBytes = p.program.Arena.FreeAll()

	return p.program, p.errs
}

// pull fetches the next lexical token, routing lex errors into the
// diagnostics list and retrying: each lexer error already advances past
// the offending byte, so retrying always makes progress towards EOF.
func (p *Parser) pull() token.Token {
	for {
		tok, err := p.lx.Next()
		if err != nil {
			p.errs = append(p.errs, err)
			continue
		}
		return tok
	}
}

func (p *Parser) atEOF() bool { return p.cur.Kind == token.EOF }

// advance consumes cur and returns it, moving the lookahead window
// forward by one token.
func (p *Parser) advance() token.Token {
	consumed := p.cur
	if p.ahead != nil {
		p.cur = *p.ahead
		p.ahead = nil
	} else if consumed.Kind != token.EOF {
		p.cur = p.pull()
	}
	return consumed
}

func (p *Parser) checkPunct(lexeme string) bool {
	return p.cur.Kind == token.PUNCT && p.cur.Lexeme == lexeme
}

func (p *Parser) checkKeyword(kw string) bool {
	return p.cur.Kind == token.KEYWORD && p.cur.Lexeme == kw
}

func (p *Parser) isMatchPunct(lexeme string) bool {
	if p.checkPunct(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) isMatchKeyword(kw string) bool {
	if p.checkKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) syntaxErrorf(format string, args ...any) compileerr.SyntaxError {
	return compileerr.SyntaxError{
		Pos:     compileerr.Position{File: p.file, Line: p.cur.Line, Column: p.cur.Column},
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) consumePunct(lexeme, what string) (token.Token, error) {
	if p.checkPunct(lexeme) {
		return p.advance(), nil
	}
	err := p.syntaxErrorf("expected %s, found %q", what, p.cur.Lexeme)
	p.errs = append(p.errs, err)
	return token.Token{}, err
}

func (p *Parser) consumeKeyword(kw, what string) (token.Token, error) {
	if p.checkKeyword(kw) {
		return p.advance(), nil
	}
	err := p.syntaxErrorf("%s", what)
	p.errs = append(p.errs, err)
	return token.Token{}, err
}

// skipEOLs consumes zero or more blank/EOL tokens, the declaration
// section's line separator.
func (p *Parser) skipEOLs() {
	for p.cur.Kind == token.EOL {
		p.advance()
	}
}

// recoverToLineEnd discards tokens up to and including the next EOL or
// EOF, the statement/line boundary the parser resynchronizes on after a
// malformed declaration or statement, mirroring Parser.Parse's
// error-then-skip loop in the teacher.
func (p *Parser) recoverToLineEnd() {
	for p.cur.Kind != token.EOL && p.cur.Kind != token.EOF {
		p.advance()
	}
	p.skipEOLs()
}

// parseHeader consumes the five header lines (model/author/date/version/
// ident), each "keyword free-text" terminated by EOL. Any subset may be
// absent; the loop stops at the first token that is not one of these
// five keywords (the 'declaration' keyword that follows).
func (p *Parser) parseHeader() {
	headerKeywords := map[string]*string{
		token.KwModel:   &p.program.Model,
		token.KwAuthor:  &p.program.Author,
		token.KwDate:    &p.program.Date,
		token.KwVersion: &p.program.Version,
		token.KwIdent:   &p.program.Ident,
	}
	for {
		p.skipEOLs()
		if p.cur.Kind != token.KEYWORD {
			return
		}
		dest, ok := headerKeywords[p.cur.Lexeme]
		if !ok {
			return
		}
		// cur still holds the keyword token; the lexer's own cursor is
		// already positioned right after it in the source (scanName
		// advances past the keyword's last rune as it builds the
		// token), which is exactly where ScanLine needs to start. Do
		// not advance() first: that would pull() the next token and
		// move the lexer cursor into the free-text before ScanLine
		// gets to read it.
		text, err := p.lx.ScanLine()
		if err != nil {
			p.errs = append(p.errs, err)
		}
		*dest = text.Lexeme
		p.ahead = nil // ScanLine bypassed Next(); cur must be refilled below
		p.cur = p.pull()
	}
}

// declareSymbol inserts a new symbol of kind/index name into the symbol
// tree, reporting NameError(Redeclared) if the name is already taken.
func (p *Parser) declareSymbol(name string, kind symtab.Kind, index int, pos token.Token) *symtab.Symbol {
	sym := &symtab.Symbol{Name: name, Kind: kind, Index: index}
	if status := p.program.Symbols.Insert(sym); status == symtab.AlreadyExists {
		p.errs = append(p.errs, compileerr.NameError{
			Pos:     compileerr.Position{File: p.file, Line: pos.Line, Column: pos.Column},
			Name:    name,
			Message: "redeclared",
		})
		return p.program.Symbols.Find(name)
	}
	return sym
}

// newTemp allocates a fresh TMP symbol for an implicitly-introduced
// left-hand side, carrying no declared bounds per §4.4.
func (p *Parser) newTemp(name string, pos token.Token) *symtab.Symbol {
	sym := p.declareSymbol(p.program.Arena.AllocString(name), symtab.TMP, p.tmpSeq, pos)
	p.tmpSeq++
	return sym
}
