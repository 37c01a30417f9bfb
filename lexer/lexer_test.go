package lexer

import (
	"testing"

	"parx/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New("<test>", src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next() raised an error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"3.14", 3.14},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
		{"1k", 1000},
		{"1M", 1_000_000},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		if len(toks) != 2 || toks[0].Kind != token.NUMBER {
			t.Fatalf("scan(%q): expected a single NUMBER token, got %v", c.src, toks)
		}
		if toks[0].Literal != c.want {
			t.Errorf("scan(%q) = %v, want %v", c.src, toks[0].Literal, c.want)
		}
	}
}

func TestScanDigitAfterEngineeringSuffixIsAnError(t *testing.T) {
	l := New("<test>", "1k5")
	if _, err := l.Next(); err == nil {
		t.Fatalf("expected scenario (e) lex error for \"1k5\", got none")
	}
}

func TestNamedConstants(t *testing.T) {
	toks := scanAll(t, "_pi")
	if len(toks) != 2 || toks[0].Kind != token.NAMED_CONSTANT {
		t.Fatalf("expected a single NAMED_CONSTANT token, got %v", toks)
	}
	if toks[0].Literal != NamedConstants["_pi"] {
		t.Errorf("_pi = %v, want %v", toks[0].Literal, NamedConstants["_pi"])
	}
}

func TestUnknownNamedConstantIsAnError(t *testing.T) {
	l := New("<test>", "_bogus")
	if _, err := l.Next(); err == nil {
		t.Fatalf("expected a lex error for an unknown named constant")
	}
}

func TestScanKeywordsAndNames(t *testing.T) {
	toks := scanAll(t, "var flow_rate")
	if len(toks) != 3 {
		t.Fatalf("expected [KEYWORD NAME EOF], got %v", toks)
	}
	if toks[0].Kind != token.KEYWORD || toks[0].Lexeme != token.KwVar {
		t.Errorf("toks[0] = %v, want KEYWORD var", toks[0])
	}
	if toks[1].Kind != token.NAME || toks[1].Lexeme != "flow_rate" {
		t.Errorf("toks[1] = %v, want NAME flow_rate", toks[1])
	}
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll(t, "==<=!=>=")
	want := []string{token.EQ, token.LE, token.NE, token.GE}
	if len(toks) != len(want)+1 {
		t.Fatalf("scan(\"==<=!=>=\") = %v, want %d punct tokens + EOF", toks, len(want))
	}
	for i, w := range want {
		if toks[i].Lexeme != w {
			t.Errorf("toks[%d].Lexeme = %q, want %q", i, toks[i].Lexeme, w)
		}
	}
}

func TestEOLIsAnOrdinaryToken(t *testing.T) {
	toks := scanAll(t, "1\n2")
	if len(toks) != 4 {
		t.Fatalf("scan(\"1\\n2\") = %v, want [NUMBER EOL NUMBER EOF]", toks)
	}
	if toks[1].Kind != token.EOL {
		t.Errorf("toks[1].Kind = %v, want EOL", toks[1].Kind)
	}
}

func TestScanUnitStopsAtCommaOrEOL(t *testing.T) {
	l := New("<test>", "m/s, next")
	tok, err := l.ScanUnit()
	if err != nil {
		t.Fatalf("ScanUnit() raised an error: %v", err)
	}
	if tok.Kind != token.UNIT || tok.Lexeme != "m/s" {
		t.Errorf("ScanUnit() = %v, want UNIT \"m/s\"", tok)
	}
}

func TestScanLineConsumesWholeLine(t *testing.T) {
	l := New("<test>", "a test model  \nnext line")
	tok, err := l.ScanLine()
	if err != nil {
		t.Fatalf("ScanLine() raised an error: %v", err)
	}
	if tok.Lexeme != "a test model" {
		t.Errorf("ScanLine() = %q, want %q", tok.Lexeme, "a test model")
	}
}

func TestPhysicalLineLengthLimit(t *testing.T) {
	src := make([]byte, maxPhysicalLine+10)
	for i := range src {
		src[i] = 'a'
	}
	l := New("<test>", string(src))
	var lastErr error
	for i := 0; i < len(src)+2; i++ {
		_, err := l.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatalf("expected a line-length error scanning an over-long physical line")
	}
}
