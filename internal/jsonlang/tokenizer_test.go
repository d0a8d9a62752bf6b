package jsonlang

import (
	"slices"
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/text"
)

func TestTokenizeKinds(t *testing.T) {
	t.Parallel()

	toks, ds := Tokenize([]byte(`{"a": [1, -2.5e3, true, null]}`), false)
	if len(ds) != 0 {
		t.Fatalf("unexpected diagnostics: %v", messages(ds))
	}
	var got []TokenKind
	for _, tok := range toks {
		got = append(got, tok.Kind)
	}
	want := []TokenKind{
		TokenLeftBrace, TokenString, TokenColon, TokenLeftBracket,
		TokenNumber, TokenComma, TokenNumber, TokenComma, TokenBoolean, TokenComma, TokenNull,
		TokenRightBracket, TokenRightBrace, TokenEOF,
	}
	if !slices.Equal(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if s := toks[1].Span; s != text.NewSpan(text.Pos(0, 1, 1), text.Pos(0, 4, 4)) {
		t.Fatalf("string span = %s", s)
	}
}

func TestTokenizeDiagnostics(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src      string
		code     diag.Code
		severity diag.Severity
		message  string
		flags    lexer.TokenFlags
	}{
		"single quote": {
			src: `'a'`, code: diag.CodeSingleQuote, severity: diag.SeverityWarning,
			message: "JSON standard does not allow single quotes", flags: lexer.TokenFlagSingleQuoted,
		},
		"unknown literal": {
			src: `nul`, code: diag.CodeUnknownLiteral, severity: diag.SeverityError,
			message: "unknown literal `nul`", flags: lexer.TokenFlagMalformed,
		},
		"invalid number": {
			src: `1.2.3`, code: diag.CodeInvalidNumber, severity: diag.SeverityError,
			message: "invalid number `1.2.3`", flags: lexer.TokenFlagMalformed,
		},
		"illegal characters": {
			src: `@@`, code: diag.CodeIllegalCharacters, severity: diag.SeverityError,
			message: "illegal characters `@@`", flags: lexer.TokenFlagMalformed,
		},
		"unterminated": {
			src: `"abc`, code: diag.CodeUnterminatedString, severity: diag.SeverityError,
			message: "missing closing quote", flags: lexer.TokenFlagUnterminated,
		},
		"incomplete escape": {
			src: `"ab\`, code: diag.CodeIncompleteEscape, severity: diag.SeverityError,
			message: "incomplete escape sequence",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			toks, ds := Tokenize([]byte(tc.src), false)
			if len(ds) == 0 {
				t.Fatal("expected diagnostics")
			}
			d := ds[0]
			if d.Code != tc.code || d.Severity != tc.severity || d.Message != tc.message {
				t.Fatalf("diagnostic = %s", d)
			}
			if d.Span != toks[0].Span {
				t.Fatalf("diagnostic span %s, want token span %s", d.Span, toks[0].Span)
			}
			if tc.flags != 0 && !toks[0].Flags.Has(tc.flags) {
				t.Fatalf("flags = %b, want %b", toks[0].Flags, tc.flags)
			}
		})
	}
}

func TestTokenizeMultilineStrings(t *testing.T) {
	t.Parallel()

	src := []byte("\"a\nb\"")
	if _, ds := Tokenize(src, false); len(ds) == 0 || ds[0].Code != diag.CodeUnterminatedString {
		t.Fatalf("single-line mode diagnostics = %v", codes(ds))
	}
	toks, ds := Tokenize(src, true)
	if len(ds) != 0 {
		t.Fatalf("multi-line mode diagnostics = %v", messages(ds))
	}
	if end := toks[0].Span.End; end != text.Pos(1, 2, 5) {
		t.Fatalf("string end = %s, want 2:3", end)
	}
}

func TestTokenizeNumberStopsAtDelimiter(t *testing.T) {
	t.Parallel()

	toks, _ := Tokenize([]byte(`12abc,3`), false)
	if string(toks[0].Value) != "12abc" || toks[0].Kind != TokenNumber {
		t.Fatalf("first token = %s", toks[0])
	}
	if toks[1].Kind != TokenComma || string(toks[2].Value) != "3" {
		t.Fatalf("tokens after malformed number = %v", toks[1:])
	}
}
