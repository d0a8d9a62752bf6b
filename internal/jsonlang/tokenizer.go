package jsonlang

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/text"
)

type tokenizer struct {
	lexer.Scanner[TokenKind]
	multiline bool
}

func newTokenizer(src []byte, cursor int, origin *text.Origin, multiline bool) *tokenizer {
	return &tokenizer{
		Scanner:   lexer.NewScanner[TokenKind](src, cursor, origin),
		multiline: multiline,
	}
}

// Tokenize returns every token of src including the final EOF token.
func Tokenize(src []byte, multiline bool) ([]lexer.Token[TokenKind], []diag.Diagnostic) {
	tz := newTokenizer(src, 0, nil, multiline)
	var out []lexer.Token[TokenKind]
	for {
		tok := tz.NextToken()
		out = append(out, tok)
		if tok.Kind == TokenEOF {
			return out, tz.Diagnostics()
		}
	}
}

// NextToken returns the next token; at the end of input it keeps returning
// EOF.
func (t *tokenizer) NextToken() lexer.Token[TokenKind] {
	t.SkipWhitespace()
	m := t.Mark()
	if t.EOF() {
		return t.Emit(TokenEOF, m)
	}

	b := t.Current()
	switch {
	case b == '"' || b == '\'':
		return t.extractString(m, b)
	case isStructural(b):
		return t.extractOperator(m, b)
	case lexer.IsLetter(b):
		return t.extractSpecial(m)
	case lexer.IsDigit(b) || b == '-' || b == '+' || b == '.':
		return t.extractNumber(m)
	default:
		return t.extractIllegal(m)
	}
}

func (t *tokenizer) extractString(m lexer.Mark, quote byte) lexer.Token[TokenKind] {
	if quote == '\'' {
		t.FlagNextToken(lexer.TokenFlagSingleQuoted)
		t.ErrorNextToken(diag.CodeSingleQuote, diag.SeverityWarning, "JSON standard does not allow single quotes")
	}
	t.Advance(1)

	for !t.EOF() {
		switch b := t.Current(); b {
		case quote:
			t.Advance(1)
			return t.Emit(TokenString, m)
		case '\\':
			if next := t.Peek(1); next == 0 || next == '\n' || next == '\r' {
				t.ErrorNextToken(diag.CodeIncompleteEscape, diag.SeverityError, "incomplete escape sequence")
				t.Advance(1)
				continue
			}
			t.Advance(2)
		case '\n', '\r':
			if !t.multiline {
				return t.unterminated(m)
			}
			t.Advance(1)
		default:
			t.Advance(1)
		}
	}
	return t.unterminated(m)
}

func (t *tokenizer) unterminated(m lexer.Mark) lexer.Token[TokenKind] {
	t.FlagNextToken(lexer.TokenFlagUnterminated)
	t.ErrorNextToken(diag.CodeUnterminatedString, diag.SeverityError, "missing closing quote")
	return t.Emit(TokenString, m)
}

func (t *tokenizer) extractOperator(m lexer.Mark, b byte) lexer.Token[TokenKind] {
	t.Advance(1)
	switch b {
	case '{':
		return t.Emit(TokenLeftBrace, m)
	case '}':
		return t.Emit(TokenRightBrace, m)
	case '[':
		return t.Emit(TokenLeftBracket, m)
	case ']':
		return t.Emit(TokenRightBracket, m)
	case ',':
		return t.Emit(TokenComma, m)
	default:
		return t.Emit(TokenColon, m)
	}
}

func (t *tokenizer) extractSpecial(m lexer.Mark) lexer.Token[TokenKind] {
	t.AdvanceWhile(func(b byte) bool { return lexer.IsLetter(b) || lexer.IsDigit(b) || b == '_' })
	switch word := string(t.Text(m)); word {
	case "true", "false":
		return t.Emit(TokenBoolean, m)
	case "null":
		return t.Emit(TokenNull, m)
	default:
		t.FlagNextToken(lexer.TokenFlagMalformed)
		t.ErrorNextToken(diag.CodeUnknownLiteral, diag.SeverityError, "unknown literal `%s`", word)
		return t.Emit(TokenInvalid, m)
	}
}

// extractNumber consumes through the next delimiter and validates the
// literal afterwards; a malformed number still yields a number token.
func (t *tokenizer) extractNumber(m lexer.Mark) lexer.Token[TokenKind] {
	t.AdvanceWhile(func(b byte) bool { return !isNumberDelimiter(b) })
	lit := t.Text(m)
	if !validNumber(lit) {
		t.FlagNextToken(lexer.TokenFlagMalformed)
		t.ErrorNextToken(diag.CodeInvalidNumber, diag.SeverityError, "invalid number `%s`", lit)
	}
	return t.Emit(TokenNumber, m)
}

func (t *tokenizer) extractIllegal(m lexer.Mark) lexer.Token[TokenKind] {
	t.Advance(1)
	t.AdvanceWhile(func(b byte) bool {
		return !lexer.IsDigit(b) && !lexer.IsLetter(b) && !lexer.IsWhitespace(b) && !isStructural(b) && b != '"' && b != '\''
	})
	t.FlagNextToken(lexer.TokenFlagMalformed)
	t.ErrorNextToken(diag.CodeIllegalCharacters, diag.SeverityError, "illegal characters `%s`", t.Text(m))
	return t.Emit(TokenInvalid, m)
}

func isStructural(b byte) bool {
	switch b {
	case '{', '}', '[', ']', ',', ':':
		return true
	default:
		return false
	}
}

func isNumberDelimiter(b byte) bool {
	return isStructural(b) || lexer.IsWhitespace(b) || b == '"' || b == '\'' || b == '\\'
}

// validNumber accepts [sign] digits [. digits] [(e|E) [sign] digits] with at
// least one mantissa digit.
func validNumber(lit []byte) bool {
	i := 0
	if i < len(lit) && (lit[i] == '-' || lit[i] == '+') {
		i++
	}
	digits := 0
	for i < len(lit) && lexer.IsDigit(lit[i]) {
		i++
		digits++
	}
	if i < len(lit) && lit[i] == '.' {
		i++
		for i < len(lit) && lexer.IsDigit(lit[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(lit) && (lit[i] == 'e' || lit[i] == 'E') {
		i++
		if i < len(lit) && (lit[i] == '-' || lit[i] == '+') {
			i++
		}
		exp := 0
		for i < len(lit) && lexer.IsDigit(lit[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(lit)
}
