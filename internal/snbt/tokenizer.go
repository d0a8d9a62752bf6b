package snbt

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/text"
)

type tokenizer struct {
	lexer.Scanner[TokenKind]
}

func newTokenizer(src []byte, cursor int, origin *text.Origin) *tokenizer {
	return &tokenizer{Scanner: lexer.NewScanner[TokenKind](src, cursor, origin)}
}

// NextToken returns the next token; at the end of input it keeps returning
// EOF.
func (t *tokenizer) NextToken() lexer.Token[TokenKind] {
	t.SkipWhitespace()
	m := t.Mark()
	if t.EOF() {
		return t.Emit(TokenEOF, m)
	}

	switch b := t.Current(); {
	case b == '"' || b == '\'':
		return t.extractString(m, b)
	case b == '[':
		if p := t.Peek(1); (p == 'B' || p == 'I' || p == 'L') && t.Peek(2) == ';' {
			t.Advance(3)
			return t.Emit(TokenArrayStart, m)
		}
		t.Advance(1)
		return t.Emit(TokenLeftBracket, m)
	case b == '{':
		t.Advance(1)
		return t.Emit(TokenLeftBrace, m)
	case b == '}':
		t.Advance(1)
		return t.Emit(TokenRightBrace, m)
	case b == ']':
		t.Advance(1)
		return t.Emit(TokenRightBracket, m)
	case b == ',':
		t.Advance(1)
		return t.Emit(TokenComma, m)
	case b == ':':
		t.Advance(1)
		return t.Emit(TokenColon, m)
	case IsWordByte(b):
		t.AdvanceWhile(IsWordByte)
		return t.Emit(TokenWord, m)
	default:
		t.Advance(1)
		t.AdvanceWhile(func(b byte) bool {
			return !IsWordByte(b) && !lexer.IsWhitespace(b) && !isStructural(b)
		})
		t.FlagNextToken(lexer.TokenFlagMalformed)
		t.ErrorNextToken(diag.CodeIllegalCharacters, diag.SeverityError, "illegal characters `%s`", t.Text(m))
		return t.Emit(TokenInvalid, m)
	}
}

func (t *tokenizer) extractString(m lexer.Mark, quote byte) lexer.Token[TokenKind] {
	if quote == '\'' {
		t.FlagNextToken(lexer.TokenFlagSingleQuoted)
	}
	t.Advance(1)
	for !t.EOF() {
		switch t.Current() {
		case quote:
			t.Advance(1)
			return t.Emit(TokenString, m)
		case '\\':
			if t.Peek(1) == 0 {
				t.ErrorNextToken(diag.CodeIncompleteEscape, diag.SeverityError, "incomplete escape sequence")
				t.Advance(1)
				continue
			}
			t.Advance(2)
		case '\n':
			t.FlagNextToken(lexer.TokenFlagUnterminated)
			t.ErrorNextToken(diag.CodeUnterminatedString, diag.SeverityError, "missing closing quote")
			return t.Emit(TokenString, m)
		default:
			t.Advance(1)
		}
	}
	t.FlagNextToken(lexer.TokenFlagUnterminated)
	t.ErrorNextToken(diag.CodeUnterminatedString, diag.SeverityError, "missing closing quote")
	return t.Emit(TokenString, m)
}

// IsWordByte reports bytes allowed in unquoted SNBT strings and numbers.
func IsWordByte(b byte) bool {
	return lexer.IsLetter(b) || lexer.IsDigit(b) || b == '_' || b == '-' || b == '.' || b == '+'
}

func isStructural(b byte) bool {
	switch b {
	case '{', '}', '[', ']', ',', ':', '"', '\'':
		return true
	default:
		return false
	}
}
