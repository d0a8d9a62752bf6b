// Package jsonlang implements the schema-directed JSON front end: tokenizer,
// parser, schema model, enrichment, validator, context provider, and styler.
package jsonlang

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
)

// Language is the registry name of JSON.
const Language lang.Language = "json"

// TokenKind identifies JSON tokens.
type TokenKind uint8

// TokenKind values used by the JSON tokenizer.
const (
	TokenInvalid TokenKind = iota
	TokenLeftBrace
	TokenRightBrace
	TokenLeftBracket
	TokenRightBracket
	TokenComma
	TokenColon
	TokenString
	TokenNumber
	TokenBoolean
	TokenNull
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenInvalid:
		return "invalid"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenBoolean:
		return "boolean"
	case TokenNull:
		return "null"
	case TokenEOF:
		return "end of input"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}

// startsValue reports whether a token can begin a JSON value.
func (k TokenKind) startsValue() bool {
	switch k {
	case TokenLeftBrace, TokenLeftBracket, TokenString, TokenNumber, TokenBoolean, TokenNull, TokenInvalid:
		return true
	default:
		return false
	}
}
