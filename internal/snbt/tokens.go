// Package snbt implements stringified NBT: the tag literal syntax used in
// commands and datapack JSON.
package snbt

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
)

// Language is the registry name of SNBT.
const Language lang.Language = "snbt"

// TokenKind identifies SNBT tokens.
type TokenKind uint8

// TokenKind values used by the SNBT tokenizer.
const (
	TokenInvalid TokenKind = iota
	TokenLeftBrace
	TokenRightBrace
	TokenLeftBracket
	// TokenArrayStart is `[B;`, `[I;` or `[L;`.
	TokenArrayStart
	TokenRightBracket
	TokenComma
	TokenColon
	TokenString
	TokenWord
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
	case TokenArrayStart:
		return "array start"
	case TokenRightBracket:
		return "]"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenString:
		return "string"
	case TokenWord:
		return "word"
	case TokenEOF:
		return "end of input"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}
