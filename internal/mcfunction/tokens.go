// Package mcfunction implements the line-oriented command language of
// datapack functions. Commands are parsed against a brigadier command tree
// loaded from the game's commands.json.
package mcfunction

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
)

// Language is the registry name of MCFunction.
const Language lang.Language = "mcfunction"

// TokenKind identifies the pieces the command reader consumes.
type TokenKind uint8

// TokenKind values.
const (
	TokenInvalid TokenKind = iota
	TokenComment
	TokenMacro
	TokenSlash
	TokenLiteral
	TokenArgument
)

func (k TokenKind) String() string {
	switch k {
	case TokenInvalid:
		return "invalid"
	case TokenComment:
		return "comment"
	case TokenMacro:
		return "macro"
	case TokenSlash:
		return "/"
	case TokenLiteral:
		return "literal"
	case TokenArgument:
		return "argument"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}
