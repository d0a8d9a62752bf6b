// Package lexer provides the scanner base shared by the JSON, SNBT and
// MCFunction tokenizers.
package lexer

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/text"
)

// Kind is a closed per-language token kind enum.
type Kind interface {
	comparable
	String() string
}

// TokenFlags carries token-level metadata.
type TokenFlags uint8

const (
	// TokenFlagMalformed marks a token whose text was scanned but failed validation.
	TokenFlagMalformed TokenFlags = 1 << iota
	// TokenFlagUnterminated marks a quoted token without its closing quote.
	TokenFlagUnterminated
	// TokenFlagSingleQuoted marks a string delimited by single quotes.
	TokenFlagSingleQuoted
)

// Has reports whether all bits in mask are set.
func (f TokenFlags) Has(mask TokenFlags) bool {
	return f&mask == mask
}

// Token is an immutable lexical unit. Span is in document coordinates;
// Offset is the buffer offset of Value[0].
type Token[K Kind] struct {
	Kind   K
	Value  []byte
	Span   text.Span
	Offset int
	Flags  TokenFlags
}

// End returns the buffer offset just past the token.
func (t Token[K]) End() int {
	return t.Offset + len(t.Value)
}

func (t Token[K]) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
}
