// Package style turns parsed documents into gap-free runs of style IDs.
// Every language owns a contiguous block of IDs inside a shared Space so
// embedded documents can be styled without their IDs colliding with the
// host language.
package style

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
)

// Kind is the presentation class of a style.
type Kind uint8

// Kind values.
const (
	KindDefault Kind = iota
	KindPunctuation
	KindComment
	KindString
	KindNumber
	KindConstant
	KindKeyword
	KindProperty
	KindFunction
	KindVariable
	KindType
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindPunctuation:
		return "punctuation"
	case KindComment:
		return "comment"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindConstant:
		return "constant"
	case KindKeyword:
		return "keyword"
	case KindProperty:
		return "property"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindType:
		return "type"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// SemanticType names the LSP semantic token type of k, or "" when k is not
// reported.
func (k Kind) SemanticType() string {
	//exhaustive:ignore Unreported kinds share the default case.
	switch k {
	case KindComment:
		return "comment"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindConstant, KindKeyword:
		return "keyword"
	case KindProperty:
		return "property"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindType:
		return "type"
	default:
		return ""
	}
}

// Styler styles the trees of one language. Local style 0 is the default
// style used to fill gaps.
type Styler interface {
	Language() lang.Language
	// Styles lists the kind of every local style ID.
	Styles() []Kind
	// Style emits runs for root, which spans the region being styled.
	Style(b *Builder, root lang.Node)
}

// Factory builds a styler.
type Factory func() Styler

// Set maps languages to styler factories.
type Set map[lang.Language]Factory
