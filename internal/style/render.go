package style

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// ChromaType maps a style kind onto the chroma token taxonomy.
func ChromaType(k Kind) chroma.TokenType {
	switch k {
	case KindPunctuation:
		return chroma.Punctuation
	case KindComment:
		return chroma.Comment
	case KindString:
		return chroma.LiteralString
	case KindNumber:
		return chroma.LiteralNumber
	case KindConstant:
		return chroma.KeywordConstant
	case KindKeyword:
		return chroma.Keyword
	case KindProperty:
		return chroma.NameTag
	case KindFunction:
		return chroma.NameFunction
	case KindVariable:
		return chroma.NameVariable
	case KindType:
		return chroma.KeywordType
	case KindInvalid:
		return chroma.Error
	default:
		return chroma.Text
	}
}

// ChromaTokens converts runs over src into chroma tokens. Bytes of src not
// covered by a run are emitted as plain text.
func (s *Space) ChromaTokens(src []byte, runs []Run) []chroma.Token {
	out := make([]chroma.Token, 0, len(runs)+2)
	at := 0
	for _, r := range runs {
		start, end := int(r.Start), min(int(r.End), len(src))
		if start < at || start >= end {
			continue
		}
		if start > at {
			out = append(out, chroma.Token{Type: chroma.Text, Value: string(src[at:start])})
		}
		out = append(out, chroma.Token{Type: ChromaType(s.Kind(r.Style)), Value: string(src[start:end])})
		at = end
	}
	if at < len(src) {
		out = append(out, chroma.Token{Type: chroma.Text, Value: string(src[at:])})
	}
	return out
}

// RenderChroma writes src styled by runs with a chroma formatter ("terminal256",
// "html", "noop", ...) and style ("monokai", "github", ...).
func (s *Space) RenderChroma(w io.Writer, src []byte, runs []Run, formatter, styleName string) error {
	// formatters.Get falls back silently, so look the name up directly.
	f, ok := formatters.Registry[formatter]
	if !ok {
		return fmt.Errorf("unknown formatter %q", formatter)
	}
	st := styles.Get(styleName)
	if err := f.Format(w, st, chroma.Literator(s.ChromaTokens(src, runs)...)); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
