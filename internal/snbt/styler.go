package snbt

import (
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/style"
)

const (
	styleDefault = iota
	stylePunctuation
	styleKey
	styleString
	styleNumber
	styleConstant
	styleArrayType
	styleInvalid
)

// Styler styles SNBT trees.
type Styler struct{}

// NewStyler implements style.Factory.
func NewStyler() style.Styler { return Styler{} }

// Language implements style.Styler.
func (Styler) Language() lang.Language { return Language }

// Styles implements style.Styler.
func (Styler) Styles() []style.Kind {
	return []style.Kind{
		styleDefault:     style.KindDefault,
		stylePunctuation: style.KindPunctuation,
		styleKey:         style.KindProperty,
		styleString:      style.KindString,
		styleNumber:      style.KindNumber,
		styleConstant:    style.KindConstant,
		styleArrayType:   style.KindType,
		styleInvalid:     style.KindInvalid,
	}
}

// Style implements style.Styler.
func (Styler) Style(b *style.Builder, root lang.Node) {
	if n, ok := root.(Node); ok {
		styleNode(b, n)
	}
}

func styleNode(b *style.Builder, n Node) {
	sp := n.Span()
	switch n := n.(type) {
	case *Compound:
		b.EmitRange(sp.Start.Index, sp.Start.Index+1, stylePunctuation)
		for _, e := range n.Entries {
			b.Emit(e.Key.Span(), styleKey)
			styleNode(b, e.Value)
		}
		if n.Closed {
			b.Emit(n.CloseSpan(), stylePunctuation)
		}
	case *List:
		b.EmitRange(sp.Start.Index, sp.Start.Index+1, stylePunctuation)
		for _, e := range n.Elements {
			styleNode(b, e)
		}
		if n.Closed {
			b.EmitRange(sp.End.Index-1, sp.End.Index, stylePunctuation)
		}
	case *Array:
		b.Emit(n.PrefixSpan(), styleArrayType)
		for _, e := range n.Elements {
			styleNode(b, e)
		}
		if n.Closed {
			b.EmitRange(sp.End.Index-1, sp.End.Index, stylePunctuation)
		}
	case *String:
		b.Emit(sp, styleString)
	case *Number:
		b.Emit(sp, styleNumber)
	case *Bool:
		b.Emit(sp, styleConstant)
	case *Invalid:
		b.Emit(sp, styleInvalid)
	}
}
