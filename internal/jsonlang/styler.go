package jsonlang

import (
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/style"
)

// Local style IDs of the JSON styler.
const (
	styleDefault = iota
	stylePunctuation
	styleKey
	styleStr
	styleNumber
	styleConstant
	styleInvalid
)

// Styler styles JSON trees. Typed strings whose content was parsed as an
// embedded document are styled by the embedded language.
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
		styleStr:         style.KindString,
		styleNumber:      style.KindNumber,
		styleConstant:    style.KindConstant,
		styleInvalid:     style.KindInvalid,
	}
}

// Style implements style.Styler.
func (Styler) Style(b *style.Builder, root lang.Node) {
	n, ok := root.(Node)
	if !ok {
		return
	}
	styleNode(b, n)
}

func styleNode(b *style.Builder, n Node) {
	switch n := n.(type) {
	case *Object:
		sp := n.Span()
		b.EmitRange(sp.Start.Index, sp.Start.Index+1, stylePunctuation)
		for _, p := range n.Properties {
			styleString(b, p.Key, styleKey)
			styleNode(b, p.Value)
		}
		if n.Closed {
			b.Emit(n.CloseSpan(), stylePunctuation)
		}
	case *Array:
		sp := n.Span()
		b.EmitRange(sp.Start.Index, sp.Start.Index+1, stylePunctuation)
		for _, e := range n.Elements {
			styleNode(b, e)
		}
		if n.Closed {
			b.EmitRange(sp.End.Index-1, sp.End.Index, stylePunctuation)
		}
	case *String:
		styleString(b, n, styleStr)
	case *Number:
		b.Emit(n.Span(), styleNumber)
	case *Bool, *Null:
		b.Emit(n.Span(), styleConstant)
	case *Invalid:
		b.Emit(n.Span(), styleInvalid)
	}
}

func styleString(b *style.Builder, n *String, local int) {
	doc := lang.Embedded(n)
	if doc == nil {
		b.Emit(n.Span(), local)
		return
	}
	content := n.ContentSpan()
	b.EmitRange(n.Span().Start.Index, content.Start.Index, local)
	b.Embed(doc, content)
	b.EmitRange(content.End.Index, n.Span().End.Index, local)
}
