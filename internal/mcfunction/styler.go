package mcfunction

import (
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/style"
)

const (
	styleDefault = iota
	styleComment
	styleCommand
	styleLiteral
	styleNumber
	styleConstant
	styleString
	styleSelector
	stylePunctuation
	styleInvalid
)

// Styler styles function trees.
type Styler struct{}

// NewStyler implements style.Factory.
func NewStyler() style.Styler { return Styler{} }

// Language implements style.Styler.
func (Styler) Language() lang.Language { return Language }

// Styles implements style.Styler.
func (Styler) Styles() []style.Kind {
	return []style.Kind{
		styleDefault:     style.KindDefault,
		styleComment:     style.KindComment,
		styleCommand:     style.KindFunction,
		styleLiteral:     style.KindKeyword,
		styleNumber:      style.KindNumber,
		styleConstant:    style.KindConstant,
		styleString:      style.KindString,
		styleSelector:    style.KindVariable,
		stylePunctuation: style.KindPunctuation,
		styleInvalid:     style.KindInvalid,
	}
}

// Style implements style.Styler.
func (Styler) Style(b *style.Builder, root lang.Node) {
	f, ok := root.(*File)
	if !ok {
		return
	}
	for _, line := range f.Lines {
		switch n := line.(type) {
		case *Comment:
			b.Emit(n.Span(), styleComment)
		case *Macro:
			for _, v := range n.Vars {
				b.Emit(v, styleSelector)
			}
		case *Command:
			styleCommandLine(b, n)
		case *Invalid:
			b.Emit(n.Span(), styleInvalid)
		}
	}
}

func styleCommandLine(b *style.Builder, c *Command) {
	if !c.Slash.IsEmpty() {
		b.Emit(c.Slash, stylePunctuation)
	}
	for i, part := range c.Parts {
		switch n := part.(type) {
		case *Literal:
			if i == 0 {
				b.Emit(n.Span(), styleCommand)
			} else {
				b.Emit(n.Span(), styleLiteral)
			}
		case *Argument:
			styleArgument(b, n)
		case *Invalid:
			b.Emit(n.Span(), styleInvalid)
		}
	}
}

func styleArgument(b *style.Builder, n *Argument) {
	if doc := lang.Embedded(n); doc != nil {
		content := n.ContentSpan()
		b.EmitRange(n.Span().Start.Index, content.Start.Index, styleString)
		b.Embed(doc, content)
		b.EmitRange(content.End.Index, n.Span().End.Index, styleString)
		return
	}
	b.Emit(n.Span(), argumentStyle(n.node.Parser))
}

func argumentStyle(parser string) int {
	switch parser {
	case "brigadier:integer", "brigadier:long", "brigadier:float", "brigadier:double",
		"minecraft:block_pos", "minecraft:vec3", "minecraft:vec2", "minecraft:rotation",
		"minecraft:column_pos", "minecraft:int_range", "minecraft:float_range", "minecraft:time":
		return styleNumber
	case "brigadier:bool":
		return styleConstant
	case "minecraft:entity", "minecraft:score_holder", "minecraft:game_profile":
		return styleSelector
	default:
		return styleString
	}
}
