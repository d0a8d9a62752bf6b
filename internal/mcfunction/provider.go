package mcfunction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Provider answers cursor queries over a function tree.
type Provider struct {
	lang.ProviderBase
}

// NewProvider implements lang.ProviderFunc.
func NewProvider(env *lang.Env, root lang.Node) lang.ContextProvider {
	return &Provider{ProviderBase: lang.ProviderBase{Env: env, Root: root}}
}

func (p *Provider) grammar() *Grammar {
	if s, ok := p.Root.Schema().(*Schema); ok {
		return s.Grammar
	}
	return nil
}

// Suggestions offers the literals that may follow the command prefix before
// pos. Inside an argument the handler of its type answers.
func (p *Provider) Suggestions(pos text.Position, rc *lang.ReplaceContext) []string {
	if rc != nil {
		rc.Span, rc.Prefix = text.PointSpan(pos), ""
	}
	m := lang.BestMatch(p.Root, pos)
	if out, ok := p.TypedSuggestions(m, pos, rc); ok {
		return out
	}
	g := p.grammar()
	if g == nil {
		return nil
	}

	var cmd *Command
	for _, n := range m.Contained {
		if c, ok := n.(*Command); ok {
			cmd = c
		}
	}
	if cmd == nil {
		switch m.Hit.(type) {
		case *Comment, *Macro:
			return nil
		}
		if !p.lineBlank(pos) {
			return nil
		}
		return literalNames(g.Root.Children, "")
	}
	if len(cmd.Parts) == 0 {
		return literalNames(g.Root.Children, "")
	}

	node := g.Root
	for _, part := range cmd.Parts {
		sp := part.Span()
		if sp.End.Before(pos) {
			node = partNode(part)
			if node == nil {
				return nil
			}
			continue
		}
		if pos.Before(sp.Start) {
			return nil
		}
		prefix := string(p.source(sp.Start, pos))
		if rc != nil {
			rc.Span, rc.Prefix = sp, prefix
		}
		return literalNames(g.Next(node), prefix)
	}
	last := cmd.Parts[len(cmd.Parts)-1].Span().End
	if string(p.source(last, pos)) != " " {
		return nil
	}
	return literalNames(g.Next(node), "")
}

func partNode(n Node) *CommandNode {
	switch n := n.(type) {
	case *Literal:
		return n.node
	case *Argument:
		return n.node
	default:
		return nil
	}
}

func literalNames(cands []*CommandNode, prefix string) []string {
	var out []string
	for _, c := range cands {
		switch {
		case c.Type == NodeLiteral && strings.HasPrefix(c.Name, prefix):
			out = append(out, c.Name)
		case c.Type == NodeArgument && c.Parser == "brigadier:bool":
			for _, v := range []string{"true", "false"} {
				if strings.HasPrefix(v, prefix) {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// Documentation describes the literal or argument under the cursor.
func (p *Provider) Documentation(pos text.Position) string {
	m := lang.BestMatch(p.Root, pos)
	var parts []string
	switch n := m.Hit.(type) {
	case *Literal:
		if n.node == nil {
			return ""
		}
		parts = append(parts, "`"+n.node.Usage()+"`")
	case *Argument:
		parts = append(parts, fmt.Sprintf("`%s`: `%s`", n.node.Usage(), n.node.Parser))
		if h, ok := p.Handler(n); ok {
			if d := h.Documentation(p.Env, n, pos); d != "" {
				parts = append(parts, d)
			}
		}
	default:
		return ""
	}
	if s := m.Hit.Schema(); s != nil && s.Description() != "" {
		parts = append(parts, s.Description())
	}
	return strings.Join(parts, "\n\n")
}

// lineBlank reports whether only blanks precede pos on its line. Scanning
// starts at the root so text around an embedded command is ignored.
func (p *Provider) lineBlank(pos text.Position) bool {
	var from text.Position
	if p.Root != nil {
		from = p.Root.Span().Start
	}
	src := p.source(from, pos)
	if i := bytes.LastIndexByte(src, '\n'); i >= 0 {
		src = src[i+1:]
	}
	return len(bytes.TrimSpace(src)) == 0
}

func (p *Provider) source(from, to text.Position) []byte {
	if p.Env == nil {
		return nil
	}
	i, j := int(from.Index), int(to.Index)
	if i < 0 || j > len(p.Env.Source) || i > j {
		return nil
	}
	return p.Env.Source[i:j]
}
