package snbt

import (
	"bytes"
	"fmt"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

var valueStarts = []string{"{", "[", `"`, "true", "false"}

// Provider answers cursor queries over an SNBT tree.
type Provider struct {
	lang.ProviderBase
}

// NewProvider implements lang.ProviderFunc.
func NewProvider(env *lang.Env, root lang.Node) lang.ContextProvider {
	return &Provider{ProviderBase: lang.ProviderBase{Env: env, Root: root}}
}

// Validate runs the structural NBT checks.
func (p *Provider) Validate(errs *diag.List) {
	if root, ok := p.Root.(Node); ok {
		errs.Add(Validate(root)...)
	}
	p.ProviderBase.Validate(errs)
}

// Suggestions offers tag starts and delimiters.
func (p *Provider) Suggestions(pos text.Position, rc *lang.ReplaceContext) []string {
	if rc != nil {
		rc.Span, rc.Prefix = text.PointSpan(pos), ""
	}
	m := lang.BestMatch(p.Root, pos)
	container, before := m.Container(), m.Before
	if m.Hit != nil {
		switch hit := m.Hit.(type) {
		case *Invalid:
			return valueStarts
		case *Compound, *List, *Array:
			if hit.Span().End.After(pos) {
				container, before = hit, nil
				break
			}
			container, before = m.Parent(), hit
		default:
			if hit.Span().End.After(pos) {
				return nil
			}
			container, before = m.Parent(), hit
		}
	}
	if e, ok := container.(*Entry); ok {
		if vs := e.Value.Span(); !vs.IsEmpty() && !pos.After(vs.Start) {
			return valueStarts
		}
		container, before = parentOf(m, e), e
	}

	switch c := container.(type) {
	case *Compound:
		if before == nil {
			if len(c.Entries) == 0 {
				return []string{"}"}
			}
			return nil
		}
		e, ok := before.(*Entry)
		if !ok {
			return nil
		}
		if inv, ok := e.Value.(*Invalid); ok && inv.Span().IsEmpty() {
			if bytes.IndexByte(p.source(e.Key.Span().End, pos), ':') < 0 {
				return []string{":"}
			}
			return valueStarts
		}
		if bytes.IndexByte(p.source(e.Span().End, pos), ',') >= 0 {
			return nil
		}
		return []string{",", "}"}
	case *List, *Array:
		if before == nil {
			if len(c.Children()) == 0 {
				return append(valueStarts[:len(valueStarts):len(valueStarts)], "]")
			}
			return valueStarts
		}
		if bytes.IndexByte(p.source(before.Span().End, pos), ',') >= 0 {
			return valueStarts
		}
		return []string{",", "]"}
	default:
		return nil
	}
}

// Documentation names the tag under the cursor.
func (p *Provider) Documentation(pos text.Position) string {
	m := lang.BestMatch(p.Root, pos)
	n, ok := m.Hit.(Node)
	if !ok {
		n, ok = m.Container().(Node)
	}
	if !ok || n.Tag() == TagEnd {
		return p.ProviderBase.Documentation(pos)
	}
	doc := fmt.Sprintf("`%s` tag", n.Tag())
	if d := p.ProviderBase.Documentation(pos); d != "" {
		doc += "\n\n" + d
	}
	return doc
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

func parentOf(m lang.Match, n lang.Node) lang.Node {
	for i := len(m.Contained) - 1; i > 0; i-- {
		if m.Contained[i] == n {
			return m.Contained[i-1]
		}
	}
	return nil
}
