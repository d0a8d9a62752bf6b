package lang

import (
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// ProviderBase implements the language-neutral parts of ContextProvider:
// dispatch to argument-type handlers and documentation lookup. Language
// providers embed it and add suggestions and schema validation.
type ProviderBase struct {
	Env  *Env
	Root Node
}

// Tree returns the root node.
func (p *ProviderBase) Tree() Node { return p.Root }

// Handler returns the Context registered for the node's argument type.
func (p *ProviderBase) Handler(n TypedNode) (Context, bool) {
	at := n.ArgumentType()
	if at == nil || p.Env == nil || p.Env.Registry == nil {
		return nil, false
	}
	return p.Env.Registry.Context(at.Name)
}

// Prepare runs handler preparation on every typed node.
func (p *ProviderBase) Prepare(errs *diag.List) {
	for _, n := range TypedNodes(p.Root) {
		if h, ok := p.Handler(n); ok {
			h.Prepare(p.Env, n, errs)
		}
	}
}

// Validate runs handler validation on every typed node.
func (p *ProviderBase) Validate(errs *diag.List) {
	for _, n := range TypedNodes(p.Root) {
		if h, ok := p.Handler(n); ok {
			h.Validate(p.Env, n, errs)
		}
	}
}

// TypedSuggestions asks the handler of a typed hit for suggestions. ok is
// false when the match is not inside typed content.
func (p *ProviderBase) TypedSuggestions(m Match, pos text.Position, rc *ReplaceContext) ([]string, bool) {
	tn, ok := m.Hit.(TypedNode)
	if !ok || !tn.ContentSpan().ContainsInclusive(pos) {
		return nil, false
	}
	h, ok := p.Handler(tn)
	if !ok {
		return nil, false
	}
	if rc != nil {
		rc.Span = tn.ContentSpan()
		rc.Prefix = prefixBefore(tn, pos)
	}
	return h.Suggestions(p.Env, tn, pos, rc), true
}

// Documentation collects schema descriptions from the innermost node
// outwards, stopping after the enclosing property. A typed hit prepends its
// handler documentation.
func (p *ProviderBase) Documentation(pos text.Position) string {
	m := BestMatch(p.Root, pos)
	var parts []string
	if tn, ok := m.Hit.(TypedNode); ok {
		if h, ok := p.Handler(tn); ok {
			if d := h.Documentation(p.Env, tn, pos); d != "" {
				parts = append(parts, d)
			}
		}
	}
	for i := len(m.Contained) - 1; i >= 0; i-- {
		n := m.Contained[i]
		if s := n.Schema(); s != nil {
			if d := s.Description(); d != "" && (len(parts) == 0 || parts[len(parts)-1] != d) {
				parts = append(parts, d)
			}
		}
		if _, ok := n.(PropertyNode); ok {
			break
		}
	}
	return strings.Join(parts, "\n\n")
}

// ClickableRanges collects handler ranges of typed nodes overlapping span.
func (p *ProviderBase) ClickableRanges(span text.Span) []text.Span {
	var out []text.Span
	for _, n := range TypedNodes(p.Root) {
		ns := n.Span()
		if !ns.Overlaps(span) && !span.ContainsSpan(ns) {
			continue
		}
		if h, ok := p.Handler(n); ok {
			out = append(out, h.ClickableRanges(p.Env, n)...)
		}
	}
	return out
}

// OnIndicatorClicked resolves the navigation target under pos.
func (p *ProviderBase) OnIndicatorClicked(pos text.Position) (Target, bool) {
	m := BestMatch(p.Root, pos)
	tn, ok := m.Hit.(TypedNode)
	if !ok {
		return Target{}, false
	}
	h, ok := p.Handler(tn)
	if !ok {
		return Target{}, false
	}
	return h.OnIndicatorClicked(p.Env, tn, pos)
}

func prefixBefore(n TypedNode, pos text.Position) string {
	content := n.Content()
	i := n.ContentOrigin().Local(pos.Index)
	return content[:min(max(i, 0), len(content))]
}
