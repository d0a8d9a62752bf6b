package jsonlang

import (
	"bytes"
	"slices"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Provider answers cursor queries over a JSON tree.
type Provider struct {
	lang.ProviderBase
}

// NewProvider builds the provider for root. It implements lang.ProviderFunc.
func NewProvider(env *lang.Env, root lang.Node) lang.ContextProvider {
	return &Provider{ProviderBase: lang.ProviderBase{Env: env, Root: root}}
}

// Validate runs schema validation followed by handler validation.
func (p *Provider) Validate(errs *diag.List) {
	if root, ok := p.Root.(Node); ok {
		errs.Add(Validate(root)...)
	}
	p.ProviderBase.Validate(errs)
}

// Suggestions returns the completions valid at pos. rc, when non-nil, is set
// to the text a completion replaces.
func (p *Provider) Suggestions(pos text.Position, rc *lang.ReplaceContext) []string {
	m := lang.BestMatch(p.Root, pos)
	if out, ok := p.TypedSuggestions(m, pos, rc); ok {
		return out
	}
	setReplace(rc, text.PointSpan(pos), "")

	if m.Hit == nil {
		if prop, ok := m.Container().(*Property); ok {
			return p.propertyGap(m, prop, pos)
		}
		return p.gapSuggestions(m.Container(), m.Before, pos)
	}

	switch hit := m.Hit.(type) {
	case *Invalid:
		setReplace(rc, hit.Span(), string(p.source(hit.Span().Start, pos)))
		return valueSuggestions(hit.JSONSchema())
	case *Object, *Array:
		if !hit.Span().End.After(pos) && isClosed(hit) {
			return p.afterValue(m, pos)
		}
		return p.gapSuggestions(hit, nil, pos)
	case *String:
		if hit.Terminated && !hit.Span().End.After(pos) {
			return p.afterValue(m, pos)
		}
		if prop, ok := m.Parent().(*Property); ok && prop.Key == hit {
			obj, _ := parentOf(m, prop).(*Object)
			setReplace(rc, hit.ContentSpan(), string(p.source(hit.ContentSpan().Start, pos)))
			return keyNames(obj, prop)
		}
		return nil
	default:
		return p.afterValue(m, pos)
	}
}

// afterValue handles a cursor placed directly after a complete value: the
// suggestions are those of the gap following it in its container.
func (p *Provider) afterValue(m lang.Match, pos text.Position) []string {
	for i := len(m.Contained) - 2; i >= 0; i-- {
		switch m.Contained[i].(type) {
		case *Object, *Array:
			return p.gapSuggestions(m.Contained[i], m.Contained[i+1], pos)
		}
	}
	return nil
}

// propertyGap handles a cursor between the key and the value of prop.
func (p *Provider) propertyGap(m lang.Match, prop *Property, pos text.Position) []string {
	if vs := prop.Value.Span(); !vs.IsEmpty() && !pos.After(vs.Start) {
		return valueSuggestions(prop.Value.JSONSchema())
	}
	return p.gapSuggestions(parentOf(m, prop), prop, pos)
}

// gapSuggestions completes a position between the children of container.
// Whether a separator was already typed is decided by scanning the source
// between before and pos.
func (p *Provider) gapSuggestions(container, before lang.Node, pos text.Position) []string {
	switch c := container.(type) {
	case *Object:
		if before == nil {
			if len(c.Properties) == 0 {
				return append(keySuggestions(c), "}")
			}
			return keySuggestions(c)
		}
		prop, ok := before.(*Property)
		if !ok {
			return nil
		}
		if inv, ok := prop.Value.(*Invalid); ok && inv.Span().IsEmpty() {
			if bytes.IndexByte(p.source(prop.Key.Span().End, pos), ':') >= 0 {
				return valueSuggestions(inv.JSONSchema())
			}
			return []string{": "}
		}
		if bytes.IndexByte(p.source(prop.Span().End, pos), ',') >= 0 {
			return keySuggestions(c)
		}
		return []string{",", "}"}
	case *Array:
		var elem Schema
		if as, ok := c.JSONSchema().(*ArraySchema); ok {
			elem = as.Element
		}
		if before == nil {
			out := valueSuggestions(elem)
			if len(c.Elements) == 0 {
				out = append(out, "]")
			}
			return out
		}
		if bytes.IndexByte(p.source(before.Span().End, pos), ',') >= 0 {
			return valueSuggestions(elem)
		}
		return []string{",", "]"}
	default:
		return nil
	}
}

// source returns the document bytes between two positions, or nil when the
// document is unavailable.
func (p *Provider) source(from, to text.Position) []byte {
	if p.Env == nil {
		return nil
	}
	src := p.Env.Source
	i, j := int(from.Index), int(to.Index)
	if i < 0 || j > len(src) || i > j {
		return nil
	}
	return src[i:j]
}

func setReplace(rc *lang.ReplaceContext, span text.Span, prefix string) {
	if rc == nil {
		return
	}
	rc.Span = span
	rc.Prefix = prefix
}

func isClosed(n lang.Node) bool {
	switch n := n.(type) {
	case *Object:
		return n.Closed
	case *Array:
		return n.Closed
	default:
		return true
	}
}

func parentOf(m lang.Match, n lang.Node) lang.Node {
	for i := len(m.Contained) - 1; i > 0; i-- {
		if m.Contained[i] == n {
			return m.Contained[i-1]
		}
	}
	return nil
}

// valueSuggestions lists the tokens that can start a value of schema s.
func valueSuggestions(s Schema) []string {
	switch s := s.(type) {
	case nil, *AnySchema:
		return []string{`"`, "{", "[", "true", "false", "null"}
	case *NullSchema:
		return []string{"null"}
	case *BoolSchema:
		return []string{"true", "false"}
	case *StringSchema:
		return []string{`"`}
	case *ArraySchema:
		return []string{"["}
	case *ObjectSchema:
		return []string{"{"}
	case *UnionSchema:
		var out []string
		for _, o := range s.Options() {
			for _, v := range valueSuggestions(o) {
				if !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// keyNames lists the declared properties of obj not yet present. The
// property being edited does not count as present.
func keyNames(obj *Object, editing *Property) []string {
	if obj == nil {
		return nil
	}
	s := obj.ObjectSchema()
	if s == nil {
		return nil
	}
	var out []string
	for _, ps := range s.Properties() {
		if q := obj.Property(ps.Name); q == nil || q == editing {
			out = append(out, ps.Name)
		}
	}
	return out
}

// keySuggestions renders keyNames as property starts.
func keySuggestions(obj *Object) []string {
	names := keyNames(obj, nil)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = `"` + n + `": `
	}
	return out
}
