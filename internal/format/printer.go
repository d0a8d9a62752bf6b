package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdatapack/dpe/internal/jsonlang"
)

// printer builds docs for a parsed JSON tree. Strings and numbers keep their
// source spelling; single-quoted strings are rewritten with double quotes.
type printer struct {
	src    []byte
	expand bool
}

func (p *printer) node(n jsonlang.Node) (Doc, error) {
	switch n := n.(type) {
	case *jsonlang.Object:
		return p.object(n)
	case *jsonlang.Array:
		return p.array(n)
	case *jsonlang.String:
		return p.string(n)
	case *jsonlang.Number:
		return Text(n.Raw), nil
	case *jsonlang.Bool:
		if n.Value {
			return Text("true"), nil
		}
		return Text("false"), nil
	case *jsonlang.Null:
		return Text("null"), nil
	case nil:
		return Doc{}, errors.New("missing value")
	default:
		return Doc{}, fmt.Errorf("cannot format %s node", n.Kind())
	}
}

func (p *printer) object(o *jsonlang.Object) (Doc, error) {
	if len(o.Properties) == 0 {
		return Text("{}"), nil
	}
	items := make([]Doc, 0, len(o.Properties))
	for _, prop := range o.Properties {
		key, err := p.string(prop.Key)
		if err != nil {
			return Doc{}, err
		}
		value, err := p.node(prop.Value)
		if err != nil {
			return Doc{}, fmt.Errorf("property %q: %w", prop.Key.Value, err)
		}
		items = append(items, Concat(key, Text(": "), value))
	}
	return p.container("{", "}", items), nil
}

func (p *printer) array(a *jsonlang.Array) (Doc, error) {
	if len(a.Elements) == 0 {
		return Text("[]"), nil
	}
	items := make([]Doc, 0, len(a.Elements))
	for _, e := range a.Elements {
		d, err := p.node(e)
		if err != nil {
			return Doc{}, err
		}
		items = append(items, d)
	}
	return p.container("[", "]", items), nil
}

func (p *printer) container(open, close string, items []Doc) Doc {
	if p.expand {
		return Concat(
			Text(open),
			Indent(Concat(Line(), Join(Concat(Text(","), Line()), items))),
			Line(),
			Text(close),
		)
	}
	return Group(Concat(
		Text(open),
		Indent(Concat(SoftBreak(), Join(Concat(Text(","), SoftLine()), items))),
		SoftBreak(),
		Text(close),
	))
}

func (p *printer) string(s *jsonlang.String) (Doc, error) {
	if s == nil {
		return Doc{}, errors.New("missing string")
	}
	if s.Quote == '"' && s.Terminated {
		sp := s.Span()
		return Text(string(p.src[sp.Start.Index:sp.End.Index])), nil
	}
	q, err := quote(s.Value)
	if err != nil {
		return Doc{}, err
	}
	return Text(q), nil
}

func quote(v string) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(b.Bytes(), []byte("\n"))), nil
}
