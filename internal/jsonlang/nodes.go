package jsonlang

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Kind identifies the concrete node type.
type Kind uint8

// Kind values.
const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindProperty
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindProperty:
		return "property"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Node is a JSON tree node. The set of implementations is closed.
type Node interface {
	lang.Node
	Kind() Kind
	// JSONSchema returns the attached schema, or nil.
	JSONSchema() Schema
	setSchema(Schema)
}

type base struct {
	span   text.Span
	schema Schema
}

func (b *base) Span() text.Span { return b.span }

func (b *base) JSONSchema() Schema { return b.schema }

func (b *base) Schema() lang.Schema {
	if b.schema == nil {
		return nil
	}
	return b.schema
}

func (b *base) setSchema(s Schema) { b.schema = s }

// Invalid is a placeholder for a value that could not be parsed.
type Invalid struct{ base }

// Null is the null literal.
type Null struct{ base }

// Bool is a boolean literal.
type Bool struct {
	base
	Value bool
}

// Number is a numeric literal. IsInt reports an integer-shaped literal; Int
// is only set when the literal fits in an int64. Malformed literals carry
// just Raw.
type Number struct {
	base
	Int       int64
	Float     float64
	IsInt     bool
	Malformed bool
	Raw       string
}

// Value returns the number as a float.
func (n *Number) Value() float64 { return n.Float }

func (n *Number) fitsInt() bool {
	return n.IsInt && float64(n.Int) == n.Float
}

// String is a string literal. Value is decoded; Span includes the quotes.
type String struct {
	base
	Value      string
	Quote      byte
	Terminated bool

	contentSpan text.Span
	origin      *text.Origin
	mapper      *text.IndexMapper
	parsed      any
}

// Array is an array literal.
type Array struct {
	base
	Elements []Node
	Closed   bool
}

// Object is an object literal. Properties keep document order and
// duplicates.
type Object struct {
	base
	Properties []*Property
	Closed     bool
	closeSpan  text.Span
}

// Property is a key/value pair of an object.
type Property struct {
	span   text.Span
	Key    *String
	Value  Node
	schema *PropertySchema
}

// Kind implements Node.
func (*Invalid) Kind() Kind { return KindInvalid }

// Kind implements Node.
func (*Null) Kind() Kind { return KindNull }

// Kind implements Node.
func (*Bool) Kind() Kind { return KindBool }

// Kind implements Node.
func (*Number) Kind() Kind { return KindNumber }

// Kind implements Node.
func (*String) Kind() Kind { return KindString }

// Kind implements Node.
func (*Array) Kind() Kind { return KindArray }

// Kind implements Node.
func (*Object) Kind() Kind { return KindObject }

// Kind implements Node.
func (*Property) Kind() Kind { return KindProperty }

// TypeName implements lang.Node.
func (n *Invalid) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node.
func (n *Null) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node.
func (n *Bool) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node. Integer-shaped numbers report "integer".
func (n *Number) TypeName() string {
	if n.IsInt {
		return "integer"
	}
	return "float"
}

// TypeName implements lang.Node.
func (n *String) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node.
func (n *Array) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node.
func (n *Object) TypeName() string { return n.Kind().String() }

// TypeName implements lang.Node.
func (n *Property) TypeName() string { return n.Kind().String() }

// Children implements lang.Node.
func (*Invalid) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Null) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Bool) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Number) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*String) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (n *Array) Children() []lang.Node {
	out := make([]lang.Node, len(n.Elements))
	for i, e := range n.Elements {
		out[i] = e
	}
	return out
}

// Children implements lang.Node.
func (n *Object) Children() []lang.Node {
	out := make([]lang.Node, len(n.Properties))
	for i, p := range n.Properties {
		out[i] = p
	}
	return out
}

// Children implements lang.Node.
func (p *Property) Children() []lang.Node {
	return []lang.Node{p.Key, p.Value}
}

// Property returns the first property named name, or nil.
func (n *Object) Property(name string) *Property {
	for _, p := range n.Properties {
		if p.Key.Value == name {
			return p
		}
	}
	return nil
}

// CloseSpan covers the closing brace, or is empty at the end of the object
// when the brace is missing.
func (n *Object) CloseSpan() text.Span { return n.closeSpan }

// ObjectSchema returns the attached object schema, or nil.
func (n *Object) ObjectSchema() *ObjectSchema {
	s, _ := n.schema.(*ObjectSchema)
	return s
}

// Span implements lang.Node.
func (p *Property) Span() text.Span { return p.span }

// Schema implements lang.Node.
func (p *Property) Schema() lang.Schema {
	if p.schema == nil {
		return nil
	}
	return p.schema
}

// JSONSchema returns nil; properties carry a PropertySchema instead.
func (p *Property) JSONSchema() Schema { return nil }

func (p *Property) setSchema(Schema) {}

// PropertySchema returns the resolved property schema, or nil.
func (p *Property) PropertySchema() *PropertySchema { return p.schema }

// PropertyName implements lang.PropertyNode.
func (p *Property) PropertyName() string { return p.Key.Value }

// ArgumentType implements lang.TypedNode.
func (n *String) ArgumentType() *lang.ArgumentType {
	if s, ok := n.schema.(*StringSchema); ok {
		return s.Type
	}
	return nil
}

// ArgumentArgs implements lang.TypedNode.
func (n *String) ArgumentArgs() map[string]any {
	if s, ok := n.schema.(*StringSchema); ok {
		return s.Args
	}
	return nil
}

// Content implements lang.TypedNode.
func (n *String) Content() string { return n.Value }

// ContentSpan implements lang.TypedNode.
func (n *String) ContentSpan() text.Span { return n.contentSpan }

// ContentOrigin implements lang.TypedNode.
func (n *String) ContentOrigin() *text.Origin { return n.origin }

// Mapper returns the decoded-to-encoded index mapper, nil without escapes.
func (n *String) Mapper() *text.IndexMapper { return n.mapper }

// ParsedValue implements lang.TypedNode.
func (n *String) ParsedValue() any { return n.parsed }

// SetParsedValue implements lang.TypedNode.
func (n *String) SetParsedValue(v any) { n.parsed = v }

var (
	_ lang.TypedNode    = (*String)(nil)
	_ lang.PropertyNode = (*Property)(nil)
	_ Node              = (*Property)(nil)
)
