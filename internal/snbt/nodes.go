package snbt

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// TagType is the NBT tag type a node denotes.
type TagType uint8

// TagType values in NBT id order.
const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

func (t TagType) String() string {
	switch t {
	case TagEnd:
		return "end"
	case TagByte:
		return "byte"
	case TagShort:
		return "short"
	case TagInt:
		return "int"
	case TagLong:
		return "long"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagByteArray:
		return "byte_array"
	case TagString:
		return "string"
	case TagList:
		return "list"
	case TagCompound:
		return "compound"
	case TagIntArray:
		return "int_array"
	case TagLongArray:
		return "long_array"
	default:
		return fmt.Sprintf("TagType(%d)", t)
	}
}

// Node is an SNBT tree node. The set of implementations is closed.
type Node interface {
	lang.Node
	// Tag returns the tag type, TagEnd for invalid nodes and entries.
	Tag() TagType
}

type base struct {
	span   text.Span
	schema lang.Schema
}

func (b *base) Span() text.Span { return b.span }

func (b *base) Schema() lang.Schema { return b.schema }

// Invalid is a placeholder for a value that could not be parsed.
type Invalid struct{ base }

// Compound is a `{key: value}` tag. Entries keep document order and
// duplicates.
type Compound struct {
	base
	Entries   []*Entry
	Closed    bool
	closeSpan text.Span
}

// Entry is one key/value pair of a compound.
type Entry struct {
	span  text.Span
	Key   *String
	Value Node
}

// List is a `[a, b]` tag.
type List struct {
	base
	Elements []Node
	Closed   bool
}

// Array is a typed `[B;`, `[I;` or `[L;` array.
type Array struct {
	base
	Type     TagType
	Elements []Node
	Closed   bool
	prefix   text.Span
}

// String is a quoted or unquoted string. Quote is 0 for unquoted strings.
type String struct {
	base
	Value       string
	Quote       byte
	contentSpan text.Span
}

// Number is a numeric tag. Type is one of the numeric tag types.
type Number struct {
	base
	Type  TagType
	Int   int64
	Float float64
	Raw   string
}

// Bool is `true` or `false`, stored as a byte.
type Bool struct {
	base
	Value bool
}

// Tag implements Node.
func (*Invalid) Tag() TagType { return TagEnd }

// Tag implements Node.
func (*Compound) Tag() TagType { return TagCompound }

// Tag implements Node.
func (*Entry) Tag() TagType { return TagEnd }

// Tag implements Node.
func (*List) Tag() TagType { return TagList }

// Tag implements Node.
func (n *Array) Tag() TagType {
	switch n.Type {
	case TagByte:
		return TagByteArray
	case TagLong:
		return TagLongArray
	default:
		return TagIntArray
	}
}

// Tag implements Node.
func (*String) Tag() TagType { return TagString }

// Tag implements Node.
func (n *Number) Tag() TagType { return n.Type }

// Tag implements Node.
func (*Bool) Tag() TagType { return TagByte }

// TypeName implements lang.Node.
func (*Invalid) TypeName() string { return "invalid" }

// TypeName implements lang.Node.
func (n *Compound) TypeName() string { return n.Tag().String() }

// TypeName implements lang.Node.
func (*Entry) TypeName() string { return "entry" }

// TypeName implements lang.Node.
func (n *List) TypeName() string { return n.Tag().String() }

// TypeName implements lang.Node.
func (n *Array) TypeName() string { return n.Tag().String() }

// TypeName implements lang.Node.
func (n *String) TypeName() string { return n.Tag().String() }

// TypeName implements lang.Node.
func (n *Number) TypeName() string { return n.Tag().String() }

// TypeName implements lang.Node.
func (*Bool) TypeName() string { return "boolean" }

// Children implements lang.Node.
func (*Invalid) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (n *Compound) Children() []lang.Node {
	out := make([]lang.Node, len(n.Entries))
	for i, e := range n.Entries {
		out[i] = e
	}
	return out
}

// Children implements lang.Node.
func (e *Entry) Children() []lang.Node { return []lang.Node{e.Key, e.Value} }

// Children implements lang.Node.
func (n *List) Children() []lang.Node { return nodes(n.Elements) }

// Children implements lang.Node.
func (n *Array) Children() []lang.Node { return nodes(n.Elements) }

// Children implements lang.Node.
func (*String) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Number) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Bool) Children() []lang.Node { return nil }

func nodes(in []Node) []lang.Node {
	out := make([]lang.Node, len(in))
	for i, n := range in {
		out[i] = n
	}
	return out
}

// Span implements lang.Node.
func (e *Entry) Span() text.Span { return e.span }

// Schema implements lang.Node; entries carry no schema.
func (*Entry) Schema() lang.Schema { return nil }

// PropertyName implements lang.PropertyNode.
func (e *Entry) PropertyName() string { return e.Key.Value }

// Entry returns the first entry named key, or nil.
func (n *Compound) Entry(key string) *Entry {
	for _, e := range n.Entries {
		if e.Key.Value == key {
			return e
		}
	}
	return nil
}

// CloseSpan covers the closing brace, or is empty at the end of the
// compound when the brace is missing.
func (n *Compound) CloseSpan() text.Span { return n.closeSpan }

// PrefixSpan covers the `[B;` opener.
func (n *Array) PrefixSpan() text.Span { return n.prefix }

// ContentSpan covers the string without its quotes.
func (n *String) ContentSpan() text.Span { return n.contentSpan }

var _ lang.PropertyNode = (*Entry)(nil)
