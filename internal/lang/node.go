// Package lang holds the language-neutral core: the node and schema
// contracts, best-match search, the context-provider protocol, the registry,
// and the embedded-language bridge.
package lang

import "github.com/mcdatapack/dpe/internal/text"

// Language identifies a registered language.
type Language string

// Node is a parsed tree node. Children are returned in document order.
type Node interface {
	Span() text.Span
	Children() []Node
	// Schema returns the attached schema, or nil when none was available.
	Schema() Schema
	TypeName() string
}

// Schema is the language-neutral part of every schema.
type Schema interface {
	Description() string
	IsDeprecated() bool
	TypeName() string
}

// ArgumentType tags string-like values with the handler that interprets
// them, e.g. minecraft:resource_location.
type ArgumentType struct {
	Name        string
	Description string
}

// TypedNode is a string-like node whose content can be interpreted by a
// Context handler.
type TypedNode interface {
	Node
	// ArgumentType returns nil when the node is untyped.
	ArgumentType() *ArgumentType
	ArgumentArgs() map[string]any
	// Content is the decoded value.
	Content() string
	// ContentSpan covers the encoded content, excluding quotes.
	ContentSpan() text.Span
	// ContentOrigin places Content inside the document.
	ContentOrigin() *text.Origin
	ParsedValue() any
	SetParsedValue(v any)
}

// PropertyNode is a key/value pair. Documentation lookup does not bubble
// past a property.
type PropertyNode interface {
	Node
	PropertyName() string
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// TypedNodes returns every typed node of the tree in document order.
// Embedded documents are not entered.
func TypedNodes(root Node) []TypedNode {
	var out []TypedNode
	Walk(root, func(n Node) bool {
		if tn, ok := n.(TypedNode); ok && tn.ArgumentType() != nil {
			out = append(out, tn)
		}
		return true
	})
	return out
}
