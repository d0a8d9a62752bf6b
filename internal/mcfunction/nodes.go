package mcfunction

import (
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Node is an MCFunction tree node. The set of implementations is closed.
type Node interface {
	lang.Node
	mcfunctionNode()
}

// File is the root: one node per non-blank line.
type File struct {
	span   text.Span
	schema lang.Schema
	Lines  []Node
}

// Comment is a `#` line.
type Comment struct {
	span text.Span
	Text string
}

// Macro is a `$` line. Its text is only known after substitution, so it is
// not parsed as a command.
type Macro struct {
	span text.Span
	Text string
	// Vars cover each `$(name)` reference.
	Vars []text.Span
}

// Command is one command line.
type Command struct {
	span text.Span
	// Slash covers a leading `/`; it is empty when there is none.
	Slash text.Span
	Parts []Node
}

// Literal is a literal word matched against the command tree. Its schema
// is nil when no grammar was available.
type Literal struct {
	span  text.Span
	Value string
	node  *CommandNode
}

// Argument is an argument value. Its content is interpreted by the handler
// registered for the parser of its command node.
type Argument struct {
	span        text.Span
	Raw         string
	node        *CommandNode
	value       string
	contentSpan text.Span
	origin      *text.Origin
	parsed      any
}

// Invalid covers text that could not be matched.
type Invalid struct {
	span text.Span
	Text string
}

func (*File) mcfunctionNode()    {}
func (*Comment) mcfunctionNode() {}
func (*Macro) mcfunctionNode()   {}
func (*Command) mcfunctionNode() {}
func (*Literal) mcfunctionNode() {}
func (*Argument) mcfunctionNode() {}
func (*Invalid) mcfunctionNode() {}

// Span implements lang.Node.
func (n *File) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Comment) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Macro) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Command) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Literal) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Argument) Span() text.Span { return n.span }

// Span implements lang.Node.
func (n *Invalid) Span() text.Span { return n.span }

// Children implements lang.Node.
func (n *File) Children() []lang.Node { return nodes(n.Lines) }

// Children implements lang.Node.
func (*Comment) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Macro) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (n *Command) Children() []lang.Node { return nodes(n.Parts) }

// Children implements lang.Node.
func (*Literal) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Argument) Children() []lang.Node { return nil }

// Children implements lang.Node.
func (*Invalid) Children() []lang.Node { return nil }

func nodes(in []Node) []lang.Node {
	out := make([]lang.Node, len(in))
	for i, n := range in {
		out[i] = n
	}
	return out
}

// Schema implements lang.Node.
func (n *File) Schema() lang.Schema { return n.schema }

// Schema implements lang.Node.
func (*Comment) Schema() lang.Schema { return nil }

// Schema implements lang.Node.
func (*Macro) Schema() lang.Schema { return nil }

// Schema implements lang.Node.
func (*Command) Schema() lang.Schema { return nil }

// Schema implements lang.Node.
func (n *Literal) Schema() lang.Schema {
	if n.node == nil {
		return nil
	}
	return n.node
}

// Schema implements lang.Node.
func (n *Argument) Schema() lang.Schema { return n.node }

// Schema implements lang.Node.
func (*Invalid) Schema() lang.Schema { return nil }

// TypeName implements lang.Node.
func (*File) TypeName() string { return "function" }

// TypeName implements lang.Node.
func (*Comment) TypeName() string { return "comment" }

// TypeName implements lang.Node.
func (*Macro) TypeName() string { return "macro" }

// TypeName implements lang.Node.
func (*Command) TypeName() string { return "command" }

// TypeName implements lang.Node.
func (*Literal) TypeName() string { return "literal" }

// TypeName implements lang.Node.
func (n *Argument) TypeName() string { return n.node.Parser }

// TypeName implements lang.Node.
func (*Invalid) TypeName() string { return "invalid" }

// Node returns the command tree node the literal matched.
func (n *Literal) Node() *CommandNode { return n.node }

// Node returns the command tree node of the argument.
func (n *Argument) Node() *CommandNode { return n.node }

// Name returns the command tree name of the argument.
func (n *Argument) Name() string { return n.node.Name }

// ArgumentType implements lang.TypedNode.
func (n *Argument) ArgumentType() *lang.ArgumentType { return n.node.ArgumentType() }

// ArgumentArgs implements lang.TypedNode.
func (n *Argument) ArgumentArgs() map[string]any { return n.node.Properties }

// Content implements lang.TypedNode. Quoted strings are decoded.
func (n *Argument) Content() string { return n.value }

// ContentSpan implements lang.TypedNode.
func (n *Argument) ContentSpan() text.Span { return n.contentSpan }

// ContentOrigin implements lang.TypedNode.
func (n *Argument) ContentOrigin() *text.Origin { return n.origin }

// ParsedValue implements lang.TypedNode.
func (n *Argument) ParsedValue() any { return n.parsed }

// SetParsedValue implements lang.TypedNode.
func (n *Argument) SetParsedValue(v any) { n.parsed = v }

// Command returns the name of the command, or "" for an empty command.
func (n *Command) Command() string {
	if len(n.Parts) == 0 {
		return ""
	}
	if l, ok := n.Parts[0].(*Literal); ok {
		return l.Value
	}
	return ""
}

var _ lang.TypedNode = (*Argument)(nil)
