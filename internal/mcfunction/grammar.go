package mcfunction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/mcdatapack/dpe/internal/lang"
)

// NodeType is the brigadier node type.
type NodeType string

// NodeType values of a commands.json tree.
const (
	NodeRoot     NodeType = "root"
	NodeLiteral  NodeType = "literal"
	NodeArgument NodeType = "argument"
)

// CommandNode is one node of the brigadier command tree. Argument nodes are
// the schema of the argument nodes a parse produces; literal nodes are the
// schema of literals.
type CommandNode struct {
	Type       NodeType       `json:"type"`
	Name       string         `json:"-"`
	Children   Children       `json:"children,omitempty"`
	Executable bool           `json:"executable,omitempty"`
	Redirect   []string       `json:"redirect,omitempty"`
	Parser     string         `json:"parser,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Desc       string         `json:"description,omitempty"`
	Deprecated bool           `json:"deprecated,omitempty"`

	argType *lang.ArgumentType
}

// Children keeps the document order of a node's children, which is the
// order brigadier tries them in.
type Children []*CommandNode

// UnmarshalJSON decodes the children object in key order.
func (c *Children) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("children: expected an object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		n := &CommandNode{}
		if err := dec.Decode(n); err != nil {
			return fmt.Errorf("children: node %q: %w", name, err)
		}
		n.Name = name
		*c = append(*c, n)
	}
	_, err := dec.Token()
	return err
}

// Description implements lang.Schema.
func (n *CommandNode) Description() string { return n.Desc }

// IsDeprecated implements lang.Schema.
func (n *CommandNode) IsDeprecated() bool { return n.Deprecated }

// TypeName implements lang.Schema.
func (n *CommandNode) TypeName() string {
	switch n.Type {
	case NodeArgument:
		return n.Parser
	case NodeLiteral:
		return "literal"
	default:
		return "command"
	}
}

// Usage renders the node the way command usage lines do: literals by name,
// arguments in angle brackets.
func (n *CommandNode) Usage() string {
	if n.Type == NodeArgument {
		return "<" + n.Name + ">"
	}
	return n.Name
}

// ArgumentType returns the handler tag of an argument node, nil otherwise.
func (n *CommandNode) ArgumentType() *lang.ArgumentType {
	return n.argType
}

// Property returns a string property of an argument node.
func (n *CommandNode) Property(name string) string {
	s, _ := n.Properties[name].(string)
	return s
}

// Child returns the child named name, or nil.
func (n *CommandNode) Child(name string) *CommandNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Grammar is a brigadier command tree as dumped to commands.json by the
// game's data generator.
type Grammar struct {
	Root *CommandNode
}

var errNotRoot = errors.New("commands.json: top-level node is not a root")

// ParseGrammar decodes a commands.json document.
func ParseGrammar(data []byte) (*Grammar, error) {
	root := &CommandNode{}
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("commands.json: %w", err)
	}
	if root.Type != NodeRoot {
		return nil, errNotRoot
	}
	g := &Grammar{Root: root}
	if err := g.link(root, nil); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGrammar reads and decodes a commands.json document.
func LoadGrammar(r io.Reader) (*Grammar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read commands.json: %w", err)
	}
	return ParseGrammar(data)
}

func (g *Grammar) link(n *CommandNode, path []string) error {
	if n.Type == NodeArgument {
		if n.Parser == "" {
			return fmt.Errorf("commands.json: argument %s has no parser", strings.Join(path, " "))
		}
		n.argType = &lang.ArgumentType{Name: n.Parser, Description: n.Desc}
	}
	if len(n.Redirect) > 0 {
		if _, ok := g.Resolve(n.Redirect); !ok {
			return fmt.Errorf("commands.json: %s redirects to unknown node %s", strings.Join(path, " "), strings.Join(n.Redirect, " "))
		}
	}
	for _, c := range n.Children {
		if err := g.link(c, append(slices.Clip(path), c.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Resolve walks a path of node names from the root.
func (g *Grammar) Resolve(path []string) (*CommandNode, bool) {
	n := g.Root
	for _, name := range path {
		if n = n.Child(name); n == nil {
			return nil, false
		}
	}
	return n, true
}

// Next returns the nodes that may follow n. Redirects are followed; a node
// without children that is not executable redirects to the root, which is
// how the generator writes `execute run`.
func (g *Grammar) Next(n *CommandNode) []*CommandNode {
	if n == nil {
		return nil
	}
	if len(n.Redirect) > 0 {
		if target, ok := g.Resolve(n.Redirect); ok {
			return target.Children
		}
		return nil
	}
	if len(n.Children) == 0 && !n.Executable && n.Type != NodeRoot {
		return g.Root.Children
	}
	return n.Children
}

// Commands lists the top-level command names in sorted order.
func (g *Grammar) Commands() []string {
	out := make([]string, 0, len(g.Root.Children))
	for _, c := range g.Root.Children {
		out = append(out, c.Name)
	}
	slices.Sort(out)
	return out
}

//go:embed data/commands.json
var defaultCommands []byte

// DefaultGrammar returns the bundled sample grammar. It covers the commands
// datapacks use most and is replaced by a generated commands.json in
// configured projects.
var DefaultGrammar = sync.OnceValue(func() *Grammar {
	g, err := ParseGrammar(defaultCommands)
	if err != nil {
		panic(err)
	}
	return g
})

// Schema is the schema of an MCFunction document.
type Schema struct {
	Grammar *Grammar
	// Command restricts the document to one command, e.g. a command stored
	// in a JSON string. A leading slash is allowed there.
	Command bool
}

// Description implements lang.Schema.
func (s *Schema) Description() string {
	if s.Command {
		return "A Minecraft command."
	}
	return "A function: one command per line."
}

// IsDeprecated implements lang.Schema.
func (*Schema) IsDeprecated() bool { return false }

// TypeName implements lang.Schema.
func (s *Schema) TypeName() string {
	if s.Command {
		return "command"
	}
	return "function"
}
