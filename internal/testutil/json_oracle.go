//go:build cgo && dpe_cgo

package testutil

import (
	"errors"
	"fmt"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjson "github.com/tree-sitter/tree-sitter-json/bindings/go"
)

// JSONOracle parses JSON with the tree-sitter-json grammar as a structural
// reference for the hand-written parser.
type JSONOracle struct {
	parser *sitter.Parser
}

// NewJSONOracle returns an oracle. Close releases the parser.
func NewJSONOracle() (*JSONOracle, error) {
	p := sitter.NewParser()
	if err := p.SetLanguage(sitter.NewLanguage(tsjson.Language())); err != nil {
		p.Close()
		return nil, fmt.Errorf("set json language: %w", err)
	}
	return &JSONOracle{parser: p}, nil
}

// RequireJSONOracle returns an oracle closed at the end of the test.
func RequireJSONOracle(t testing.TB) *JSONOracle {
	t.Helper()
	o, err := NewJSONOracle()
	if err != nil {
		t.Fatalf("json oracle unavailable: %v", err)
	}
	t.Cleanup(o.Close)
	return o
}

// Close releases the parser.
func (o *JSONOracle) Close() {
	if o != nil && o.parser != nil {
		o.parser.Close()
	}
}

// Result is the oracle's view of a document.
type Result struct {
	// Valid is false when the tree holds ERROR or MISSING nodes.
	Valid bool
	// Keys lists the raw object keys, quotes included, in document order.
	Keys []string
	// Sexp is the S-expression of the tree.
	Sexp string
}

// Parse parses src as one JSON document.
func (o *JSONOracle) Parse(src []byte) (Result, error) {
	tree := o.parser.Parse(src, nil)
	if tree == nil {
		return Result{}, errors.New("tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	res := Result{
		Valid: !root.HasError() && root.NamedChildCount() == 1,
		Sexp:  root.ToSexp(),
	}
	collectKeys(root, src, &res.Keys)
	return res, nil
}

func collectKeys(n *sitter.Node, src []byte, out *[]string) {
	if n == nil {
		return
	}
	if n.Kind() == "pair" {
		if key := n.ChildByFieldName("key"); key != nil {
			*out = append(*out, key.Utf8Text(src))
		}
	}
	for i := range n.ChildCount() {
		collectKeys(n.Child(i), src, out)
	}
}
