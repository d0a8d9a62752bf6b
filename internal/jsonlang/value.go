package jsonlang

import (
	"encoding/json"
	"strings"
)

// ToAny converts a tree into the generic value shapes produced by
// encoding/json: map[string]any, []any, json.Number, string, bool and nil.
// Later duplicates of a key win. Invalid nodes become nil.
func ToAny(n Node) any {
	switch n := n.(type) {
	case *Object:
		m := make(map[string]any, len(n.Properties))
		for _, p := range n.Properties {
			m[p.Key.Value] = ToAny(p.Value)
		}
		return m
	case *Array:
		out := make([]any, len(n.Elements))
		for i, e := range n.Elements {
			out[i] = ToAny(e)
		}
		return out
	case *String:
		return n.Value
	case *Number:
		if n.Raw == "" || !validNumber([]byte(n.Raw)) {
			return json.Number("0")
		}
		return json.Number(strings.TrimPrefix(n.Raw, "+"))
	case *Bool:
		return n.Value
	default:
		return nil
	}
}
