package jsonlang

import (
	"math"
	"strconv"

	"github.com/mcdatapack/dpe/internal/diag"
)

// Validate checks the tree against the schemas attached by enrichment. It
// does not modify the tree. Nodes without a schema, under AnySchema, or
// under an unresolved union are not checked.
func Validate(root Node) []diag.Diagnostic {
	var errs diag.List
	validateNode(root, &errs)
	return errs
}

func validateNode(n Node, errs *diag.List) {
	if n == nil {
		return
	}
	s := n.JSONSchema()
	switch s.(type) {
	case nil, *AnySchema, *UnionSchema:
		return
	}
	if n.Kind() == KindInvalid {
		return
	}
	if num, ok := n.(*Number); ok && num.Malformed {
		return
	}
	if !accepts(s, n) {
		errs.Errorf(diag.CodeTypeMismatch, n.Span(), "expected `%s`, got `%s`", s.TypeName(), n.TypeName())
		return
	}

	switch n := n.(type) {
	case *Number:
		validateNumber(n, s.(*NumberSchema), errs)
	case *Array:
		for _, e := range n.Elements {
			validateNode(e, errs)
		}
	case *Object:
		validateObject(n, s.(*ObjectSchema), errs)
	}
}

// accepts reports whether the node kind fits the schema kind. An integer
// schema rejects float-shaped numbers.
func accepts(s Schema, n Node) bool {
	switch s := s.(type) {
	case *NullSchema:
		return n.Kind() == KindNull
	case *BoolSchema:
		return n.Kind() == KindBool
	case *NumberSchema:
		num, ok := n.(*Number)
		return ok && (!s.Integer || num.IsInt)
	case *StringSchema:
		return n.Kind() == KindString
	case *ArraySchema:
		return n.Kind() == KindArray
	case *ObjectSchema:
		return n.Kind() == KindObject
	default:
		return true
	}
}

func validateNumber(n *Number, s *NumberSchema, errs *diag.List) {
	v := n.Value()
	if v >= s.Min && v <= s.Max {
		return
	}
	errs.Errorf(diag.CodeOutOfBounds, n.Span(), "number out of bounds: expected a value in [%s, %s]", formatBound(s.Min), formatBound(s.Max))
}

func formatBound(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func validateObject(n *Object, s *ObjectSchema, errs *diag.List) {
	seen := make(map[string]struct{}, len(n.Properties))
	for _, p := range n.Properties {
		name := p.Key.Value
		if _, dup := seen[name]; dup {
			errs.Errorf(diag.CodeDuplicateProperty, p.Key.Span(), "duplicate property `%s`", name)
			continue
		}
		seen[name] = struct{}{}
		if p.schema == nil {
			errs.Errorf(diag.CodeUnknownProperty, p.Key.Span(), "unknown property `%s`", name)
			continue
		}
		validateNode(p.Value, errs)
	}
	for _, ps := range s.Properties() {
		if _, ok := seen[ps.Name]; ok || !ps.Mandatory() {
			continue
		}
		errs.Errorf(diag.CodeMissingProperty, n.CloseSpan(), "missing mandatory property `%s`", ps.Name)
	}
}
