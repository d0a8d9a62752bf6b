package snbt

import (
	"math"

	"github.com/mcdatapack/dpe/internal/diag"
)

// Validate checks the structural rules of NBT that the grammar does not
// express: root expectations, duplicate keys, homogeneous lists, typed
// array elements, and numeric ranges.
func Validate(root Node) []diag.Diagnostic {
	var errs diag.List
	if e, ok := root.Schema().(*Expect); ok && root.Tag() != TagEnd && root.Tag() != e.Type {
		errs.Errorf(diag.CodeTypeMismatch, root.Span(), "expected `%s`, got `%s`", e.Type, root.Tag())
		return errs
	}
	validateNode(root, &errs)
	return errs
}

func validateNode(n Node, errs *diag.List) {
	switch n := n.(type) {
	case *Compound:
		seen := make(map[string]struct{}, len(n.Entries))
		for _, e := range n.Entries {
			if _, dup := seen[e.Key.Value]; dup {
				errs.Errorf(diag.CodeDuplicateProperty, e.Key.Span(), "duplicate key `%s`", e.Key.Value)
			}
			seen[e.Key.Value] = struct{}{}
			validateNode(e.Value, errs)
		}
	case *List:
		want := TagEnd
		for _, el := range n.Elements {
			t := el.Tag()
			if t == TagEnd {
				continue
			}
			if want == TagEnd {
				want = t
			} else if t != want {
				errs.Errorf(diag.CodeTypeMismatch, el.Span(), "list elements must share one type: expected `%s`, got `%s`", want, t)
			}
			validateNode(el, errs)
		}
	case *Array:
		for _, el := range n.Elements {
			t := el.Tag()
			if t == TagEnd || t == n.Type {
				validateNode(el, errs)
				continue
			}
			errs.Errorf(diag.CodeTypeMismatch, el.Span(), "%s only holds `%s` values, got `%s`", n.Tag(), n.Type, t)
		}
	case *Number:
		if lo, hi, ok := intRange(n.Type); ok && (n.Int < lo || n.Int > hi) {
			errs.Errorf(diag.CodeOutOfBounds, n.Span(), "`%s` is out of range for %s", n.Raw, n.Type)
		}
		if n.Type == TagFloat && math.Abs(n.Float) > math.MaxFloat32 {
			errs.Errorf(diag.CodeOutOfBounds, n.Span(), "`%s` is out of range for float", n.Raw)
		}
	}
}

func intRange(t TagType) (lo, hi int64, ok bool) {
	//exhaustive:ignore Only bounded integer tags have a range.
	switch t {
	case TagByte:
		return math.MinInt8, math.MaxInt8, true
	case TagShort:
		return math.MinInt16, math.MaxInt16, true
	case TagInt:
		return math.MinInt32, math.MaxInt32, true
	default:
		return 0, 0, false
	}
}
