package contexts

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// numberContext parses brigadier numeric arguments and checks the "min" and
// "max" arguments.
type numberContext struct {
	lang.BaseContext
	integer bool
	bits    int
}

func (c numberContext) name() string {
	switch {
	case c.integer && c.bits == 64:
		return "long"
	case c.integer:
		return "integer"
	case c.bits == 32:
		return "float"
	default:
		return "double"
	}
}

func (c numberContext) Prepare(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	s := n.Content()
	var v float64
	if c.integer {
		i, err := strconv.ParseInt(s, 10, c.bits)
		if err != nil {
			errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "invalid %s `%s`", c.name(), s)
			return
		}
		v = float64(i)
	} else {
		f, err := strconv.ParseFloat(s, c.bits)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, "xXpP_") {
			errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "invalid %s `%s`", c.name(), s)
			return
		}
		v = f
	}
	n.SetParsedValue(v)
}

func (c numberContext) Validate(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	v, ok := n.ParsedValue().(float64)
	if !ok {
		return
	}
	args := n.ArgumentArgs()
	lo, hasLo := numberArg(args, "min")
	hi, hasHi := numberArg(args, "max")
	if (hasLo && v < lo) || (hasHi && v > hi) {
		if !hasLo {
			lo = math.Inf(-1)
		}
		if !hasHi {
			hi = math.Inf(1)
		}
		errs.Errorf(diag.CodeOutOfBounds, n.ContentSpan(), "%s out of bounds: expected a value in [%s, %s]",
			c.name(), formatBound(lo), formatBound(hi))
	}
}

func (c numberContext) Documentation(_ *lang.Env, n lang.TypedNode, _ text.Position) string {
	args := n.ArgumentArgs()
	lo, hasLo := numberArg(args, "min")
	hi, hasHi := numberArg(args, "max")
	switch {
	case hasLo && hasHi:
		return fmt.Sprintf("A %s in [%s, %s].", c.name(), formatBound(lo), formatBound(hi))
	case hasLo:
		return fmt.Sprintf("A %s of at least %s.", c.name(), formatBound(lo))
	case hasHi:
		return fmt.Sprintf("A %s of at most %s.", c.name(), formatBound(hi))
	default:
		return ""
	}
}

// numberArg reads a numeric handler argument. Arguments decoded from JSON
// arrive as float64 or json.Number.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
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

type boolContext struct{ lang.BaseContext }

func (boolContext) Prepare(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	switch n.Content() {
	case "true":
		n.SetParsedValue(true)
	case "false":
		n.SetParsedValue(false)
	default:
		errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "expected `true` or `false`, got `%s`", n.Content())
	}
}

func (boolContext) Suggestions(*lang.Env, lang.TypedNode, text.Position, *lang.ReplaceContext) []string {
	return []string{"true", "false"}
}

// optionsContext restricts content to the strings of the "values"
// argument.
type optionsContext struct{ lang.BaseContext }

func optionValues(n lang.TypedNode) []string {
	switch vs := n.ArgumentArgs()["values"].(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (optionsContext) Validate(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	values := optionValues(n)
	if len(values) == 0 {
		return
	}
	if slices.Contains(values, n.Content()) {
		return
	}
	errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "expected one of %s, got `%s`", quoteAll(values), n.Content())
}

func (optionsContext) Suggestions(_ *lang.Env, n lang.TypedNode, _ text.Position, _ *lang.ReplaceContext) []string {
	return slices.Clone(optionValues(n))
}

func quoteAll(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + v + "`"
	}
	return strings.Join(out, ", ")
}
