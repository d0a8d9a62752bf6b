package lint

import (
	"context"
	"fmt"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/mcfunction"
	"github.com/mcdatapack/dpe/internal/text"
)

// DeprecatedRule warns when a document uses a property, value, or command
// node whose schema is marked deprecated.
type DeprecatedRule struct{}

// ID returns the stable rule identifier.
func (DeprecatedRule) ID() string {
	return "deprecated"
}

// Description returns a human-readable rule summary.
func (DeprecatedRule) Description() string {
	return "deprecated properties, values, and commands should not be used"
}

// Run evaluates the rule against an analysed document.
func (DeprecatedRule) Run(ctx context.Context, _ *lang.Env, doc *lang.Document) ([]diag.Diagnostic, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]diag.Diagnostic, 0, 8)
	forEachNode(doc, func(n lang.Node, _ lang.Language) {
		if !isDeprecated(n) {
			return
		}
		span, message := deprecatedUse(n)
		if desc := n.Schema().Description(); desc != "" {
			message += "\n\n" + desc
		}
		out = append(out, diag.Warningf(diag.CodeDeprecated, span, "%s", message))
	})
	return out, nil
}

func deprecatedUse(n lang.Node) (text.Span, string) {
	switch n := n.(type) {
	case *jsonlang.Property:
		return n.Key.Span(), fmt.Sprintf("property `%s` is deprecated", n.Key.Value)
	case *mcfunction.Literal:
		return n.Span(), fmt.Sprintf("`%s` is deprecated", n.Node().Name)
	case *mcfunction.Argument:
		return n.Span(), fmt.Sprintf("argument `%s` is deprecated", n.Node().Usage())
	default:
		return n.Span(), fmt.Sprintf("deprecated %s value", n.Schema().TypeName())
	}
}
