package lint

import (
	"context"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
)

// UnknownArgumentTypeRule reports JSON strings whose schema names an
// argument type no handler is registered for. Such content is accepted
// without any interpretation, which usually means a typo in the schema.
type UnknownArgumentTypeRule struct{}

// ID returns the stable rule identifier.
func (UnknownArgumentTypeRule) ID() string {
	return "unknown_argument_type"
}

// Description returns a human-readable rule summary.
func (UnknownArgumentTypeRule) Description() string {
	return "schema argument types must name a registered handler"
}

// Run evaluates the rule against an analysed document.
func (UnknownArgumentTypeRule) Run(ctx context.Context, env *lang.Env, doc *lang.Document) ([]diag.Diagnostic, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if env == nil || env.Registry == nil {
		return nil, nil
	}

	out := make([]diag.Diagnostic, 0, 4)
	forEachNode(doc, func(n lang.Node, _ lang.Language) {
		s, ok := n.(*jsonlang.String)
		if !ok {
			return
		}
		at := s.ArgumentType()
		if at == nil {
			return
		}
		if _, ok := env.Registry.Context(at.Name); ok {
			return
		}
		out = append(out, diag.Warningf(diag.CodeUnsupportedContext, s.ContentSpan(),
			"no handler for argument type `%s`, the value is not checked", at.Name))
	})
	return out, nil
}
