// Package lint analyses documents and runs lint rules over their trees.
package lint

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

const (
	// DiagnosticSource is the diagnostic source used by lint rules.
	DiagnosticSource = "dpe.lint"
)

// Rule is a lint check that can emit diagnostics for an analysed document.
type Rule interface {
	ID() string
	Description() string
	Run(ctx context.Context, env *lang.Env, doc *lang.Document) ([]diag.Diagnostic, error)
}

// Result is the outcome of analysing one document.
type Result struct {
	// Document is nil when analysis failed internally.
	Document    *lang.Document
	Diagnostics []diag.Diagnostic
}

// Runner executes lint rules and returns aggregated diagnostics.
type Runner struct {
	rules []Rule
}

// NewRunner builds a lint runner from a rule set.
func NewRunner(rules ...Rule) *Runner {
	copied := slices.Clone(rules)
	return &Runner{rules: copied}
}

// NewDefaultRunner builds the default lint rule set.
func NewDefaultRunner() *Runner {
	return NewRunner(
		DeprecatedRule{},
		UnknownArgumentTypeRule{},
	)
}

// Rules returns the configured rules.
func (r *Runner) Rules() []Rule {
	if r == nil {
		return nil
	}
	return slices.Clone(r.rules)
}

// Run executes all configured rules and returns a sorted diagnostic list.
func (r *Runner) Run(ctx context.Context, env *lang.Env, doc *lang.Document) ([]diag.Diagnostic, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || len(r.rules) == 0 {
		return []diag.Diagnostic{}, nil
	}

	out := make([]diag.Diagnostic, 0, 8)
	for _, rule := range r.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		diags, err := rule.Run(ctx, env, doc)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID(), err)
		}
		out = append(out, diag.WithSource(diags, DiagnosticSource)...)
	}

	diag.Sort(out)

	return out, nil
}

// Analyze parses, prepares, and validates the document held by env, then
// runs the rules over it. A panic anywhere in the pipeline, typically from
// a faulty schema or handler, is recovered into a single
// INTERNAL_WRAPPED_ERROR diagnostic.
func (r *Runner) Analyze(ctx context.Context, env *lang.Env, l lang.Language, schema lang.Schema) (res Result, err error) {
	if env == nil {
		return Result{}, errors.New("nil environment")
	}
	defer func() {
		if v := recover(); v != nil {
			env.Logger.Error("document analysis failed", "file", env.File, "language", string(l), "panic", v)
			d := diag.Wrap(v, text.Span{})
			d.Source = DiagnosticSource
			res, err = Result{Diagnostics: []diag.Diagnostic{d}}, nil
		}
	}()

	doc, err := env.Analyze(l, schema)
	if err != nil {
		return Result{}, err
	}
	out := slices.Clone(doc.Diagnostics)
	out = append(out, doc.Validate()...)
	lints, err := r.Run(ctx, env, doc)
	if err != nil {
		return Result{}, err
	}
	out = append(out, lints...)
	diag.Sort(out)
	return Result{Document: doc, Diagnostics: out}, nil
}
