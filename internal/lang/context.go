package lang

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// ReplaceContext tells the caller which text an accepted suggestion
// replaces. Providers fill it in.
type ReplaceContext struct {
	Span   text.Span
	Prefix string
}

// Target is a navigation destination.
type Target struct {
	File string
	Span text.Span
}

// ContextProvider answers cursor queries for one parsed tree.
type ContextProvider interface {
	Tree() Node
	// Prepare derives auxiliary values, including embedded documents.
	Prepare(errs *diag.List)
	// Validate runs schema validation and handler checks.
	Validate(errs *diag.List)
	Suggestions(pos text.Position, rc *ReplaceContext) []string
	Documentation(pos text.Position) string
	ClickableRanges(span text.Span) []text.Span
	OnIndicatorClicked(pos text.Position) (Target, bool)
}

// Context interprets the content of typed nodes of one ArgumentType.
type Context interface {
	Prepare(env *Env, n TypedNode, errs *diag.List)
	Validate(env *Env, n TypedNode, errs *diag.List)
	Suggestions(env *Env, n TypedNode, pos text.Position, rc *ReplaceContext) []string
	Documentation(env *Env, n TypedNode, pos text.Position) string
	ClickableRanges(env *Env, n TypedNode) []text.Span
	OnIndicatorClicked(env *Env, n TypedNode, pos text.Position) (Target, bool)
}

// BaseContext implements every Context method as a no-op so handlers only
// override what they need.
type BaseContext struct{}

// Prepare does nothing.
func (BaseContext) Prepare(*Env, TypedNode, *diag.List) {}

// Validate does nothing.
func (BaseContext) Validate(*Env, TypedNode, *diag.List) {}

// Suggestions returns nothing.
func (BaseContext) Suggestions(*Env, TypedNode, text.Position, *ReplaceContext) []string {
	return nil
}

// Documentation returns nothing.
func (BaseContext) Documentation(*Env, TypedNode, text.Position) string { return "" }

// ClickableRanges returns nothing.
func (BaseContext) ClickableRanges(*Env, TypedNode) []text.Span { return nil }

// OnIndicatorClicked reports no target.
func (BaseContext) OnIndicatorClicked(*Env, TypedNode, text.Position) (Target, bool) {
	return Target{}, false
}
