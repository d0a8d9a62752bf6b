package lang

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// EmbeddedContext is the handler for argument types whose content is a
// document in another language. Prepare parses the content; every other
// query is answered by the embedded document's own provider.
type EmbeddedContext struct {
	Language Language
	// SchemaFor picks the schema of the embedded document. Nil means none.
	SchemaFor func(env *Env, n TypedNode) Schema
}

// Prepare parses the node content as an embedded document.
func (c EmbeddedContext) Prepare(env *Env, n TypedNode, errs *diag.List) {
	var schema Schema
	if c.SchemaFor != nil {
		schema = c.SchemaFor(env, n)
	}
	env.ParseEmbedded(c.Language, n, schema, errs)
}

// Validate validates the embedded document.
func (EmbeddedContext) Validate(_ *Env, n TypedNode, errs *diag.List) {
	if doc := Embedded(n); doc != nil {
		errs.Add(doc.Validate()...)
	}
}

// Suggestions forwards to the embedded document.
func (EmbeddedContext) Suggestions(_ *Env, n TypedNode, pos text.Position, rc *ReplaceContext) []string {
	return Embedded(n).Suggestions(pos, rc)
}

// Documentation forwards to the embedded document.
func (EmbeddedContext) Documentation(_ *Env, n TypedNode, pos text.Position) string {
	return Embedded(n).Documentation(pos)
}

// ClickableRanges forwards to the embedded document.
func (EmbeddedContext) ClickableRanges(_ *Env, n TypedNode) []text.Span {
	return Embedded(n).ClickableRanges(n.ContentSpan())
}

// OnIndicatorClicked forwards to the embedded document.
func (EmbeddedContext) OnIndicatorClicked(_ *Env, n TypedNode, pos text.Position) (Target, bool) {
	return Embedded(n).OnIndicatorClicked(pos)
}

// Embedded returns the document stored on n by ParseEmbedded, or nil.
func Embedded(n TypedNode) *Document {
	doc, _ := n.ParsedValue().(*Document)
	return doc
}
