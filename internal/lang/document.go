package lang

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// Document is a parsed and prepared buffer.
type Document struct {
	Language Language
	Root     Node
	Provider ContextProvider
	// Diagnostics holds tokenizer, parser, and prepare diagnostics.
	Diagnostics []diag.Diagnostic
}

// Validate runs the provider validation pass.
func (d *Document) Validate() []diag.Diagnostic {
	if d == nil || d.Provider == nil {
		return nil
	}
	var errs diag.List
	d.Provider.Validate(&errs)
	return diag.WithSource(errs, string(d.Language))
}

// Suggestions forwards to the provider.
func (d *Document) Suggestions(pos text.Position, rc *ReplaceContext) []string {
	if d == nil || d.Provider == nil {
		return nil
	}
	return d.Provider.Suggestions(pos, rc)
}

// Documentation forwards to the provider.
func (d *Document) Documentation(pos text.Position) string {
	if d == nil || d.Provider == nil {
		return ""
	}
	return d.Provider.Documentation(pos)
}

// ClickableRanges forwards to the provider.
func (d *Document) ClickableRanges(span text.Span) []text.Span {
	if d == nil || d.Provider == nil {
		return nil
	}
	return d.Provider.ClickableRanges(span)
}

// OnIndicatorClicked forwards to the provider.
func (d *Document) OnIndicatorClicked(pos text.Position) (Target, bool) {
	if d == nil || d.Provider == nil {
		return Target{}, false
	}
	return d.Provider.OnIndicatorClicked(pos)
}
