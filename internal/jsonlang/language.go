package jsonlang

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
)

// Spec describes JSON for a lang.Registry. embeds lists the languages that
// typed strings may contain.
func Spec(embeds ...lang.Language) lang.LanguageSpec {
	return lang.LanguageSpec{
		Name:        Language,
		Parse:       parse,
		NewProvider: NewProvider,
		Embeds:      embeds,
	}
}

func parse(_ *lang.Env, in lang.Input) (lang.Node, []diag.Diagnostic) {
	s, _ := in.Schema.(Schema)
	return ParseInput(in, s)
}
