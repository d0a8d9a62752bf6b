package snbt

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
)

// Spec describes SNBT for a lang.Registry.
func Spec() lang.LanguageSpec {
	return lang.LanguageSpec{
		Name:        Language,
		Parse:       parse,
		NewProvider: NewProvider,
	}
}

func parse(_ *lang.Env, in lang.Input) (lang.Node, []diag.Diagnostic) {
	e, _ := in.Schema.(*Expect)
	return ParseInput(in, e)
}
