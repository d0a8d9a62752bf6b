package mcfunction

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
)

// Spec describes MCFunction for a lang.Registry. g is used when the input
// carries no schema; embeds lists the languages arguments may contain.
func Spec(g *Grammar, embeds ...lang.Language) lang.LanguageSpec {
	return lang.LanguageSpec{
		Name: Language,
		Parse: func(_ *lang.Env, in lang.Input) (lang.Node, []diag.Diagnostic) {
			s, _ := in.Schema.(*Schema)
			if s == nil {
				s = &Schema{Grammar: g}
			}
			return ParseInput(in, s)
		},
		NewProvider: NewProvider,
		Embeds:      embeds,
	}
}
