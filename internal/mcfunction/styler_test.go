package mcfunction

import (
	"slices"
	"testing"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/style"
)

func TestStylerKinds(t *testing.T) {
	t.Parallel()

	reg := lang.NewRegistry()
	if err := reg.RegisterLanguage(Spec(DefaultGrammar())); err != nil {
		t.Fatal(err)
	}
	space, err := style.NewSpace(reg, style.Set{Language: NewStyler})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := reg.Analyze(nil, Language, lang.Input{Source: []byte("# hi\ntp @s ~ ~1 ~\n$say $(x) bogus")})
	if err != nil {
		t.Fatal(err)
	}

	var got []style.Kind
	for _, r := range space.HighlightRoot(doc) {
		got = append(got, space.Kind(r.Style))
	}
	want := []style.Kind{
		style.KindComment,  // # hi
		style.KindDefault,  // \n
		style.KindFunction, // tp
		style.KindDefault,
		style.KindVariable, // @s
		style.KindDefault,
		style.KindNumber,   // ~ ~1 ~
		style.KindDefault,  // \n$say
		style.KindVariable, // $(x)
		style.KindDefault,  // bogus
	}
	if !slices.Equal(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}
