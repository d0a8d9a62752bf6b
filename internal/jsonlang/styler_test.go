package jsonlang

import (
	"testing"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/style"
)

func TestStylerCoversRootWithoutGaps(t *testing.T) {
	t.Parallel()

	reg := lang.NewRegistry()
	if err := reg.RegisterLanguage(Spec()); err != nil {
		t.Fatal(err)
	}
	space, err := style.NewSpace(reg, style.Set{Language: NewStyler})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}

	for _, src := range []string{
		`{"values": ["minecraft:load", {"id": "x", "required": false}], "replace": null}`,
		"{\n  \"a\": [1, 2.5, true]\n}",
		`{"a": 1,`,
		`[1 2`,
		`"abc`,
		`{"a": tru}`,
	} {
		doc, err := reg.Analyze(nil, Language, lang.Input{Source: []byte(src), Schema: tagSchema()})
		if err != nil {
			t.Fatal(err)
		}
		runs := space.HighlightRoot(doc)
		sp := doc.Root.Span()
		if len(runs) == 0 {
			t.Fatalf("%q: no runs", src)
		}
		if runs[0].Start != sp.Start.Index || runs[len(runs)-1].End != sp.End.Index {
			t.Fatalf("%q: runs cover [%d, %d), want [%d, %d)", src, runs[0].Start, runs[len(runs)-1].End, sp.Start.Index, sp.End.Index)
		}
		for i, r := range runs {
			if r.End <= r.Start {
				t.Fatalf("%q: empty run %d: %+v", src, i, r)
			}
			if i > 0 && runs[i-1].End != r.Start {
				t.Fatalf("%q: gap or overlap between runs %d and %d", src, i-1, i)
			}
		}
	}
}

func TestStylerKinds(t *testing.T) {
	t.Parallel()

	reg := lang.NewRegistry()
	if err := reg.RegisterLanguage(Spec()); err != nil {
		t.Fatal(err)
	}
	space, err := style.NewSpace(reg, style.Set{Language: NewStyler})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := reg.Analyze(nil, Language, lang.Input{Source: []byte(`{"a": 1}`)})
	if err != nil {
		t.Fatal(err)
	}

	var got []style.Kind
	for _, r := range space.HighlightRoot(doc) {
		got = append(got, space.Kind(r.Style))
	}
	want := []style.Kind{
		style.KindPunctuation, // {
		style.KindProperty,    // "a"
		style.KindDefault,     // ": "
		style.KindNumber,      // 1
		style.KindPunctuation, // }
	}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func TestToAny(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `{"a": [1, 2.5, "x", true, null], "a": {"b": false}}`, nil)
	m, ok := ToAny(root).(map[string]any)
	if !ok {
		t.Fatalf("ToAny() = %T", ToAny(root))
	}
	inner, ok := m["a"].(map[string]any)
	if !ok || inner["b"] != false {
		t.Fatalf("later duplicate must win, got %#v", m["a"])
	}
}
