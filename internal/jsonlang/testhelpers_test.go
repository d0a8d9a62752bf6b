package jsonlang

import (
	"strings"
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// tagSchema models a datapack tag file.
func tagSchema() *ObjectSchema {
	entry := MustObject(Base{Desc: "A tag entry with options."},
		&PropertySchema{Name: "id", Desc: "Referenced id.", Value: &StringSchema{}},
		&PropertySchema{Name: "required", Desc: "Whether the entry must exist.", Default: true, Value: &BoolSchema{}},
	)
	return MustObject(Base{Desc: "A tag."},
		&PropertySchema{Name: "replace", Desc: "Replace lower priority tags.", Default: false, Value: &BoolSchema{}},
		&PropertySchema{Name: "values", Desc: "Tag entries.", Value: &ArraySchema{
			Element: NewUnionSchema(Base{}, &StringSchema{}, entry),
		}},
	)
}

// cursor strips the `|` marker from a single-line input and returns the
// marker position.
func cursor(t *testing.T, s string) ([]byte, text.Position) {
	t.Helper()
	i := strings.IndexByte(s, '|')
	if i < 0 {
		t.Fatalf("no cursor marker in %q", s)
	}
	return []byte(s[:i] + s[i+1:]), text.Pos(0, i, text.ByteOffset(i))
}

func analyze(t *testing.T, src []byte, schema Schema) *lang.Document {
	t.Helper()
	reg := lang.NewRegistry()
	if err := reg.RegisterLanguage(Spec()); err != nil {
		t.Fatal(err)
	}
	doc, err := reg.Analyze(nil, Language, lang.Input{Source: src, Schema: schema})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return doc
}

func mustParse(t *testing.T, src string, schema Schema) Node {
	t.Helper()
	root, ds := Parse([]byte(src), schema)
	if len(ds) != 0 {
		t.Fatalf("Parse(%q) diagnostics: %v", src, messages(ds))
	}
	return root
}

func messages(ds []diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

func hasMessage(ds []diag.Diagnostic, msg string) bool {
	for _, d := range ds {
		if d.Message == msg {
			return true
		}
	}
	return false
}

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}
