package schemaload

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
)

const commonLibrary = `{
  "$schema": "dpe/json/schema/library",
  "$definitions": {
    "range": {
      "type": "object",
      "description": "An inclusive range.",
      "properties": {
        "min": {"value": {"type": "integer"}},
        "max": {"value": {"type": "integer"}}
      }
    }
  },
  "$templates": {
    "named": {
      "properties": {
        "name": {"description": "Display name.", "default": "", "value": {"type": "string"}}
      }
    }
  }
}`

func newLoader(files fstest.MapFS, opts ...Option) *Loader {
	return NewLoader(FS{files}, opts...)
}

func TestLoadBuildsBody(t *testing.T) {
	t.Parallel()

	src := `{
  "$schema": "dpe/json/schema",
  "$body": {
    "type": "object",
    "description": "A counter.",
    "properties": {
      "name": {"value": {"type": "string", "argumentType": "minecraft:resource_location", "args": {"kind": "item"}}},
      "count": {"default": 1, "value": {"type": "integer", "min": 0, "max": 10}},
      "note": {"default": null, "deprecated": true, "value": {"type": "string"}}
    }
  }
}`
	schema, err := newLoader(nil).LoadBytes("counter.json", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	obj, ok := schema.(*jsonlang.ObjectSchema)
	if !ok {
		t.Fatalf("schema = %T, want object", schema)
	}
	if obj.Description() != "A counter." {
		t.Fatalf("description = %q", obj.Description())
	}

	name := obj.Property("name")
	if !name.Mandatory() {
		t.Fatal("name should be mandatory")
	}
	str, ok := name.Value.(*jsonlang.StringSchema)
	if !ok || str.Type == nil || str.Type.Name != "minecraft:resource_location" || str.Args["kind"] != "item" {
		t.Fatalf("name value = %#v", name.Value)
	}

	count := obj.Property("count")
	num, ok := count.Value.(*jsonlang.NumberSchema)
	if count.Mandatory() || !ok || !num.Integer || num.Min != 0 || num.Max != 10 {
		t.Fatalf("count = %#v %#v", count, count.Value)
	}

	note := obj.Property("note")
	if note.Mandatory() || !note.IsDeprecated() {
		t.Fatalf("note = %#v, want optional and deprecated", note)
	}
}

func TestLoadResolvesLibrariesAndTemplates(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"common.json": {Data: []byte(commonLibrary)}}
	src := `{
  "$schema": "dpe/json/schema",
  "$libraries": ["common"],
  "$body": {
    "type": "object",
    "$templates": ["named"],
    "properties": {
      "r": {"value": {"$defRef": "range"}},
      "q": {"value": {"$defRef": "common:range"}}
    }
  }
}`
	schema, err := newLoader(files).LoadBytes("loot.json", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	obj := schema.(*jsonlang.ObjectSchema)

	var names []string
	for _, p := range obj.Properties() {
		names = append(names, p.Name)
	}
	if want := []string{"r", "q", "name"}; !slices.Equal(names, want) {
		t.Fatalf("properties = %v, want %v", names, want)
	}
	r, q := obj.Property("r").Value, obj.Property("q").Value
	if r != q {
		t.Fatal("both references should share the library definition")
	}
	if r.Description() != "An inclusive range." {
		t.Fatalf("range description = %q", r.Description())
	}
	if obj.Property("name").Mandatory() {
		t.Fatal("template property should keep its default")
	}
}

func TestLoadRecursiveDefinition(t *testing.T) {
	t.Parallel()

	src := `{
  "$schema": "dpe/json/schema",
  "$definitions": {
    "tree": {
      "type": "object",
      "properties": {
        "children": {"default": [], "value": {"type": "array", "element": {"$defRef": "tree"}}}
      }
    }
  },
  "$body": {"$defRef": "tree"}
}`
	schema, err := newLoader(nil).LoadBytes("tree.json", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	tree := schema.(*jsonlang.ObjectSchema)
	arr := tree.Property("children").Value.(*jsonlang.ArraySchema)
	if arr.Element != jsonlang.Schema(tree) {
		t.Fatal("element should refer back to the tree definition")
	}

	root, ds := jsonlang.Parse([]byte(`{"children": [{"children": []}, {"children": 1}]}`), tree)
	if len(ds) != 0 {
		t.Fatalf("Parse: %v", ds)
	}
	ds = jsonlang.Validate(root)
	if len(ds) != 1 || ds[0].Code != diag.CodeTypeMismatch {
		t.Fatalf("Validate() = %v", ds)
	}
}

func TestLoadUnknownReferenceDegradesToAny(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	src := `{"$schema": "dpe/json/schema", "$libraries": ["absent"], "$body": {"$defRef": "missing"}}`

	schema, err := newLoader(fstest.MapFS{}, WithLogger(logger)).LoadBytes("x.json", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if _, ok := schema.(*jsonlang.AnySchema); !ok {
		t.Fatalf("schema = %T, want any", schema)
	}
	out := buf.String()
	for _, want := range []string{"schema library unavailable", "unknown schema definition", "ref=missing"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q does not mention %q", out, want)
		}
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src  string
		code diag.Code
		at   int
	}{
		"syntax error": {
			src:  `{"$schema": `,
			code: diag.CodeUnexpectedEOF,
			at:   -1,
		},
		"bad node type": {
			src:  `{"$schema": "dpe/json/schema", "$body": {"type": 5}}`,
			code: diag.CodeInvalidSchema,
			at:   49,
		},
		"unknown member": {
			src:  `{"$schema": "dpe/json/schema/library", "extra": 1}`,
			code: diag.CodeInvalidSchema,
			at:   39,
		},
		"missing body": {
			src:  `{"$schema": "dpe/json/schema"}`,
			code: diag.CodeInvalidSchema,
			at:   0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := newLoader(nil).LoadBytes("bad.json", []byte(tc.src))
			if !errors.Is(err, ErrInvalidSchema) {
				t.Fatalf("LoadBytes() error = %v, want ErrInvalidSchema", err)
			}
			var le *LoadError
			if !errors.As(err, &le) || len(le.Diagnostics) == 0 {
				t.Fatalf("error = %#v, want a LoadError with diagnostics", err)
			}
			found := false
			for _, d := range le.Diagnostics {
				if d.Code == tc.code && (tc.at < 0 || int(d.Span.Start.Index) == tc.at) {
					found = true
				}
			}
			if !found {
				t.Fatalf("diagnostics = %v, want %s at %d", le.Diagnostics, tc.code, tc.at)
			}
			if !strings.HasPrefix(err.Error(), "bad.json:1:") {
				t.Fatalf("Error() = %q", err.Error())
			}
		})
	}
}

func TestLoadChecksVersion(t *testing.T) {
	t.Parallel()

	_, err := newLoader(nil).LoadBytes("common.json", []byte(commonLibrary))
	if !errors.Is(err, ErrWrongVersion) {
		t.Fatalf("LoadBytes(library) error = %v, want ErrWrongVersion", err)
	}

	files := fstest.MapFS{"body.json": {Data: []byte(`{"$schema": "dpe/json/schema", "$body": {"type": "any"}}`)}}
	if _, err := newLoader(files).Library("body"); !errors.Is(err, ErrWrongVersion) {
		t.Fatalf("Library(schema) error = %v, want ErrWrongVersion", err)
	}
}

func TestLibraryDefinitions(t *testing.T) {
	t.Parallel()

	lib, err := newLoader(fstest.MapFS{"common.json": {Data: []byte(commonLibrary)}}).Library("common")
	if err != nil {
		t.Fatalf("Library: %v", err)
	}
	if got := lib.Definitions(); !slices.Equal(got, []string{"range"}) {
		t.Fatalf("Definitions() = %v", got)
	}
	if got := lib.Templates(); !slices.Equal(got, []string{"named"}) {
		t.Fatalf("Templates() = %v", got)
	}
	if _, err := lib.Definition("nope"); !errors.Is(err, ErrUnknownDefinition) {
		t.Fatalf("Definition(nope) error = %v", err)
	}
	s, err := lib.Definition("range")
	if err != nil {
		t.Fatalf("Definition(range): %v", err)
	}
	if again, _ := lib.Definition("range"); again != s {
		t.Fatal("definitions should be built once")
	}
}
