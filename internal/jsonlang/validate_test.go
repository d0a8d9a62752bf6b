package jsonlang

import (
	"math"
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// distributionSchema switches the schema of "value" on the value of "type".
func distributionSchema() (*ObjectSchema, *NumberSchema) {
	constant := NewIntegerSchema(Base{Desc: "A constant."})
	uniform := MustObject(Base{Desc: "A uniform range."},
		&PropertySchema{Name: "min", Value: NewIntegerSchema(Base{})},
		&PropertySchema{Name: "max", Value: NewIntegerSchema(Base{})},
	)
	return MustObject(Base{},
		&PropertySchema{Name: "type", Value: &StringSchema{}},
		&PropertySchema{
			Name:         "value",
			Value:        &AnySchema{},
			DecidingProp: "type",
			Values:       map[string]Schema{"constant": constant, "uniform": uniform},
		},
	), constant
}

func TestEnrichResolvesDecidingProperty(t *testing.T) {
	t.Parallel()

	schema, constant := distributionSchema()
	root := mustParse(t, `{"type": "constant", "value": 5}`, schema)
	value := root.(*Object).Property("value").Value
	if value.JSONSchema() != Schema(constant) {
		t.Fatalf("value schema = %T %p, want the constant schema", value.JSONSchema(), value.JSONSchema())
	}
	if ds := Validate(root); len(ds) != 0 {
		t.Fatalf("Validate() = %v", messages(ds))
	}

	root = mustParse(t, `{"type": "constant", "value": 5.5}`, schema)
	ds := Validate(root)
	if len(ds) != 1 || ds[0].Code != diag.CodeTypeMismatch || ds[0].Message != "expected `integer`, got `float`" {
		t.Fatalf("Validate() = %v", ds)
	}
}

func TestEnrichDecidingPropertyDeclaredAfterValue(t *testing.T) {
	t.Parallel()

	schema, _ := distributionSchema()
	root := mustParse(t, `{"value": {"min": 1, "max": 2}, "type": "uniform"}`, schema)
	value := root.(*Object).Property("value").Value
	if _, ok := value.JSONSchema().(*ObjectSchema); !ok {
		t.Fatalf("value schema = %T, want *ObjectSchema", value.JSONSchema())
	}
	if ds := Validate(root); len(ds) != 0 {
		t.Fatalf("Validate() = %v", messages(ds))
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	t.Parallel()

	schemas := func(root Node) []lang.Schema {
		var out []lang.Schema
		lang.Walk(root, func(n lang.Node) bool {
			out = append(out, n.Schema())
			return true
		})
		return out
	}

	for _, src := range []string{
		`{"values": ["a", {"id": "b"}], "replace": true}`,
		`{"type": "uniform", "value": {"min": 1}}`,
		`[1, "x", null]`,
	} {
		var schema Schema = tagSchema()
		if src[1] == '"' && src[2] == 't' {
			schema, _ = distributionSchema()
		}
		root, _ := Parse([]byte(src), schema)
		once := schemas(root)
		EnrichWithSchema(root, schema)
		twice := schemas(root)
		if len(once) != len(twice) {
			t.Fatalf("%s: node count changed", src)
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("%s: schema of node %d changed from %v to %v", src, i, once[i], twice[i])
			}
		}
	}
}

func TestValidateTypeMismatchDoesNotDescend(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `{"replace": 3}`, tagSchema())
	ds := Validate(root)
	var mismatches []diag.Diagnostic
	for _, d := range ds {
		if d.Code == diag.CodeTypeMismatch {
			mismatches = append(mismatches, d)
		}
	}
	if len(mismatches) != 1 {
		t.Fatalf("mismatches = %v", mismatches)
	}
	want := text.NewSpan(text.Pos(0, 12, 12), text.Pos(0, 13, 13))
	if mismatches[0].Span != want || mismatches[0].Message != "expected `boolean`, got `integer`" {
		t.Fatalf("mismatch = %s", mismatches[0])
	}

	root = mustParse(t, `{"values": {"x": {"y": 1}}}`, tagSchema())
	ds = Validate(root)
	if len(ds) != 1 || ds[0].Code != diag.CodeTypeMismatch {
		t.Fatalf("nested mismatch diagnostics = %v", ds)
	}
}

func TestValidateUnknownProperty(t *testing.T) {
	t.Parallel()

	schema := MustObject(Base{}, &PropertySchema{Name: "bar", Default: 0, Value: &BoolSchema{}})
	root := mustParse(t, `{"foo": 1}`, schema)
	ds := Validate(root)
	if len(ds) != 1 {
		t.Fatalf("Validate() = %v", ds)
	}
	d := ds[0]
	if d.Code != diag.CodeUnknownProperty || d.Message != "unknown property `foo`" {
		t.Fatalf("diagnostic = %s", d)
	}
	if want := text.NewSpan(text.Pos(0, 1, 1), text.Pos(0, 6, 6)); d.Span != want {
		t.Fatalf("span = %s, want key span %s", d.Span, want)
	}
}

func TestValidateAdditionalProperties(t *testing.T) {
	t.Parallel()

	schema := MustObject(Base{}, &PropertySchema{Name: "bar", Default: 0, Value: &BoolSchema{}}).
		WithAdditional("Any entry.", NewIntegerSchema(Base{}))
	root := mustParse(t, `{"foo": 1, "baz": "x", "bar": true}`, schema)
	ds := Validate(root)
	if len(ds) != 1 {
		t.Fatalf("Validate() = %v", ds)
	}
	if ds[0].Code != diag.CodeTypeMismatch || ds[0].Span.Start.Index != 18 {
		t.Fatalf("diagnostic = %s", ds[0])
	}
	if p := schema.Property("anything"); p == nil || p.Description() != "Any entry." {
		t.Fatalf("Property(anything) = %v", p)
	}
}

func TestValidateObjectRules(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `{"replace": true, "replace": false}`, tagSchema())
	ds := Validate(root)

	if len(ds) != 2 {
		t.Fatalf("Validate() = %v", ds)
	}
	if ds[0].Code != diag.CodeDuplicateProperty || ds[0].Span.Start.Index != 18 {
		t.Fatalf("duplicate = %s", ds[0])
	}
	missing := ds[1]
	if missing.Code != diag.CodeMissingProperty || missing.Message != "missing mandatory property `values`" {
		t.Fatalf("missing = %s", missing)
	}
	if want := text.NewSpan(text.Pos(0, 34, 34), text.Pos(0, 35, 35)); missing.Span != want {
		t.Fatalf("missing span = %s, want closing brace %s", missing.Span, want)
	}
}

func TestValidateNumberBounds(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		schema *NumberSchema
		src    string
		errs   int
	}{
		"unbounded":        {schema: NewNumberSchema(Base{}), src: "1e300"},
		"inside":           {schema: &NumberSchema{Min: 0, Max: 10}, src: "10"},
		"below":            {schema: &NumberSchema{Min: 0, Max: 10}, src: "-1", errs: 1},
		"open upper bound": {schema: &NumberSchema{Min: 0, Max: math.Inf(1)}, src: "0.5"},
		"above integer":    {schema: &NumberSchema{Min: 0, Max: 3, Integer: true}, src: "4", errs: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := mustParse(t, tc.src, tc.schema)
			ds := Validate(root)
			if len(ds) != tc.errs {
				t.Fatalf("Validate() = %v, want %d errors", ds, tc.errs)
			}
			for _, d := range ds {
				if d.Code != diag.CodeOutOfBounds {
					t.Fatalf("code = %s", d.Code)
				}
			}
		})
	}
}

func TestValidateSkipsUnionsAndAny(t *testing.T) {
	t.Parallel()

	u := NewUnionSchema(Base{}, &StringSchema{}, &BoolSchema{})
	root := mustParse(t, `1`, u)
	if _, ok := root.JSONSchema().(*UnionSchema); !ok {
		t.Fatalf("schema = %T, want unresolved union", root.JSONSchema())
	}
	if ds := Validate(root); len(ds) != 0 {
		t.Fatalf("Validate() = %v", ds)
	}
	if ds := Validate(mustParse(t, `{"x": [1]}`, &AnySchema{})); len(ds) != 0 {
		t.Fatalf("Validate(any) = %v", ds)
	}
}

func TestValidateNumberLiteralShape(t *testing.T) {
	t.Parallel()

	integer := NewIntegerSchema(Base{})
	if ds := Validate(mustParse(t, "99999999999999999999", integer)); len(ds) != 0 {
		t.Fatalf("Validate(big integer) = %v", ds)
	}
	if ds := Validate(mustParse(t, "1.0", integer)); len(ds) != 1 || ds[0].Code != diag.CodeTypeMismatch {
		t.Fatalf("Validate(float) = %v", ds)
	}

	root, ds := Parse([]byte("1e"), integer)
	if len(ds) != 1 || ds[0].Code != diag.CodeInvalidNumber {
		t.Fatalf("Parse(1e) diagnostics = %v", messages(ds))
	}
	if ds := Validate(root); len(ds) != 0 {
		t.Fatalf("Validate(malformed) = %v", ds)
	}
}
