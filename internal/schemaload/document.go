package schemaload

import (
	"sync"

	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
)

// DocumentSchemaID is the registry ID of DocumentSchema.
const DocumentSchemaID = "dpe:json/schema"

// Argument types used inside schema documents.
var (
	DefRefType = &lang.ArgumentType{
		Name:        "dpe:json/def_ref",
		Description: "A schema definition, written `name` or `library:name`.",
	}
	TemplatesType = &lang.ArgumentType{
		Name:        "dpe:json/templates",
		Description: "A property template, written `name` or `library:name`.",
	}
	optionsType = &lang.ArgumentType{Name: "dpe:options"}
)

func options(desc string, values ...string) *jsonlang.StringSchema {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return &jsonlang.StringSchema{
		Base: jsonlang.Base{Desc: desc},
		Type: optionsType,
		Args: map[string]any{"values": vs},
	}
}

func optional(name, desc string, v jsonlang.Schema) *jsonlang.PropertySchema {
	return &jsonlang.PropertySchema{Name: name, Desc: desc, Default: false, Value: v}
}

func str() *jsonlang.StringSchema { return &jsonlang.StringSchema{} }

// DocumentSchema describes schema documents and libraries, so they can be
// edited with completion and definition navigation.
var DocumentSchema = sync.OnceValue(func() jsonlang.Schema {
	node := new(jsonlang.ObjectSchema)
	property := jsonlang.MustObject(jsonlang.Base{Desc: "A property of an object schema."},
		optional("description", "Markdown shown on hover.", str()),
		optional("default", "Makes the property optional.", &jsonlang.AnySchema{}),
		optional("deprecated", "Reports uses of the property.", &jsonlang.BoolSchema{}),
		optional("value", "The schema of the property value.", node),
		optional("decidingProp", "A sibling property whose value selects the schema in `values`.", str()),
		optional("values", "Value schemas keyed by the deciding property value.",
			jsonlang.MustObject(jsonlang.Base{}).WithAdditional("A value schema.", node)),
	)
	properties := jsonlang.MustObject(jsonlang.Base{Desc: "Declared properties in order."}).
		WithAdditional("A property.", property)

	*node = *jsonlang.MustObject(jsonlang.Base{Desc: "A schema node."},
		optional("$defRef", "Uses a definition instead of an inline schema.", &jsonlang.StringSchema{Type: DefRefType}),
		optional("type", "The kind of value accepted.", options("The kind of value accepted.",
			"null", "boolean", "number", "integer", "string", "array", "object", "union", "any")),
		optional("description", "Markdown shown on hover.", str()),
		optional("deprecated", "Reports uses of the value.", &jsonlang.BoolSchema{}),
		optional("properties", "Declared properties of an object.", properties),
		optional("additionalProperties", "The schema of undeclared object properties.", node),
		optional("$templates", "Property templates merged into the object.",
			&jsonlang.ArraySchema{Element: &jsonlang.StringSchema{Type: TemplatesType}}),
		optional("element", "The schema of array elements.", node),
		optional("options", "The alternatives of a union.", &jsonlang.ArraySchema{Element: node}),
		optional("argumentType", "The handler that interprets string content.", str()),
		optional("args", "Handler arguments.", &jsonlang.AnySchema{}),
		optional("min", "Inclusive lower bound.", jsonlang.NewNumberSchema(jsonlang.Base{})),
		optional("max", "Inclusive upper bound.", jsonlang.NewNumberSchema(jsonlang.Base{})),
	)

	template := jsonlang.MustObject(jsonlang.Base{Desc: "Properties shared by object schemas."},
		optional("description", "Markdown shown on hover.", str()),
		optional("properties", "Properties merged into objects using the template.", properties),
	)

	return jsonlang.MustObject(jsonlang.Base{Desc: "A schema document."},
		&jsonlang.PropertySchema{
			Name:  "$schema",
			Desc:  "The document format.",
			Value: options("The document format.", SchemaVersion, LibraryVersion),
		},
		optional("$libraries", "Libraries searched for unqualified references.",
			&jsonlang.ArraySchema{Element: str()}),
		optional("$definitions", "Named schemas.",
			jsonlang.MustObject(jsonlang.Base{}).WithAdditional("A named schema.", node)),
		optional("$templates", "Named property templates.",
			jsonlang.MustObject(jsonlang.Base{}).WithAdditional("A property template.", template)),
		optional("$body", "The schema of the described file.", node),
	)
})
