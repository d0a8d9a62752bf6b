package contexts

import (
	"sync"

	"github.com/mcdatapack/dpe/internal/jsonlang"
)

func flag(name, desc string) *jsonlang.PropertySchema {
	return &jsonlang.PropertySchema{Name: name, Desc: desc, Default: false, Value: &jsonlang.BoolSchema{}}
}

// TextComponentSchema is a compact schema of chat text components: a
// string, a component object, or a list of components.
var TextComponentSchema = sync.OnceValue(func() jsonlang.Schema {
	component := new(jsonlang.UnionSchema)
	object := jsonlang.MustObject(jsonlang.Base{Desc: "A text component."},
		&jsonlang.PropertySchema{Name: "text", Desc: "Literal text.", Default: "", Value: &jsonlang.StringSchema{}},
		&jsonlang.PropertySchema{Name: "translate", Desc: "A translation key.", Default: "", Value: &jsonlang.StringSchema{}},
		&jsonlang.PropertySchema{Name: "with", Desc: "Translation arguments.", Default: []any{}, Value: &jsonlang.ArraySchema{Element: component}},
		&jsonlang.PropertySchema{Name: "color", Desc: "A color name or `#RRGGBB`.", Default: "", Value: &jsonlang.StringSchema{}},
		flag("bold", "Renders the text bold."),
		flag("italic", "Renders the text italic."),
		flag("underlined", "Underlines the text."),
		flag("strikethrough", "Strikes the text through."),
		flag("obfuscated", "Scrambles the text."),
		&jsonlang.PropertySchema{Name: "insertion", Desc: "Inserted into chat on shift-click.", Default: "", Value: &jsonlang.StringSchema{}},
		&jsonlang.PropertySchema{Name: "extra", Desc: "Components appended after this one.", Default: []any{}, Value: &jsonlang.ArraySchema{Element: component}},
	)
	*component = *jsonlang.NewUnionSchema(jsonlang.Base{Desc: "A text component."},
		&jsonlang.StringSchema{Base: jsonlang.Base{Desc: "Plain text."}},
		object,
		&jsonlang.ArraySchema{Base: jsonlang.Base{Desc: "Components joined in order."}, Element: component},
	)
	return component
})
