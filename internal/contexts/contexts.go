// Package contexts holds the argument-type handlers that interpret typed
// string content, and wires the three languages into one registry.
package contexts

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/mcfunction"
	"github.com/mcdatapack/dpe/internal/schemaload"
	"github.com/mcdatapack/dpe/internal/snbt"
	"github.com/mcdatapack/dpe/internal/style"
)

// Argument type names with a registered handler.
const (
	ResourceLocation = "minecraft:resource_location"
	Resource         = "minecraft:resource"
	Function         = "minecraft:function"
	Entity           = "minecraft:entity"
	NBTCompound      = "minecraft:nbt_compound_tag"
	NBTTag           = "minecraft:nbt_tag"
	Component        = "minecraft:component"
	Command          = "dpe:command"
	Options          = "dpe:options"
	Integer          = "brigadier:integer"
	Long             = "brigadier:long"
	Float            = "brigadier:float"
	Double           = "brigadier:double"
	Bool             = "brigadier:bool"
)

// TextComponentSchemaID is the JSON schema ID used for embedded text
// components.
const TextComponentSchemaID = "minecraft:text_component"

// Config parameterises the default registry.
type Config struct {
	// Grammar is the command tree. Nil selects mcfunction.DefaultGrammar.
	Grammar *mcfunction.Grammar
}

// RegisterDefaults registers JSON, SNBT and MCFunction together with every
// handler of this package and the built-in schemas.
func RegisterDefaults(reg *lang.Registry, cfg Config) error {
	g := cfg.Grammar
	if g == nil {
		g = mcfunction.DefaultGrammar()
	}

	for _, spec := range []lang.LanguageSpec{
		jsonlang.Spec(snbt.Language, mcfunction.Language),
		snbt.Spec(),
		mcfunction.Spec(g, snbt.Language, jsonlang.Language),
	} {
		if err := reg.RegisterLanguage(spec); err != nil {
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
	}

	commandSchema := &mcfunction.Schema{Grammar: g, Command: true}
	factories := map[string]lang.ContextFactory{
		ResourceLocation: func() lang.Context { return resourceContext{} },
		Resource:         func() lang.Context { return resourceContext{} },
		Function:         func() lang.Context { return resourceContext{kind: "function", tags: true} },
		Entity:           func() lang.Context { return entityContext{} },
		NBTCompound: func() lang.Context {
			return lang.EmbeddedContext{Language: snbt.Language, SchemaFor: compoundRoot}
		},
		NBTTag: func() lang.Context { return lang.EmbeddedContext{Language: snbt.Language} },
		Component: func() lang.Context {
			return lang.EmbeddedContext{Language: jsonlang.Language, SchemaFor: textComponent}
		},
		Command: func() lang.Context {
			return lang.EmbeddedContext{
				Language:  mcfunction.Language,
				SchemaFor: func(*lang.Env, lang.TypedNode) lang.Schema { return commandSchema },
			}
		},
		Options: func() lang.Context { return optionsContext{} },
		Integer: func() lang.Context { return numberContext{integer: true, bits: 32} },
		Long:    func() lang.Context { return numberContext{integer: true, bits: 64} },
		Float:   func() lang.Context { return numberContext{bits: 32} },
		Double:  func() lang.Context { return numberContext{bits: 64} },
		Bool:    func() lang.Context { return boolContext{} },

		schemaload.DefRefType.Name: func() lang.Context {
			return refContext{kind: schemaload.DefinitionKind, noun: "definition"}
		},
		schemaload.TemplatesType.Name: func() lang.Context {
			return refContext{kind: schemaload.TemplateKind, noun: "template"}
		},
	}
	for name, f := range factories {
		if err := reg.RegisterContext(name, f); err != nil {
			return err
		}
	}

	reg.RegisterSchema(jsonlang.Language, schemaload.DocumentSchemaID, schemaload.DocumentSchema())
	reg.RegisterSchema(jsonlang.Language, TextComponentSchemaID, TextComponentSchema())
	return nil
}

// NewRegistry returns a registry populated by RegisterDefaults.
func NewRegistry(cfg Config) (*lang.Registry, error) {
	reg := lang.NewRegistry()
	if err := RegisterDefaults(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Stylers returns the styler of every default language.
func Stylers() style.Set {
	return style.Set{
		jsonlang.Language:   jsonlang.NewStyler,
		snbt.Language:       snbt.NewStyler,
		mcfunction.Language: mcfunction.NewStyler,
	}
}

func compoundRoot(*lang.Env, lang.TypedNode) lang.Schema {
	return snbt.CompoundRoot()
}

func textComponent(env *lang.Env, _ lang.TypedNode) lang.Schema {
	if s, ok := env.Registry.Schema(jsonlang.Language, TextComponentSchemaID); ok {
		return s
	}
	return nil
}
