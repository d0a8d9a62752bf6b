package lang

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// ErrUnknownLanguage is returned when no parser is registered for a language.
var ErrUnknownLanguage = errors.New("unknown language")

// Options are per-parse switches. Languages ignore options they do not use.
type Options struct {
	AllowMultilineStrings bool
}

// Input is everything a parser needs to produce a tree.
type Input struct {
	Source []byte
	// Cursor is the buffer offset to start parsing at.
	Cursor int
	// Origin places Source in the document; nil when Source is the document.
	Origin  *text.Origin
	Schema  Schema
	Options Options
}

// ParseFunc parses one buffer. It never fails for malformed input; problems
// are reported as diagnostics next to a best-effort tree.
type ParseFunc func(env *Env, in Input) (Node, []diag.Diagnostic)

// ProviderFunc builds the context provider for a parsed tree.
type ProviderFunc func(env *Env, root Node) ContextProvider

// LanguageSpec registers a language.
type LanguageSpec struct {
	Name        Language
	Parse       ParseFunc
	NewProvider ProviderFunc
	// Embeds lists languages that may appear inside this one.
	Embeds []Language
}

// ContextFactory builds a handler. It is invoked on every lookup.
type ContextFactory func() Context

// Registry maps languages to parsers and providers, argument types to
// handler factories, and schema IDs to schemas. It is populated during
// startup and only read afterwards.
type Registry struct {
	languages map[Language]LanguageSpec
	order     []Language
	contexts  map[string]ContextFactory
	schemas   map[Language]map[string]Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		languages: make(map[Language]LanguageSpec),
		contexts:  make(map[string]ContextFactory),
		schemas:   make(map[Language]map[string]Schema),
	}
}

// RegisterLanguage adds a language. Registering a name twice is an error.
func (r *Registry) RegisterLanguage(spec LanguageSpec) error {
	if spec.Name == "" || spec.Parse == nil {
		return errors.New("language spec requires a name and a parser")
	}
	if _, dup := r.languages[spec.Name]; dup {
		return fmt.Errorf("language %q already registered", spec.Name)
	}
	r.languages[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Language returns the spec registered for name.
func (r *Registry) Language(name Language) (LanguageSpec, bool) {
	spec, ok := r.languages[name]
	return spec, ok
}

// Languages returns language names in registration order.
func (r *Registry) Languages() []Language {
	return slices.Clone(r.order)
}

// RegisterContext adds the handler factory for an argument type.
func (r *Registry) RegisterContext(name string, f ContextFactory) error {
	if _, dup := r.contexts[name]; dup {
		return fmt.Errorf("context %q already registered", name)
	}
	r.contexts[name] = f
	return nil
}

// Context builds the handler for an argument type.
func (r *Registry) Context(name string) (Context, bool) {
	f, ok := r.contexts[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// ContextNames lists registered argument types in sorted order.
func (r *Registry) ContextNames() []string {
	return slices.Sorted(maps.Keys(r.contexts))
}

// RegisterSchema stores a schema under an opaque ID.
func (r *Registry) RegisterSchema(l Language, id string, s Schema) {
	m := r.schemas[l]
	if m == nil {
		m = make(map[string]Schema)
		r.schemas[l] = m
	}
	m[id] = s
}

// Schema looks up a schema by ID.
func (r *Registry) Schema(l Language, id string) (Schema, bool) {
	s, ok := r.schemas[l][id]
	return s, ok
}

// SchemaIDs lists the schema IDs of a language in sorted order.
func (r *Registry) SchemaIDs(l Language) []string {
	return slices.Sorted(maps.Keys(r.schemas[l]))
}

// Parse is the single parsing entry point for every registered language.
func (r *Registry) Parse(env *Env, l Language, in Input) (Node, []diag.Diagnostic, error) {
	spec, ok := r.languages[l]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, l)
	}
	if env == nil {
		env = NewEnv(r)
	}
	root, ds := spec.Parse(env, in)
	return root, diag.WithSource(ds, string(l)), nil
}

// Analyze parses a buffer and prepares its context provider.
func (r *Registry) Analyze(env *Env, l Language, in Input) (*Document, error) {
	if env == nil {
		env = NewEnv(r)
	}
	if env.Source == nil && in.Origin == nil {
		env.Source = in.Source
	}
	root, ds, err := r.Parse(env, l, in)
	if err != nil {
		return nil, err
	}
	doc := &Document{Language: l, Root: root}
	errs := diag.List(ds)
	if spec := r.languages[l]; spec.NewProvider != nil && root != nil {
		doc.Provider = spec.NewProvider(env, root)
		doc.Provider.Prepare(&errs)
	}
	doc.Diagnostics = diag.WithSource(errs, string(l))
	return doc, nil
}
