// Package schemaload reads JSON schema documents and schema libraries into
// jsonlang schemas, and indexes the definitions they declare.
//
// A schema document looks like
//
//	{
//	  "$schema": "dpe/json/schema",
//	  "$libraries": ["common"],
//	  "$definitions": {"range": {"type": "object", ...}},
//	  "$body": {"type": "object", "properties": {...}}
//	}
//
// and a library drops "$body" and declares "$schema":
// "dpe/json/schema/library". Nodes refer to definitions with
// {"$defRef": "name"} or {"$defRef": "library:name"}; object nodes merge
// property templates with "$templates". Definitions may refer to
// themselves.
package schemaload

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Document versions.
const (
	SchemaVersion  = "dpe/json/schema"
	LibraryVersion = "dpe/json/schema/library"
)

var (
	// ErrInvalidSchema is wrapped by every LoadError.
	ErrInvalidSchema = errors.New("invalid schema document")
	// ErrUnknownDefinition is returned for definitions a library does not
	// declare.
	ErrUnknownDefinition = errors.New("unknown definition")
	// ErrWrongVersion is returned when a library is loaded as a schema or
	// the other way round.
	ErrWrongVersion = errors.New("unexpected document version")
)

var nopLogger = slog.New(slog.DiscardHandler)

// LoadError reports a schema document that does not parse or does not match
// the schema document format.
type LoadError struct {
	File        string
	Diagnostics []diag.Diagnostic
}

func (e *LoadError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("%s: %v", e.File, ErrInvalidSchema)
	}
	d := e.Diagnostics[0]
	msg := fmt.Sprintf("%s:%d:%d: %s", e.File, d.Span.Start.Line+1, d.Span.Start.Column+1, d.Message)
	if n := len(e.Diagnostics); n > 1 {
		msg += fmt.Sprintf(" (and %d more)", n-1)
	}
	return msg
}

// Unwrap returns ErrInvalidSchema.
func (e *LoadError) Unwrap() error { return ErrInvalidSchema }

// Loader builds schemas from documents. Libraries are read through the
// FileReader as "<id>.json" and cached for the lifetime of the loader.
// Loader is safe for concurrent use.
type Loader struct {
	files  lang.FileReader
	logger *slog.Logger

	mu        sync.Mutex
	libraries map[string]*Library
	failed    map[string]error
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger that receives unresolved-reference warnings.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader returns a loader reading libraries through files.
func NewLoader(files lang.FileReader, opts ...Option) *Loader {
	l := &Loader{
		files:     files,
		logger:    nopLogger,
		libraries: make(map[string]*Library),
		failed:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the schema document name and builds its body.
func (l *Loader) Load(name string) (jsonlang.Schema, error) {
	if l.files == nil {
		return nil, fmt.Errorf("read schema %s: no file reader", name)
	}
	src, err := l.files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	return l.LoadBytes(name, src)
}

// LoadBytes builds the body of a schema document read from name.
func (l *Loader) LoadBytes(name string, src []byte) (jsonlang.Schema, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.parse(name, DocumentID(name), src)
	if err != nil {
		return nil, err
	}
	if doc.version != SchemaVersion {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrWrongVersion, doc.version)
	}
	return doc.build(doc.root.Property("$body").Value), nil
}

// Library loads the library id, reading "<id>.json" on first use.
func (l *Loader) Library(id string) (*Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.library(id)
}

func (l *Loader) library(id string) (*Library, error) {
	if lib, ok := l.libraries[id]; ok {
		return lib, nil
	}
	if err, ok := l.failed[id]; ok {
		return nil, err
	}
	lib, err := l.readLibrary(id)
	if err != nil {
		l.logger.Warn("schema library unavailable", "library", id, "error", err)
		l.failed[id] = err
		return nil, err
	}
	return lib, nil
}

func (l *Loader) readLibrary(id string) (*Library, error) {
	if l.files == nil {
		return nil, fmt.Errorf("read library %s: no file reader", id)
	}
	file := id + ".json"
	src, err := l.files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", id, err)
	}
	// Registered before parsing so libraries may depend on each other.
	lib := &Library{ID: id, File: file}
	l.libraries[id] = lib
	doc, err := l.parse(file, id, src)
	if err != nil {
		delete(l.libraries, id)
		return nil, err
	}
	if doc.version != LibraryVersion {
		delete(l.libraries, id)
		return nil, fmt.Errorf("%s: %w: %s", file, ErrWrongVersion, doc.version)
	}
	lib.doc = doc
	return lib, nil
}

func (l *Loader) parse(file, id string, src []byte) (*document, error) {
	root, ds := jsonlang.Parse(src, nil)
	if diag.HasErrors(ds) {
		return nil, &LoadError{File: file, Diagnostics: ds}
	}
	if ds := metaValidate(root); len(ds) > 0 {
		return nil, &LoadError{File: file, Diagnostics: ds}
	}
	obj, ok := root.(*jsonlang.Object)
	if !ok {
		return nil, &LoadError{File: file}
	}
	doc := &document{
		loader:      l,
		id:          id,
		file:        file,
		root:        obj,
		definitions: members(obj, "$definitions"),
		templates:   members(obj, "$templates"),
		built:       make(map[string]jsonlang.Schema),
		building:    make(map[string]bool),
	}
	doc.version, _ = stringProp(obj, "$schema")
	doc.libraries = stringsProp(obj, "$libraries")
	return doc, nil
}

// Library is a loaded schema library.
type Library struct {
	ID   string
	File string
	doc  *document
}

// Definitions lists the declared definition names in sorted order.
func (lib *Library) Definitions() []string {
	return slices.Sorted(maps.Keys(lib.doc.definitions))
}

// Templates lists the declared template names in sorted order.
func (lib *Library) Templates() []string {
	return slices.Sorted(maps.Keys(lib.doc.templates))
}

// Definition builds the named definition.
func (lib *Library) Definition(name string) (jsonlang.Schema, error) {
	lib.doc.loader.mu.Lock()
	defer lib.doc.loader.mu.Unlock()
	s, ok := lib.doc.definition(name)
	if !ok {
		return nil, fmt.Errorf("%s:%s: %w", lib.ID, name, ErrUnknownDefinition)
	}
	return s, nil
}

// document is one parsed schema document or library. Built definitions
// are memoised so every reference shares one schema value.
type document struct {
	loader    *Loader
	id        string
	file      string
	version   string
	root      *jsonlang.Object
	libraries []string

	definitions map[string]*jsonlang.Property
	templates   map[string]*jsonlang.Property
	built       map[string]jsonlang.Schema
	building    map[string]bool
}

func (d *document) definition(name string) (jsonlang.Schema, bool) {
	if s, ok := d.built[name]; ok {
		return s, true
	}
	p, ok := d.definitions[name]
	if !ok {
		return nil, false
	}
	node, _ := p.Value.(*jsonlang.Object)

	// Containers get a shell first so references back to the definition
	// resolve to the same value while it is being built.
	if shell := shellFor(node); shell != nil {
		d.built[name] = shell
		fill(shell, d.build(node))
		return shell, true
	}
	if d.building[name] {
		d.loader.logger.Warn("schema definition refers to itself", "file", d.file, "definition", name)
		return &jsonlang.AnySchema{}, true
	}
	d.building[name] = true
	defer delete(d.building, name)
	s := d.build(node)
	d.built[name] = s
	return s, true
}

func shellFor(node *jsonlang.Object) jsonlang.Schema {
	if node == nil || node.Property("$defRef") != nil {
		return nil
	}
	typ, _ := stringProp(node, "type")
	switch typ {
	case "object":
		return new(jsonlang.ObjectSchema)
	case "array":
		return new(jsonlang.ArraySchema)
	case "union":
		return new(jsonlang.UnionSchema)
	default:
		return nil
	}
}

func fill(shell, built jsonlang.Schema) {
	switch s := shell.(type) {
	case *jsonlang.ObjectSchema:
		if b, ok := built.(*jsonlang.ObjectSchema); ok {
			*s = *b
		}
	case *jsonlang.ArraySchema:
		if b, ok := built.(*jsonlang.ArraySchema); ok {
			*s = *b
		}
	case *jsonlang.UnionSchema:
		if b, ok := built.(*jsonlang.UnionSchema); ok {
			*s = *b
		}
	}
}

// resolve looks up a definition reference. Unknown references degrade to
// AnySchema.
func (d *document) resolve(ref string, at text.Span) jsonlang.Schema {
	lib, name := SplitRef(ref)
	if s, ok := d.lookup(lib, name, (*document).definition); ok {
		return s
	}
	d.loader.logger.Warn("unknown schema definition, accepting any value",
		"file", d.file, "line", at.Start.Line+1, "ref", ref)
	return &jsonlang.AnySchema{}
}

func (d *document) lookup(lib, name string, get func(*document, string) (jsonlang.Schema, bool)) (jsonlang.Schema, bool) {
	if lib != "" && lib != d.id {
		l, err := d.loader.library(lib)
		if err != nil || l.doc == nil {
			return nil, false
		}
		return get(l.doc, name)
	}
	if s, ok := get(d, name); ok || lib != "" {
		return s, ok
	}
	for _, id := range d.libraries {
		l, err := d.loader.library(id)
		if err != nil || l.doc == nil {
			continue
		}
		if s, ok := get(l.doc, name); ok {
			return s, true
		}
	}
	return nil, false
}

// template finds a property template and the document that declares it.
func (d *document) template(ref string) (*document, *jsonlang.Object, bool) {
	lib, name := SplitRef(ref)
	var owner *document
	var node *jsonlang.Object
	_, ok := d.lookup(lib, name, func(doc *document, name string) (jsonlang.Schema, bool) {
		p, ok := doc.templates[name]
		if !ok {
			return nil, false
		}
		owner = doc
		node, _ = p.Value.(*jsonlang.Object)
		return nil, true
	})
	return owner, node, ok && node != nil
}

func (d *document) build(n jsonlang.Node) jsonlang.Schema {
	obj, ok := n.(*jsonlang.Object)
	if !ok {
		return &jsonlang.AnySchema{}
	}
	if p := obj.Property("$defRef"); p != nil {
		ref, _ := stringProp(obj, "$defRef")
		return d.resolve(ref, p.Value.Span())
	}
	desc, _ := stringProp(obj, "description")
	b := jsonlang.Base{Desc: desc, Deprecated: boolProp(obj, "deprecated")}

	typ, _ := stringProp(obj, "type")
	switch typ {
	case "null":
		return &jsonlang.NullSchema{Base: b}
	case "boolean":
		return &jsonlang.BoolSchema{Base: b}
	case "number", "integer":
		s := jsonlang.NewNumberSchema(b)
		if typ == "integer" {
			s = jsonlang.NewIntegerSchema(b)
		}
		if v, ok := numberProp(obj, "min"); ok {
			s.Min = v
		}
		if v, ok := numberProp(obj, "max"); ok {
			s.Max = v
		}
		return s
	case "string":
		s := &jsonlang.StringSchema{Base: b}
		if name, ok := stringProp(obj, "argumentType"); ok {
			s.Type = &lang.ArgumentType{Name: name}
		}
		if p := obj.Property("args"); p != nil {
			s.Args, _ = jsonlang.ToAny(p.Value).(map[string]any)
		}
		return s
	case "array":
		s := &jsonlang.ArraySchema{Base: b, Element: &jsonlang.AnySchema{}}
		if p := obj.Property("element"); p != nil {
			s.Element = d.build(p.Value)
		}
		return s
	case "object":
		return d.buildObject(obj, b)
	case "union":
		var options []jsonlang.Schema
		if p := obj.Property("options"); p != nil {
			if arr, ok := p.Value.(*jsonlang.Array); ok {
				for _, e := range arr.Elements {
					options = append(options, d.build(e))
				}
			}
		}
		return jsonlang.NewUnionSchema(b, options...)
	default:
		return &jsonlang.AnySchema{Base: b}
	}
}

func (d *document) buildObject(obj *jsonlang.Object, b jsonlang.Base) *jsonlang.ObjectSchema {
	var props []*jsonlang.PropertySchema
	seen := make(map[string]bool)
	add := func(owner *document, members *jsonlang.Object) {
		for _, p := range members.Properties {
			if seen[p.Key.Value] {
				continue
			}
			seen[p.Key.Value] = true
			props = append(props, owner.buildProperty(p))
		}
	}
	if m := objectProp(obj, "properties"); m != nil {
		add(d, m)
	}
	for _, ref := range stringsProp(obj, "$templates") {
		owner, tmpl, ok := d.template(ref)
		if !ok {
			d.loader.logger.Warn("unknown property template", "file", d.file, "ref", ref)
			continue
		}
		if m := objectProp(tmpl, "properties"); m != nil {
			add(owner, m)
		}
	}

	s, err := jsonlang.NewObjectSchema(b, props...)
	if err != nil {
		d.loader.logger.Warn("invalid object schema", "file", d.file, "error", err)
		s, _ = jsonlang.NewObjectSchema(b)
	}
	if p := obj.Property("additionalProperties"); p != nil {
		s.WithAdditional("", d.build(p.Value))
	}
	return s
}

func (d *document) buildProperty(p *jsonlang.Property) *jsonlang.PropertySchema {
	ps := &jsonlang.PropertySchema{Name: p.Key.Value, Value: &jsonlang.AnySchema{}}
	def, ok := p.Value.(*jsonlang.Object)
	if !ok {
		return ps
	}
	ps.Desc, _ = stringProp(def, "description")
	ps.Deprecated = boolProp(def, "deprecated")
	if dp := def.Property("default"); dp != nil {
		ps.Default = defaultValue(dp.Value)
	}
	if v := def.Property("value"); v != nil {
		ps.Value = d.build(v.Value)
	}
	ps.DecidingProp, _ = stringProp(def, "decidingProp")
	if m := objectProp(def, "values"); m != nil {
		ps.Values = make(map[string]jsonlang.Schema, len(m.Properties))
		for _, v := range m.Properties {
			ps.Values[v.Key.Value] = d.build(v.Value)
		}
	}
	return ps
}

// defaultValue keeps a null default distinguishable from a missing one.
func defaultValue(n jsonlang.Node) any {
	if v := jsonlang.ToAny(n); v != nil {
		return v
	}
	return json.RawMessage("null")
}

func members(obj *jsonlang.Object, name string) map[string]*jsonlang.Property {
	out := make(map[string]*jsonlang.Property)
	if m := objectProp(obj, name); m != nil {
		for _, p := range m.Properties {
			if _, dup := out[p.Key.Value]; !dup {
				out[p.Key.Value] = p
			}
		}
	}
	return out
}

func objectProp(obj *jsonlang.Object, name string) *jsonlang.Object {
	if obj == nil {
		return nil
	}
	p := obj.Property(name)
	if p == nil {
		return nil
	}
	o, _ := p.Value.(*jsonlang.Object)
	return o
}

func stringProp(obj *jsonlang.Object, name string) (string, bool) {
	if obj == nil {
		return "", false
	}
	p := obj.Property(name)
	if p == nil {
		return "", false
	}
	s, ok := p.Value.(*jsonlang.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func stringsProp(obj *jsonlang.Object, name string) []string {
	p := obj.Property(name)
	if p == nil {
		return nil
	}
	arr, ok := p.Value.(*jsonlang.Array)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range arr.Elements {
		if s, ok := e.(*jsonlang.String); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

func boolProp(obj *jsonlang.Object, name string) bool {
	p := obj.Property(name)
	if p == nil {
		return false
	}
	b, ok := p.Value.(*jsonlang.Bool)
	return ok && b.Value
}

func numberProp(obj *jsonlang.Object, name string) (float64, bool) {
	p := obj.Property(name)
	if p == nil {
		return 0, false
	}
	n, ok := p.Value.(*jsonlang.Number)
	if !ok {
		return 0, false
	}
	v := n.Value()
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
