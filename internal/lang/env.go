package lang

import (
	"log/slog"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/resource"
	"github.com/mcdatapack/dpe/internal/text"
)

// DefaultMaxEmbedDepth bounds nested embedded documents.
const DefaultMaxEmbedDepth = 16

var nopLogger = slog.New(slog.DiscardHandler)

// FileReader reads file bytes by name.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// Env carries the collaborators of one document analysis. It is not safe
// for concurrent use; build one per document.
type Env struct {
	Registry *Registry
	Index    resource.Index
	Files    FileReader
	// Logger is never nil.
	Logger *slog.Logger
	// File names the outermost document.
	File string
	// Source is the outermost document.
	Source   []byte
	Options  Options
	MaxDepth int

	stack []frame
}

type frame struct {
	language Language
	span     text.Span
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithIndex sets the resource index.
func WithIndex(idx resource.Index) EnvOption {
	return func(e *Env) { e.Index = idx }
}

// WithFiles sets the file reader.
func WithFiles(f FileReader) EnvOption {
	return func(e *Env) { e.Files = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// WithDocument names the outermost document and its bytes.
func WithDocument(file string, src []byte) EnvOption {
	return func(e *Env) {
		e.File = file
		e.Source = src
	}
}

// WithOptions sets parse options.
func WithOptions(o Options) EnvOption {
	return func(e *Env) { e.Options = o }
}

// WithMaxDepth bounds embedding depth.
func WithMaxDepth(n int) EnvOption {
	return func(e *Env) { e.MaxDepth = n }
}

// NewEnv builds an Env.
func NewEnv(reg *Registry, opts ...EnvOption) *Env {
	e := &Env{Registry: reg}
	for _, opt := range opts {
		opt(e)
	}
	if e.Logger == nil {
		e.Logger = nopLogger
	}
	if e.Index == nil {
		e.Index = resource.NewMemoryIndex()
	}
	if e.MaxDepth <= 0 {
		e.MaxDepth = DefaultMaxEmbedDepth
	}
	return e
}

// Depth returns the number of embedded documents currently being expanded.
func (e *Env) Depth() int {
	return len(e.stack)
}

// Analyze parses and prepares a top-level buffer.
func (e *Env) Analyze(l Language, schema Schema) (*Document, error) {
	return e.Registry.Analyze(e, l, Input{Source: e.Source, Schema: schema, Options: e.Options})
}

// ParseEmbedded parses the content of n as a document of language l. Spans
// of the embedded tree are in document coordinates. The document is stored
// as the parsed value of n and its diagnostics are appended to errs.
//
// Expansion fails closed: re-entering a (language, span) pair already being
// expanded, or nesting deeper than MaxDepth, reports a diagnostic and
// returns nil.
func (e *Env) ParseEmbedded(l Language, n TypedNode, schema Schema, errs *diag.List) *Document {
	span := n.ContentSpan()
	for _, f := range e.stack {
		if f.language == l && f.span == span {
			errs.Errorf(diag.CodeCyclicEmbedding, span, "cyclic embedding of %s", l)
			return nil
		}
	}
	if len(e.stack) >= e.MaxDepth {
		errs.Errorf(diag.CodeCyclicEmbedding, span, "embedded %s nested deeper than %d levels", l, e.MaxDepth)
		return nil
	}

	e.stack = append(e.stack, frame{language: l, span: span})
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	doc, err := e.Registry.Analyze(e, l, Input{
		Source:  []byte(n.Content()),
		Origin:  n.ContentOrigin(),
		Schema:  schema,
		Options: e.Options,
	})
	if err != nil {
		e.Logger.Warn("embedded parse failed", "language", string(l), "error", err)
		errs.Errorf(diag.CodeUnsupportedContext, span, "cannot embed %s: %v", l, err)
		return nil
	}
	errs.Add(doc.Diagnostics...)
	n.SetParsedValue(doc)
	return doc
}
