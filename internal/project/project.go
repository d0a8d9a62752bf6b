// Package project ties a datapack directory to the language core: it loads
// dpe.toml, the command grammar and schema directories, indexes resources,
// and picks the language and schema for each file.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/contexts"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/lint"
	"github.com/mcdatapack/dpe/internal/mcfunction"
	"github.com/mcdatapack/dpe/internal/resource"
	"github.com/mcdatapack/dpe/internal/schemaload"
	"github.com/mcdatapack/dpe/internal/snbt"
)

// ErrUnsupportedFile is returned for files no registered language handles.
var ErrUnsupportedFile = errors.New("unsupported file type")

var nopLogger = slog.New(slog.DiscardHandler)

// Project is an opened datapack. Analysis may run concurrently; Reload must
// not run concurrently with analysis.
type Project struct {
	Root     string
	Config   config.Config
	Registry *lang.Registry
	Index    *resource.MemoryIndex
	Schemas  *schemaload.Store
	// SchemaErrors joins the load failures of broken schema documents.
	SchemaErrors error

	logger *slog.Logger
	runner *lint.Runner
}

type options struct {
	logger *slog.Logger
	cfg    *config.Config
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig uses cfg instead of loading dpe.toml from the root.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// Open loads the datapack rooted at root.
func Open(root string, opts ...Option) (*Project, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	p := &Project{Root: abs, logger: o.logger}
	if p.logger == nil {
		p.logger = nopLogger
	}
	if o.cfg != nil {
		p.Config = *o.cfg
	} else {
		cfg, err := config.Load(filepath.Join(abs, config.FileName))
		if err != nil {
			return nil, err
		}
		p.Config = cfg
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload rebuilds the registry, the resource index, and the schema store
// from disk.
func (p *Project) Reload() error {
	var g *mcfunction.Grammar
	if file := p.Config.Grammar.Commands; file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open command grammar: %w", err)
		}
		g, err = mcfunction.LoadGrammar(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("load command grammar %s: %w", file, err)
		}
	}
	reg, err := contexts.NewRegistry(contexts.Config{Grammar: g})
	if err != nil {
		return err
	}

	idx := resource.NewMemoryIndex()
	if err := resource.ScanDatapack(os.DirFS(p.Root), idx); err != nil {
		return fmt.Errorf("index %s: %w", p.Root, err)
	}

	store := schemaload.NewStore()
	var schemaErrs []error
	for _, dir := range p.schemaDirs() {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := schemaload.ScanDir(os.DirFS(dir), store, idx, schemaload.WithLogger(p.logger)); err != nil {
			p.logger.Warn("schema directory has errors", "dir", dir, "error", err)
			schemaErrs = append(schemaErrs, err)
		}
	}
	store.Apply(reg)

	var rules []lint.Rule
	for _, r := range lint.NewDefaultRunner().Rules() {
		if p.Config.RuleEnabled(r.ID()) {
			rules = append(rules, r)
		}
	}

	p.Registry = reg
	p.Index = idx
	p.Schemas = store
	p.SchemaErrors = errors.Join(schemaErrs...)
	p.runner = lint.NewRunner(rules...)
	return nil
}

func (p *Project) schemaDirs() []string {
	out := make([]string, 0, len(p.Config.Schemas.Dirs))
	for _, d := range p.Config.Schemas.Dirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(p.Root, d)
		}
		out = append(out, d)
	}
	return out
}

// Rel returns the slash-separated path of file relative to the root. Paths
// outside the root are returned cleaned and slash-separated.
func (p *Project) Rel(file string) string {
	if filepath.IsAbs(file) {
		if rel, err := filepath.Rel(p.Root, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = rel
		}
	}
	return path.Clean(filepath.ToSlash(file))
}

// schemaKey returns the name a schema document was indexed under when file
// lives in a schema directory.
func (p *Project) schemaKey(file string) (string, bool) {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.Root, file)
	}
	for _, dir := range p.schemaDirs() {
		if rel, err := filepath.Rel(dir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel), true
		}
	}
	return "", false
}

// Path returns the filesystem path of an index entry.
func (p *Project) Path(e resource.Entry) string {
	switch e.Kind {
	case schemaload.DefinitionKind, schemaload.TemplateKind:
		return p.locate(e.File, true)
	}
	return p.locate(e.File, false)
}

// Locate returns the filesystem path of a file named by a navigation
// target. The root is tried before the schema directories.
func (p *Project) Locate(file string) string {
	return p.locate(file, false)
}

func (p *Project) locate(file string, schemasFirst bool) string {
	if filepath.IsAbs(file) {
		return file
	}
	name := filepath.FromSlash(file)
	inRoot := filepath.Join(p.Root, name)
	dirs := p.schemaDirs()
	if !schemasFirst {
		dirs = append([]string{p.Root}, dirs...)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return inRoot
}

// Target names the language and schema a file is analysed with.
type Target struct {
	Language lang.Language
	Schema   lang.Schema
	// Key is the file name handed to the analysis environment; schema
	// documents use their name inside the schema directory.
	Key string
}

// Classify picks the language and schema for file. Configured mappings win;
// otherwise the extension decides, and JSON schema documents get the
// document schema.
func (p *Project) Classify(file string, src []byte) (Target, error) {
	rel := p.Rel(file)
	t := Target{Key: rel}

	if m, ok := p.Config.Mapping(rel); ok {
		l := lang.Language(m.Language)
		if l == "" {
			var err error
			if l, err = languageByExt(rel); err != nil {
				return Target{}, err
			}
		}
		t.Language = l
		if m.Schema != "" {
			s, ok := p.Registry.Schema(l, m.Schema)
			if !ok {
				return Target{}, fmt.Errorf("%s: unknown %s schema %q", rel, l, m.Schema)
			}
			t.Schema = s
		}
		return t, nil
	}

	l, err := languageByExt(rel)
	if err != nil {
		return Target{}, err
	}
	t.Language = l
	switch l {
	case jsonlang.Language:
		if schemaload.IsSchemaDocument(src) {
			t.Schema, _ = p.Registry.Schema(jsonlang.Language, schemaload.DocumentSchemaID)
			if key, ok := p.schemaKey(file); ok {
				t.Key = key
			}
		}
	case snbt.Language:
		t.Schema = snbt.CompoundRoot()
	}
	return t, nil
}

func languageByExt(rel string) (lang.Language, error) {
	switch path.Ext(rel) {
	case ".json", ".mcmeta":
		return jsonlang.Language, nil
	case ".mcfunction":
		return mcfunction.Language, nil
	case ".snbt":
		return snbt.Language, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, rel)
	}
}

// Supported reports whether file has an extension the project analyses.
func Supported(file string) bool {
	_, err := languageByExt(filepath.ToSlash(file))
	return err == nil
}

// Env builds the analysis environment for one document.
func (p *Project) Env(key string, src []byte) *lang.Env {
	return lang.NewEnv(p.Registry,
		lang.WithIndex(p.Index),
		lang.WithFiles(schemaload.FS{FS: os.DirFS(p.Root)}),
		lang.WithLogger(p.logger),
		lang.WithOptions(lang.Options{AllowMultilineStrings: p.Config.JSON.AllowMultilineStrings}),
		lang.WithDocument(key, src),
	)
}

// rootMarkers are the files that identify a datapack root.
var rootMarkers = []string{config.FileName, "pack.mcmeta"}

// FindRoot returns the nearest directory at or above start holding dpe.toml
// or pack.mcmeta. Without one it returns start, or its directory when start
// is a file.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	for dir := abs; ; {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
