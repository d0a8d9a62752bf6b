package schemaload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"sync"

	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/resource"
)

// Store maps languages to schema IDs to schemas. Schema IDs are opaque
// keys. Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	schemas map[lang.Language]map[string]lang.Schema
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{schemas: make(map[lang.Language]map[string]lang.Schema)}
}

// Put stores a schema, replacing any previous one with the same ID.
func (s *Store) Put(l lang.Language, id string, schema lang.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.schemas[l]
	if m == nil {
		m = make(map[string]lang.Schema)
		s.schemas[l] = m
	}
	m[id] = schema
}

// Get looks up a schema.
func (s *Store) Get(l lang.Language, id string) (lang.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[l][id]
	return schema, ok
}

// IDs lists the schema IDs of a language in sorted order.
func (s *Store) IDs(l lang.Language) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.schemas[l]))
}

// Apply registers every stored schema with reg.
func (s *Store) Apply(reg *lang.Registry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for l, m := range s.schemas {
		for id, schema := range m {
			reg.RegisterSchema(l, id, schema)
		}
	}
}

// FS adapts an fs.FS to lang.FileReader.
type FS struct{ fs.FS }

// ReadFile implements lang.FileReader.
func (f FS) ReadFile(name string) ([]byte, error) { return fs.ReadFile(f.FS, name) }

// ScanDir loads every schema document and library under fsys. Schemas are
// stored for JSON under their DocumentID; definitions and templates are
// added to idx. Files that are not schema documents are skipped. Broken
// documents do not stop the scan; their errors are joined.
func ScanDir(fsys fs.FS, store *Store, idx *resource.MemoryIndex, opts ...Option) error {
	loader := NewLoader(FS{fsys}, opts...)
	var errs []error
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		id := DocumentID(p)
		switch peekVersion(src) {
		case SchemaVersion:
			schema, err := loader.LoadBytes(p, src)
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			store.Put(jsonlang.Language, id, schema)
		case LibraryVersion:
			if _, err := loader.Library(id); err != nil {
				errs = append(errs, err)
				return nil
			}
		default:
			return nil
		}
		if idx != nil {
			root, _ := jsonlang.Parse(src, nil)
			IndexDocument(idx, p, id, root)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan schemas: %w", err)
	}
	return errors.Join(errs...)
}

// peekVersion returns the "$schema" member of a JSON document, or "".
func peekVersion(src []byte) string {
	var head struct {
		Schema string `json:"$schema"`
	}
	if err := json.Unmarshal(src, &head); err != nil {
		return ""
	}
	return head.Schema
}

// IsSchemaDocument reports whether src declares one of the schema document
// versions.
func IsSchemaDocument(src []byte) bool {
	switch peekVersion(src) {
	case SchemaVersion, LibraryVersion:
		return true
	default:
		return false
	}
}
