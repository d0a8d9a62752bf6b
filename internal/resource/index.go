package resource

import (
	"cmp"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/mcdatapack/dpe/internal/text"
)

// Entry is index metadata for one resource.
type Entry struct {
	// Kind is the resource category, e.g. "function", "advancement" or
	// "tags/block".
	Kind        string
	Location    Location
	File        string
	Span        text.Span
	Description string
}

// Index resolves resource locations. The language core only reads it.
type Index interface {
	Lookup(kind string, loc Location) (Entry, bool)
	Entries(kind string) []Entry
	BySource(file string) []Entry
}

// MemoryIndex is an in-memory Index safe for concurrent use.
type MemoryIndex struct {
	mu       sync.RWMutex
	byKind   map[string]map[string]Entry
	bySource map[string][]Entry
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byKind:   make(map[string]map[string]Entry),
		bySource: make(map[string][]Entry),
	}
}

// Add inserts or replaces entries.
func (m *MemoryIndex) Add(entries ...Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		e.Location = e.Location.WithoutTag()
		kind := m.byKind[e.Kind]
		if kind == nil {
			kind = make(map[string]Entry)
			m.byKind[e.Kind] = kind
		}
		kind[e.Location.Key()] = e
		if e.File != "" {
			m.bySource[e.File] = append(m.bySource[e.File], e)
		}
	}
}

// RemoveSource drops every entry discovered from file.
func (m *MemoryIndex) RemoveSource(file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.bySource[file] {
		if kind := m.byKind[e.Kind]; kind != nil && kind[e.Location.Key()].File == file {
			delete(kind, e.Location.Key())
		}
	}
	delete(m.bySource, file)
}

// Lookup finds a resource. Tag locations are looked up under "tags/<kind>".
func (m *MemoryIndex) Lookup(kind string, loc Location) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	if loc.Tag && !strings.HasPrefix(kind, "tags/") {
		kind = "tags/" + kind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byKind[kind][loc.Key()]
	return e, ok
}

// Entries lists resources of kind ordered by location.
func (m *MemoryIndex) Entries(kind string) []Entry {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	out := make([]Entry, 0, len(m.byKind[kind]))
	for _, e := range m.byKind[kind] {
		out = append(out, e)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Location.Key(), b.Location.Key()) })
	return out
}

// BySource lists resources discovered from file.
func (m *MemoryIndex) BySource(file string) []Entry {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.bySource[file])
}

// Stack searches several indices in order.
type Stack []Index

// Lookup returns the first match.
func (s Stack) Lookup(kind string, loc Location) (Entry, bool) {
	for _, idx := range s {
		if idx == nil {
			continue
		}
		if e, ok := idx.Lookup(kind, loc); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries concatenates entries of every index, first occurrence wins.
func (s Stack) Entries(kind string) []Entry {
	seen := make(map[string]struct{})
	var out []Entry
	for _, idx := range s {
		if idx == nil {
			continue
		}
		for _, e := range idx.Entries(kind) {
			if _, dup := seen[e.Location.Key()]; dup {
				continue
			}
			seen[e.Location.Key()] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// BySource concatenates the source entries of every index.
func (s Stack) BySource(file string) []Entry {
	var out []Entry
	for _, idx := range s {
		if idx != nil {
			out = append(out, idx.BySource(file)...)
		}
	}
	return out
}

var legacyKinds = map[string]string{
	"functions":      "function",
	"advancements":   "advancement",
	"recipes":        "recipe",
	"loot_tables":    "loot_table",
	"predicates":     "predicate",
	"item_modifiers": "item_modifier",
	"structures":     "structure",
	"blocks":         "block",
	"items":          "item",
	"entity_types":   "entity_type",
	"fluids":         "fluid",
	"game_events":    "game_event",
}

var fileExtensions = map[string]struct{}{
	".json":       {},
	".mcfunction": {},
	".nbt":        {},
	".snbt":       {},
}

// EntryForPath derives the index entry for a datapack file path of the form
// data/<namespace>/<kind>/<path>.<ext>. Paths use forward slashes.
func EntryForPath(p string) (Entry, bool) {
	parts := strings.Split(path.Clean(p), "/")
	i := slices.Index(parts, "data")
	if i < 0 || len(parts)-i < 4 {
		return Entry{}, false
	}
	ns := parts[i+1]
	rest := parts[i+2:]

	var kind []string
	if rest[0] == "tags" {
		kind = append(kind, "tags")
		rest = rest[1:]
	}
	if len(rest) > 1 && rest[0] == "worldgen" {
		kind = append(kind, rest[0])
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return Entry{}, false
	}
	k := rest[0]
	if mapped, ok := legacyKinds[k]; ok {
		k = mapped
	}
	kind = append(kind, k)

	file := strings.Join(rest[1:], "/")
	ext := path.Ext(file)
	if _, ok := fileExtensions[ext]; !ok {
		return Entry{}, false
	}
	loc := New(ns, strings.TrimSuffix(file, ext))
	if _, err := Parse(loc.AsQualifiedString()); err != nil {
		return Entry{}, false
	}
	return Entry{Kind: strings.Join(kind, "/"), Location: loc, File: p}, true
}

// ScanDatapack indexes every recognised resource file under fsys.
func ScanDatapack(fsys fs.FS, idx *MemoryIndex) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if e, ok := EntryForPath(p); ok {
			idx.Add(e)
		}
		return nil
	})
}
