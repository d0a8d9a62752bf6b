package schemaload

import (
	"strings"

	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/resource"
)

// Index kinds of schema definitions and property templates. Entries are
// located at <document id>:<name>.
const (
	DefinitionKind = "dpe/definition"
	TemplateKind   = "dpe/template"
)

// Entries lists the definitions and templates declared by a parsed schema
// document. Each entry spans the declaring key.
func Entries(file, id string, root jsonlang.Node) []resource.Entry {
	obj, ok := root.(*jsonlang.Object)
	if !ok {
		return nil
	}
	var out []resource.Entry
	for _, group := range []struct{ key, kind string }{
		{"$definitions", DefinitionKind},
		{"$templates", TemplateKind},
	} {
		m := objectProp(obj, group.key)
		if m == nil {
			continue
		}
		for _, p := range m.Properties {
			desc, _ := stringProp(asObject(p.Value), "description")
			out = append(out, resource.Entry{
				Kind:        group.kind,
				Location:    resource.New(id, p.Key.Value),
				File:        file,
				Span:        p.Key.Span(),
				Description: desc,
			})
		}
	}
	return out
}

// IndexDocument replaces the entries of file in idx with those declared by
// root.
func IndexDocument(idx *resource.MemoryIndex, file, id string, root jsonlang.Node) {
	idx.RemoveSource(file)
	idx.Add(Entries(file, id, root)...)
}

// DocumentID derives a document ID from a file name relative to a schema
// directory.
func DocumentID(file string) string {
	return strings.TrimSuffix(file, ".json")
}

// SplitRef splits "library:name" references. Unqualified references return
// an empty library.
func SplitRef(ref string) (library, name string) {
	if lib, name, ok := strings.Cut(ref, ":"); ok {
		return lib, name
	}
	return "", ref
}

func asObject(n jsonlang.Node) *jsonlang.Object {
	obj, _ := n.(*jsonlang.Object)
	return obj
}
