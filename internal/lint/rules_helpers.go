package lint

import (
	"github.com/mcdatapack/dpe/internal/lang"
)

// forEachNode visits every node of doc in document order, descending into
// embedded documents where a typed node holds one. fn receives the language
// of the document that owns the node.
func forEachNode(doc *lang.Document, fn func(n lang.Node, l lang.Language)) {
	if doc == nil || doc.Root == nil || fn == nil {
		return
	}
	lang.Walk(doc.Root, func(n lang.Node) bool {
		fn(n, doc.Language)
		if tn, ok := n.(lang.TypedNode); ok {
			if inner := lang.Embedded(tn); inner != nil {
				forEachNode(inner, fn)
			}
		}
		return true
	})
}

func isDeprecated(n lang.Node) bool {
	s := n.Schema()
	return s != nil && s.IsDeprecated()
}
