package style

import (
	"fmt"
	"slices"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Space is the shared style-ID space of all registered stylers. It is
// immutable after construction.
type Space struct {
	stylers map[lang.Language]Styler
	offsets map[lang.Language]int
	order   []lang.Language
	kinds   []Kind
}

// NewSpace instantiates every styler of set and allocates a contiguous ID
// block per language. Blocks follow a topological order of the "embeds"
// edges declared in reg, so hosts precede the languages they embed. Edges
// closing a cycle are ignored.
func NewSpace(reg *lang.Registry, set Set) (*Space, error) {
	s := &Space{
		stylers: make(map[lang.Language]Styler, len(set)),
		offsets: make(map[lang.Language]int, len(set)),
	}
	for l, f := range set {
		if _, ok := reg.Language(l); !ok {
			return nil, fmt.Errorf("styler for unregistered language %q", l)
		}
		st := f()
		if st == nil || st.Language() != l {
			return nil, fmt.Errorf("styler factory for %q returned a mismatched styler", l)
		}
		if len(st.Styles()) == 0 || st.Styles()[0] != KindDefault {
			return nil, fmt.Errorf("styler for %q must declare the default style first", l)
		}
		s.stylers[l] = st
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[lang.Language]int)
	var post []lang.Language
	var visit func(l lang.Language)
	visit = func(l lang.Language) {
		if state[l] != unvisited {
			return
		}
		state[l] = visiting
		spec, _ := reg.Language(l)
		for _, e := range spec.Embeds {
			visit(e)
		}
		state[l] = done
		post = append(post, l)
	}
	for _, l := range reg.Languages() {
		visit(l)
	}
	slices.Reverse(post)

	for _, l := range post {
		st, ok := s.stylers[l]
		if !ok {
			continue
		}
		s.offsets[l] = len(s.kinds)
		s.order = append(s.order, l)
		s.kinds = append(s.kinds, st.Styles()...)
	}
	return s, nil
}

// Languages returns the styled languages in block order.
func (s *Space) Languages() []lang.Language { return slices.Clone(s.order) }

// Offset returns the first style ID of a language block.
func (s *Space) Offset(l lang.Language) (int, bool) {
	off, ok := s.offsets[l]
	return off, ok
}

// Len returns the number of style IDs.
func (s *Space) Len() int { return len(s.kinds) }

// Kind returns the kind of a global style ID.
func (s *Space) Kind(id int) Kind {
	if id < 0 || id >= len(s.kinds) {
		return KindDefault
	}
	return s.kinds[id]
}

// Highlight styles doc over [start, end). The returned runs are strictly
// increasing and cover the range without gaps. Bytes the styler does not
// claim get the default style of the document language.
func (s *Space) Highlight(doc *lang.Document, start, end text.ByteOffset) []Run {
	if end <= start {
		return nil
	}
	b := &Builder{space: s, cursor: start, limit: end}
	if doc != nil {
		if st, ok := s.stylers[doc.Language]; ok {
			b.base = s.offsets[doc.Language]
			if doc.Root != nil {
				st.Style(b, doc.Root)
			}
		}
	}
	b.fill(end)
	return b.runs
}

// HighlightRoot styles exactly the span of the document root.
func (s *Space) HighlightRoot(doc *lang.Document) []Run {
	if doc == nil || doc.Root == nil {
		return nil
	}
	sp := doc.Root.Span()
	return s.Highlight(doc, sp.Start.Index, sp.End.Index)
}
