package style

import (
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Run assigns a global style ID to the document bytes [Start, End).
type Run struct {
	Start text.ByteOffset
	End   text.ByteOffset
	Style int
}

// Builder collects runs while a styler walks a tree. Stylers emit in
// document order using local style IDs; the builder translates them into
// the language block, clips overlaps, and fills gaps with the default
// style of the language being styled.
type Builder struct {
	space  *Space
	base   int
	cursor text.ByteOffset
	limit  text.ByteOffset
	runs   []Run
}

// Emit styles span with a local style ID.
func (b *Builder) Emit(span text.Span, local int) {
	b.EmitRange(span.Start.Index, span.End.Index, local)
}

// EmitRange styles [start, end) with a local style ID. The part of the range
// already styled is dropped.
func (b *Builder) EmitRange(start, end text.ByteOffset, local int) {
	start = max(start, b.cursor)
	end = min(end, b.limit)
	if end <= start {
		return
	}
	b.fill(start)
	b.push(Run{Start: start, End: end, Style: b.base + local})
}

// Embed styles an embedded document inside span with the styler of its
// language. Without a styler the span is left to the host.
func (b *Builder) Embed(doc *lang.Document, span text.Span) {
	if doc == nil || doc.Root == nil || b.space == nil {
		return
	}
	st, ok := b.space.stylers[doc.Language]
	if !ok {
		return
	}
	b.fill(span.Start.Index)

	base, limit := b.base, b.limit
	b.base = b.space.offsets[doc.Language]
	b.limit = min(limit, span.End.Index)
	st.Style(b, doc.Root)
	b.fill(b.limit)
	b.base, b.limit = base, limit
}

// Cursor returns the offset up to which the output is complete.
func (b *Builder) Cursor() text.ByteOffset { return b.cursor }

func (b *Builder) fill(to text.ByteOffset) {
	to = min(to, b.limit)
	if to <= b.cursor {
		return
	}
	b.push(Run{Start: b.cursor, End: to, Style: b.base})
}

func (b *Builder) push(r Run) {
	if n := len(b.runs); n > 0 && b.runs[n-1].Style == r.Style && b.runs[n-1].End == r.Start {
		b.runs[n-1].End = r.End
	} else {
		b.runs = append(b.runs, r)
	}
	b.cursor = r.End
}
