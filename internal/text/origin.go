package text

// Origin places a buffer inside the outermost document so that positions
// computed while scanning the buffer land in document coordinates.
//
// A nil *Origin means the buffer is the document itself.
type Origin struct {
	// Line is the document line on which the buffer's first byte sits.
	Line int
	// LineStart is the document offset at which Line starts.
	LineStart ByteOffset
	// Offset is the offset of buf[0] in the parent buffer.
	Offset int
	// Mapper maps decoded buffer offsets to encoded parent offsets relative
	// to Offset. Nil when the buffer is a verbatim slice of its parent.
	Mapper *IndexMapper
	// Parent is the origin of the parent buffer; nil when the parent is the
	// document.
	Parent *Origin
}

// Abs converts a buffer offset into a document offset.
func (o *Origin) Abs(i int) ByteOffset {
	if o == nil {
		return ByteOffset(i)
	}
	p := o.Offset + o.Mapper.ToEncoded(i)
	if o.Parent != nil {
		return o.Parent.Abs(p)
	}
	return ByteOffset(p)
}

// Local converts a document offset into a buffer offset. Offsets inside an
// escape sequence map to the start of the text the escape decoded to.
func (o *Origin) Local(abs ByteOffset) int {
	if o == nil {
		return int(abs)
	}
	p := int(abs)
	if o.Parent != nil {
		p = o.Parent.Local(abs)
	}
	return o.Mapper.ToDecoded(p - o.Offset)
}

// Literal reports whether the byte at buffer offset i is copied verbatim from
// the document, i.e. it was not produced by an escape sequence.
func (o *Origin) Literal(i int) bool {
	return o.Abs(i+1)-o.Abs(i) == 1
}

// StartLine returns the line and line start for the buffer's first byte.
func (o *Origin) StartLine() (int, ByteOffset) {
	if o == nil {
		return 0, 0
	}
	return o.Line, o.LineStart
}

// Child builds the origin of a sub-buffer whose first byte sits at local
// offset offset of the buffer described by o. at is the document position
// of that byte.
func (o *Origin) Child(offset int, at Position, mapper *IndexMapper) *Origin {
	return &Origin{
		Line:      at.Line,
		LineStart: at.Index - ByteOffset(at.Column),
		Offset:    offset,
		Mapper:    mapper,
		Parent:    o,
	}
}
