// Package text defines source offsets, positions, spans, and offset mappers.
package text

import "fmt"

// ByteOffset is a byte index into a UTF-8 source buffer.
type ByteOffset int

// IsValid reports whether the offset is non-negative.
func (o ByteOffset) IsValid() bool {
	return o >= 0
}

// Position is a source location. Ordering uses (Line, Column) only; Index is
// the absolute byte offset and is carried for slicing.
type Position struct {
	Line   int // 0-based
	Column int // byte column
	Index  ByteOffset
}

// Pos builds a Position.
func Pos(line, column int, index ByteOffset) Position {
	return Position{Line: line, Column: column, Index: index}
}

// Compare orders positions by line, then column.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Column < o.Column:
		return -1
	case p.Column > o.Column:
		return 1
	default:
		return 0
	}
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

// After reports whether p sorts strictly after o.
func (p Position) After(o Position) bool { return p.Compare(o) > 0 }

// Shift returns p moved by n bytes on the same line.
func (p Position) Shift(n int) Position {
	return Position{Line: p.Line, Column: p.Column + n, Index: p.Index + ByteOffset(n)}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d@%d", p.Line, p.Column, p.Index)
}

// Span is a source range [Start, End). Constructors do not enforce
// Start <= End; degenerate spans are allowed.
type Span struct {
	Start Position
	End   Position
}

// NewSpan constructs a span.
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// PointSpan returns an empty span at p.
func PointSpan(p Position) Span {
	return Span{Start: p, End: p}
}

// IsValid reports whether Start does not sort after End.
func (s Span) IsValid() bool {
	return !s.Start.After(s.End)
}

// IsEmpty reports whether the span covers zero bytes.
func (s Span) IsEmpty() bool {
	return s.Start.Index == s.End.Index
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() ByteOffset {
	return s.End.Index - s.Start.Index
}

// Contains reports whether p is within the half-open span [Start, End).
func (s Span) Contains(p Position) bool {
	return !p.Before(s.Start) && p.Before(s.End)
}

// ContainsInclusive reports whether p is within the closed span [Start, End].
func (s Span) ContainsInclusive(p Position) bool {
	return !p.Before(s.Start) && !p.After(s.End)
}

// ContainsSpan reports whether other is fully contained within s.
func (s Span) ContainsSpan(other Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// Overlaps reports whether two spans share at least one byte.
// Spans that only touch at a boundary do not overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Slice returns the bytes of src covered by the span, or nil if out of range.
func (s Span) Slice(src []byte) []byte {
	start, end := int(s.Start.Index), int(s.End.Index)
	if start < 0 || end < start || end > len(src) {
		return nil
	}
	return src[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("[%s,%s)", s.Start, s.End)
}

// UTF16Position is an LSP-facing UTF-16 position kept at system edges.
type UTF16Position struct {
	Line      int
	Character int
}

// UTF16Range is an LSP-facing UTF-16 range kept at system edges.
type UTF16Range struct {
	Start UTF16Position
	End   UTF16Position
}
