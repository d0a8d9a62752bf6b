package lexer

import (
	"fmt"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

// Scanner is the cursor state every language tokenizer embeds. It tracks
// the buffer cursor, the document line, and the buffer origin, and buffers
// diagnostics that belong to the next emitted token.
type Scanner[K Kind] struct {
	src       []byte
	pos       int
	origin    *text.Origin
	line      int
	lineStart text.ByteOffset

	pending []pending
	flags   TokenFlags
	diags   diag.List
}

type pending struct {
	code     diag.Code
	severity diag.Severity
	message  string
}

// Mark is a saved cursor location.
type Mark struct {
	Offset int
	Pos    text.Position
}

// NewScanner starts scanning src at cursor. origin places src inside the
// document; its line fields describe the line holding src[cursor].
func NewScanner[K Kind](src []byte, cursor int, origin *text.Origin) Scanner[K] {
	line, lineStart := origin.StartLine()
	return Scanner[K]{
		src:       src,
		pos:       min(max(cursor, 0), len(src)),
		origin:    origin,
		line:      line,
		lineStart: lineStart,
	}
}

// Src returns the scanned buffer.
func (s *Scanner[K]) Src() []byte { return s.src }

// Origin returns the buffer origin.
func (s *Scanner[K]) Origin() *text.Origin { return s.origin }

// Offset returns the buffer cursor.
func (s *Scanner[K]) Offset() int { return s.pos }

// EOF reports whether the cursor reached the end of the buffer.
func (s *Scanner[K]) EOF() bool { return s.pos >= len(s.src) }

// Peek returns the byte delta positions after the cursor, or 0.
func (s *Scanner[K]) Peek(delta int) byte {
	j := s.pos + delta
	if j < 0 || j >= len(s.src) {
		return 0
	}
	return s.src[j]
}

// Current returns the byte under the cursor, or 0 at EOF.
func (s *Scanner[K]) Current() byte { return s.Peek(0) }

// Advance consumes n bytes. Only literal newlines start a new line; a
// newline decoded from an escape sequence stays on the line it came from.
func (s *Scanner[K]) Advance(n int) {
	for ; n > 0 && s.pos < len(s.src); n-- {
		b := s.src[s.pos]
		s.pos++
		if b == '\n' && s.origin.Literal(s.pos-1) {
			s.line++
			s.lineStart = s.origin.Abs(s.pos)
		}
	}
}

// AdvanceWhile consumes bytes while pred holds and returns the count.
func (s *Scanner[K]) AdvanceWhile(pred func(byte) bool) int {
	n := 0
	for !s.EOF() && pred(s.src[s.pos]) {
		s.Advance(1)
		n++
	}
	return n
}

// SkipWhitespace consumes spaces, tabs, and line breaks.
func (s *Scanner[K]) SkipWhitespace() {
	s.AdvanceWhile(IsWhitespace)
}

// SkipSpaces consumes spaces and tabs but stops at line breaks.
func (s *Scanner[K]) SkipSpaces() {
	s.AdvanceWhile(IsHorizontalSpace)
}

// Position returns the document position of the cursor.
func (s *Scanner[K]) Position() text.Position {
	abs := s.origin.Abs(s.pos)
	return text.Position{Line: s.line, Column: int(abs - s.lineStart), Index: abs}
}

// Mark saves the cursor.
func (s *Scanner[K]) Mark() Mark {
	return Mark{Offset: s.pos, Pos: s.Position()}
}

// Reset moves the cursor back to m.
func (s *Scanner[K]) Reset(m Mark) {
	s.pos = m.Offset
	s.line = m.Pos.Line
	s.lineStart = m.Pos.Index - text.ByteOffset(m.Pos.Column)
}

// SpanFrom returns the span from m to the cursor.
func (s *Scanner[K]) SpanFrom(m Mark) text.Span {
	return text.NewSpan(m.Pos, s.Position())
}

// Text returns the bytes consumed since m.
func (s *Scanner[K]) Text(m Mark) []byte {
	return s.src[m.Offset:s.pos]
}

// ErrorNextToken buffers a diagnostic for the next emitted token. It is
// used when the condition is discovered before the token is complete.
func (s *Scanner[K]) ErrorNextToken(code diag.Code, severity diag.Severity, format string, args ...any) {
	s.pending = append(s.pending, pending{code: code, severity: severity, message: fmt.Sprintf(format, args...)})
}

// FlagNextToken sets flags on the next emitted token.
func (s *Scanner[K]) FlagNextToken(f TokenFlags) {
	s.flags |= f
}

// Emit produces a token for the bytes consumed since m and flushes any
// buffered diagnostics onto its span.
func (s *Scanner[K]) Emit(kind K, m Mark) Token[K] {
	tok := Token[K]{
		Kind:   kind,
		Value:  s.src[m.Offset:s.pos],
		Span:   s.SpanFrom(m),
		Offset: m.Offset,
		Flags:  s.flags,
	}
	for _, p := range s.pending {
		s.diags.Add(diag.Diagnostic{Code: p.code, Message: p.message, Severity: p.severity, Span: tok.Span})
	}
	s.pending = s.pending[:0]
	s.flags = 0
	return tok
}

// Errorf records an error diagnostic at span.
func (s *Scanner[K]) Errorf(code diag.Code, span text.Span, format string, args ...any) {
	s.diags.Errorf(code, span, format, args...)
}

// Warningf records a warning diagnostic at span.
func (s *Scanner[K]) Warningf(code diag.Code, span text.Span, format string, args ...any) {
	s.diags.Warningf(code, span, format, args...)
}

// Diagnostics returns the diagnostics recorded so far.
func (s *Scanner[K]) Diagnostics() []diag.Diagnostic {
	return s.diags
}

// IsWhitespace reports spaces, tabs, and line breaks.
func IsWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// IsHorizontalSpace reports spaces and tabs.
func IsHorizontalSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// IsDigit reports ASCII digits.
func IsDigit(b byte) bool { return b >= '0' && b <= '9' }

// IsLetter reports ASCII letters.
func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsHexDigit reports ASCII hex digits.
func IsHexDigit(b byte) bool {
	return IsDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// PositionAt returns the document position of buffer offset off given that
// buffer offset base sits at start. Only literal newlines between the two
// offsets advance the line.
func PositionAt(origin *text.Origin, src []byte, base int, start text.Position, off int) text.Position {
	line := start.Line
	lineStart := start.Index - text.ByteOffset(start.Column)
	for i := base; i < off && i < len(src); i++ {
		if src[i] == '\n' && origin.Literal(i) {
			line++
			lineStart = origin.Abs(i + 1)
		}
	}
	abs := origin.Abs(off)
	return text.Position{Line: line, Column: int(abs - lineStart), Index: abs}
}
