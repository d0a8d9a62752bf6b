package lexer

import (
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

type testKind uint8

const (
	testWord testKind = iota
	testEOF
)

func (k testKind) String() string {
	if k == testEOF {
		return "EOF"
	}
	return "Word"
}

func scanWords(s *Scanner[testKind]) []Token[testKind] {
	var out []Token[testKind]
	for {
		s.SkipWhitespace()
		m := s.Mark()
		if s.EOF() {
			return append(out, s.Emit(testEOF, m))
		}
		s.AdvanceWhile(func(b byte) bool { return !IsWhitespace(b) })
		out = append(out, s.Emit(testWord, m))
	}
}

func TestScannerTracksLinesAndColumns(t *testing.T) {
	t.Parallel()

	s := NewScanner[testKind]([]byte("ab\r\n  cd\nef"), 0, nil)
	toks := scanWords(&s)

	want := []text.Span{
		{Start: text.Pos(0, 0, 0), End: text.Pos(0, 2, 2)},
		{Start: text.Pos(1, 2, 6), End: text.Pos(1, 4, 8)},
		{Start: text.Pos(2, 0, 9), End: text.Pos(2, 2, 11)},
		{Start: text.Pos(2, 2, 11), End: text.Pos(2, 2, 11)},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Span != want[i] {
			t.Fatalf("token[%d] %s span = %s, want %s", i, tok, tok.Span, want[i])
		}
	}
	if toks[1].Offset != 6 || string(toks[1].Value) != "cd" {
		t.Fatalf("token[1] = %+v", toks[1])
	}
}

func TestScannerFlushesBufferedErrorsOntoNextToken(t *testing.T) {
	t.Parallel()

	s := NewScanner[testKind]([]byte("one two"), 0, nil)
	s.ErrorNextToken(diag.CodeIncompleteEscape, diag.SeverityError, "incomplete %s", "escape")
	s.FlagNextToken(TokenFlagMalformed)
	toks := scanWords(&s)

	ds := s.Diagnostics()
	if len(ds) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(ds))
	}
	if ds[0].Span != toks[0].Span || ds[0].Message != "incomplete escape" {
		t.Fatalf("diagnostic = %+v, want on first token %s", ds[0], toks[0].Span)
	}
	if !toks[0].Flags.Has(TokenFlagMalformed) || toks[1].Flags != 0 {
		t.Fatalf("flags = %v, %v", toks[0].Flags, toks[1].Flags)
	}
}

func TestScannerMapsEmbeddedBufferIntoDocument(t *testing.T) {
	t.Parallel()

	// document line 3 starts at 100; the buffer "a\nb" was decoded from
	// `a\nb` starting at document offset 110.
	var b text.IndexMapperBuilder
	b.AddEscape(1, 1, 3, 2)
	origin := &text.Origin{Line: 3, LineStart: 100, Offset: 110, Mapper: b.Build()}

	s := NewScanner[testKind]([]byte("a\nb"), 0, origin)
	toks := scanWords(&s)

	if got, want := toks[1].Span.Start, text.Pos(3, 13, 113); got != want {
		t.Fatalf("second word starts at %s, want %s (escaped newline stays on the line)", got, want)
	}
}

func TestScannerStartsAtCursor(t *testing.T) {
	t.Parallel()

	s := NewScanner[testKind]([]byte("skip keep"), 5, nil)
	toks := scanWords(&s)
	if string(toks[0].Value) != "keep" || toks[0].Span.Start.Index != 5 {
		t.Fatalf("first token = %s at %s", toks[0], toks[0].Span.Start)
	}
}

func TestPositionAtCountsLiteralNewlines(t *testing.T) {
	t.Parallel()

	src := []byte("xx\nab\ncd")
	got := PositionAt(nil, src, 3, text.Pos(1, 0, 3), 7)
	if want := text.Pos(2, 1, 7); got != want {
		t.Fatalf("PositionAt = %s, want %s", got, want)
	}
}

func TestScannerResetRestoresLine(t *testing.T) {
	t.Parallel()

	s := NewScanner[testKind]([]byte("a\nbc"), 0, nil)
	m := s.Mark()
	s.Advance(3)
	if got := s.Position(); got != text.Pos(1, 1, 3) {
		t.Fatalf("Position() = %s", got)
	}
	s.Reset(m)
	if got := s.Position(); got != text.Pos(0, 0, 0) || s.Offset() != 0 {
		t.Fatalf("after Reset Position() = %s, Offset() = %d", got, s.Offset())
	}
}
