// Package parser provides the one-token-lookahead base used by the
// recursive-descent parsers of every language.
package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/text"
)

// TokenSource yields tokens in source order. After the end of input it must
// keep returning an EOF token.
type TokenSource[K lexer.Kind] interface {
	NextToken() lexer.Token[K]
}

// Base wraps a token source with one token of lookahead. Mismatches are
// recorded as diagnostics; Base never aborts on malformed input.
type Base[K lexer.Kind] struct {
	src   TokenSource[K]
	cur   lexer.Token[K]
	last  lexer.Token[K]
	eof   K
	diags diag.List
}

// NewBase primes the lookahead from src. eof is the kind that marks the end
// of input.
func NewBase[K lexer.Kind](src TokenSource[K], eof K) Base[K] {
	b := Base[K]{src: src, eof: eof}
	b.cur = src.NextToken()
	b.last = lexer.Token[K]{Span: text.PointSpan(b.cur.Span.Start), Offset: b.cur.Offset}
	return b
}

// Peek returns the lookahead token.
func (b *Base[K]) Peek() lexer.Token[K] { return b.cur }

// Last returns the most recently consumed token.
func (b *Base[K]) Last() lexer.Token[K] { return b.last }

// At reports whether the lookahead has kind k.
func (b *Base[K]) At(k K) bool { return b.cur.Kind == k }

// AtAnyOf reports whether the lookahead has one of kinds.
func (b *Base[K]) AtAnyOf(kinds ...K) bool { return slices.Contains(kinds, b.cur.Kind) }

// AtEOF reports whether the lookahead is the end of input.
func (b *Base[K]) AtEOF() bool { return b.cur.Kind == b.eof }

// Advance consumes the lookahead and returns it. Advancing at EOF is a no-op
// that returns the EOF token.
func (b *Base[K]) Advance() lexer.Token[K] {
	tok := b.cur
	if tok.Kind == b.eof {
		return tok
	}
	b.last = tok
	b.cur = b.src.NextToken()
	return tok
}

// Accept consumes the lookahead if it has kind k. Otherwise it records
// "expected k but got X" and leaves the lookahead in place.
func (b *Base[K]) Accept(k K) (lexer.Token[K], bool) {
	if b.cur.Kind == k {
		return b.Advance(), true
	}
	b.Unexpected(k.String())
	return b.cur, false
}

// AcceptAnyOf is Accept for a set of kinds.
func (b *Base[K]) AcceptAnyOf(kinds ...K) (lexer.Token[K], bool) {
	if slices.Contains(kinds, b.cur.Kind) {
		return b.Advance(), true
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	b.Unexpected(strings.Join(names, " or "))
	return b.cur, false
}

// Unexpected records that want was expected at the lookahead.
func (b *Base[K]) Unexpected(want string) {
	if b.cur.Kind == b.eof {
		b.diags.Errorf(diag.CodeUnexpectedEOF, b.cur.Span, "expected %s but got %s", want, b.cur.Kind)
		return
	}
	b.diags.Errorf(diag.CodeUnexpectedToken, b.cur.Span, "expected %s but got %s", want, describe(b.cur))
}

// Errorf records a parse error.
func (b *Base[K]) Errorf(code diag.Code, span text.Span, format string, args ...any) {
	b.diags.Errorf(code, span, format, args...)
}

// Warningf records a parse warning.
func (b *Base[K]) Warningf(code diag.Code, span text.Span, format string, args ...any) {
	b.diags.Warningf(code, span, format, args...)
}

// Report records prebuilt diagnostics.
func (b *Base[K]) Report(ds ...diag.Diagnostic) {
	b.diags.Add(ds...)
}

// Diagnostics returns the parse diagnostics recorded so far.
func (b *Base[K]) Diagnostics() []diag.Diagnostic {
	return b.diags
}

func describe[K lexer.Kind](tok lexer.Token[K]) string {
	if len(tok.Value) == 0 || len(tok.Value) > 24 {
		return tok.Kind.String()
	}
	name := tok.Kind.String()
	if name == string(tok.Value) {
		return name
	}
	return fmt.Sprintf("%s `%s`", name, tok.Value)
}
