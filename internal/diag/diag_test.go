package diag

import (
	"errors"
	"testing"

	"github.com/mcdatapack/dpe/internal/text"
)

func at(i int) text.Span {
	return text.PointSpan(text.Pos(0, i, text.ByteOffset(i)))
}

func TestSortIsDeterministic(t *testing.T) {
	t.Parallel()

	ds := []Diagnostic{
		Warningf(CodeUnknownProperty, at(5), "b"),
		Errorf(CodeTypeMismatch, at(5), "a"),
		Errorf(CodeTypeMismatch, at(1), "c"),
	}
	Sort(ds)

	want := []string{"c", "a", "b"}
	for i, w := range want {
		if ds[i].Message != w {
			t.Fatalf("ds[%d].Message = %q, want %q", i, ds[i].Message, w)
		}
	}
}

func TestWrapKeepsOriginalMessage(t *testing.T) {
	t.Parallel()

	d := Wrap(errors.New("boom"), at(0))
	if d.Code != CodeInternalWrapped || d.Severity != SeverityError {
		t.Fatalf("unexpected wrapped diagnostic: %+v", d)
	}
	if d.Message != "internal error: boom" {
		t.Fatalf("Message = %q", d.Message)
	}
	if got := Wrap("plain", at(0)).Message; got != "internal error: plain" {
		t.Fatalf("Message = %q", got)
	}
}

func TestListAndSeverity(t *testing.T) {
	t.Parallel()

	var l List
	l.Warningf(CodeSingleQuote, at(0), "w")
	if HasErrors(l) {
		t.Fatal("warnings only must not count as errors")
	}
	l.Errorf(CodeUnexpectedEOF, at(2), "e %d", 1)
	if !HasErrors(l) || l.Len() != 2 || l[1].Message != "e 1" {
		t.Fatalf("unexpected list: %+v", l)
	}

	for _, s := range []Severity{SeverityError, SeverityWarning, SeverityInfo, SeverityHint} {
		got, ok := ParseSeverity(s.String())
		if !ok || got != s {
			t.Fatalf("ParseSeverity(%q) = %v, %v", s.String(), got, ok)
		}
	}
}
