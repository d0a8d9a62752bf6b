package format

import (
	"bytes"
	"context"
	"testing"

	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/text"
)

func byteSpan(start, end int) text.Span {
	return text.Span{
		Start: text.Position{Index: text.ByteOffset(start)},
		End:   text.Position{Index: text.ByteOffset(end)},
	}
}

func formatRange(t *testing.T, src []byte, r text.Span, opts Options) RangeResult {
	t.Helper()

	root, diags := jsonlang.Parse(src, nil)
	res, err := Range(context.Background(), root, src, diags, r, opts)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	return res
}

func TestRangeWidensToInnermostContainer(t *testing.T) {
	t.Parallel()

	src := []byte(`{"a": {"x":1,"y":[1,2]}, "b":2}`)
	start := bytes.Index(src, []byte(`"x"`))
	res := formatRange(t, src, byteSpan(start, start+3), Options{})
	if len(res.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(res.Edits))
	}
	edit := res.Edits[0]
	if got := string(src[edit.Start:edit.End]); got != `{"x":1,"y":[1,2]}` {
		t.Fatalf("edit covers %q", got)
	}

	out, err := text.ApplyEdits(src, res.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if want := `{"a": {"x": 1, "y": [1, 2]}, "b":2}`; string(out) != want {
		t.Fatalf("range formatted output = %q, want %q", out, want)
	}
}

func TestRangeIndentsFromEnclosingDepth(t *testing.T) {
	t.Parallel()

	src := []byte("{\n  \"a\": {\"x\":1,\"y\":2}\n}\n")
	start := bytes.Index(src, []byte(`"x"`))
	res := formatRange(t, src, byteSpan(start, start), Options{LineWidth: 20})
	if len(res.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(res.Edits))
	}
	if want := "{\n    \"x\": 1,\n    \"y\": 2\n  }"; string(res.Edits[0].NewText) != want {
		t.Fatalf("edit text = %q, want %q", res.Edits[0].NewText, want)
	}
}

func TestRangeOutsideNestedContainersFormatsDocument(t *testing.T) {
	t.Parallel()

	src := []byte(`{"a":1}`)
	res := formatRange(t, src, byteSpan(0, len(src)), Options{})
	if len(res.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(res.Edits))
	}
	edit := res.Edits[0]
	if edit.Start != 0 || edit.End != text.ByteOffset(len(src)) || string(edit.NewText) != "{\"a\": 1}\n" {
		t.Fatalf("edit = %+v (%q)", edit, edit.NewText)
	}
}

func TestRangeReturnsNoEditsWhenAlreadyFormatted(t *testing.T) {
	t.Parallel()

	src := []byte("{\"a\": [1, 2]}\n")
	start := bytes.IndexByte(src, '[')
	if res := formatRange(t, src, byteSpan(start+1, start+2), Options{}); len(res.Edits) != 0 {
		t.Fatalf("unexpected edits %+v", res.Edits)
	}
	if res := formatRange(t, src, byteSpan(0, 1), Options{}); len(res.Edits) != 0 {
		t.Fatalf("unexpected document edits %+v", res.Edits)
	}
}

func TestRangeRejectsBadInput(t *testing.T) {
	t.Parallel()

	src := []byte(`{"a": 1}`)
	root, diags := jsonlang.Parse(src, nil)
	if _, err := Range(context.Background(), root, src, diags, byteSpan(2, 40), Options{}); err == nil || IsErrUnsafeToFormat(err) {
		t.Fatalf("out of bounds error = %v", err)
	}
	if _, err := Range(context.Background(), root, src, diags, byteSpan(4, 2), Options{}); err == nil {
		t.Fatal("expected error for reversed range")
	}

	bad := []byte(`{"a": [1,}`)
	root, diags = jsonlang.Parse(bad, nil)
	if _, err := Range(context.Background(), root, bad, diags, byteSpan(1, 2), Options{}); !IsErrUnsafeToFormat(err) {
		t.Fatalf("error = %v, want ErrUnsafeToFormat", err)
	}
}
