package format

import (
	"bytes"
	"context"
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
)

func TestNormalizeOptionsDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	got, err := normalizeOptions(Options{})
	if err != nil {
		t.Fatalf("normalizeOptions default: %v", err)
	}
	if got.LineWidth != defaultLineWidth {
		t.Fatalf("LineWidth = %d, want %d", got.LineWidth, defaultLineWidth)
	}
	if got.Indent != defaultIndent {
		t.Fatalf("Indent = %q, want %q", got.Indent, defaultIndent)
	}

	if _, err := normalizeOptions(Options{LineWidth: -1}); err == nil {
		t.Fatal("expected error for negative LineWidth")
	}
	if _, err := normalizeOptions(Options{Indent: "x"}); err == nil {
		t.Fatal("expected error for non-blank Indent")
	}
}

func TestSourceFormatsByWidth(t *testing.T) {
	t.Parallel()

	src := []byte(`{"a":1,"b":[true,null]}`)
	tests := map[string]struct {
		opts Options
		want string
	}{
		"fits":   {want: "{\"a\": 1, \"b\": [true, null]}\n"},
		"breaks": {opts: Options{LineWidth: 20}, want: "{\n  \"a\": 1,\n  \"b\": [true, null]\n}\n"},
		"tabs":   {opts: Options{LineWidth: 10, Indent: "\t"}, want: "{\n\t\"a\": 1,\n\t\"b\": [\n\t\ttrue,\n\t\tnull\n\t]\n}\n"},
		"expand": {opts: Options{Expand: true}, want: "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}\n"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := Source(context.Background(), src, tc.opts)
			if err != nil {
				t.Fatalf("Source: %v", err)
			}
			if string(res.Output) != tc.want {
				t.Fatalf("output = %q, want %q", res.Output, tc.want)
			}
			if !res.Changed {
				t.Fatal("expected Changed")
			}
		})
	}
}

func TestSourceLeavesFormattedInputUnchanged(t *testing.T) {
	t.Parallel()

	src := []byte("{\"replace\": false, \"values\": [\"demo:load\"]}\n")
	res, err := Source(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if res.Changed || !bytes.Equal(res.Output, src) {
		t.Fatalf("unexpected change: %q", res.Output)
	}
}

func TestSourcePreservesBOMAndDominantNewline(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte("\xEF\xBB\xBF{\"a\":1,\r\n\"b\":2}\r\n"), Options{LineWidth: 5})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	want := "\xEF\xBB\xBF{\r\n  \"a\": 1,\r\n  \"b\": 2\r\n}\r\n"
	if string(res.Output) != want {
		t.Fatalf("output = %q, want %q", res.Output, want)
	}
}

func TestSourceReportsMixedNewlines(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte("{\"a\": 1,\r\n\"b\": 2\n}"), Options{})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if string(res.Output) != "{\"a\": 1, \"b\": 2}\n" {
		t.Fatalf("output = %q", res.Output)
	}

	var sawMixed bool
	for _, d := range res.Diagnostics {
		if d.Code == CodeMixedNewlines {
			sawMixed = d.Severity == diag.SeverityInfo && d.Source == "formatter"
		}
	}
	if !sawMixed {
		t.Fatalf("expected mixed newline diagnostic, got %v", res.Diagnostics)
	}
}

func TestSourceRewritesSingleQuotedStrings(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte(`{'say': 'a "b"'}`), Options{})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if want := "{\"say\": \"a \\\"b\\\"\"}\n"; string(res.Output) != want {
		t.Fatalf("output = %q, want %q", res.Output, want)
	}
	if len(res.Diagnostics) == 0 || res.Diagnostics[0].Code != diag.CodeSingleQuote {
		t.Fatalf("expected single quote warning to pass through, got %v", res.Diagnostics)
	}
}

func TestSourceRefusesUnsafeInput(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src    []byte
		reason UnsafeReason
	}{
		"invalid utf8":        {src: []byte{'"', 0xff, '"'}, reason: UnsafeReasonInvalidUTF8},
		"missing value":       {src: []byte(`{"a": }`), reason: UnsafeReasonSyntaxErrors},
		"unterminated string": {src: []byte(`{"a": "b}`), reason: UnsafeReasonSyntaxErrors},
		"empty":               {src: nil, reason: UnsafeReasonSyntaxErrors},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := Source(context.Background(), tc.src, Options{})
			if !IsErrUnsafeToFormat(err) {
				t.Fatalf("error = %v, want ErrUnsafeToFormat", err)
			}
			unsafe, _ := err.(*ErrUnsafeToFormat)
			if unsafe.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s", unsafe.Reason, tc.reason)
			}
			if len(res.Output) != 0 {
				t.Fatalf("unexpected output %q", res.Output)
			}
			if len(res.Diagnostics) == 0 {
				t.Fatal("expected diagnostics explaining the refusal")
			}
		})
	}
}

func TestDocumentHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	src := []byte(`{}`)
	root, diags := jsonlang.Parse(src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Document(ctx, root, src, diags, Options{}); err != context.Canceled {
		t.Fatalf("error = %v, want %v", err, context.Canceled)
	}
}
