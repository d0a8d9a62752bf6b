package format

import (
	"bytes"
	"unicode/utf8"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

const utf8BOM = "\xEF\xBB\xBF"

const (
	// CodeMixedNewlines reports mixed LF/CRLF line endings in input.
	CodeMixedNewlines diag.Code = "FMT_MIXED_NEWLINES"
	// CodeInvalidUTF8 reports formatter refusal for invalid UTF-8 bytes.
	CodeInvalidUTF8 diag.Code = "FMT_INVALID_UTF8"
)

const diagnosticSource = "formatter"

// SourcePolicy captures input-byte decisions kept in the output.
type SourcePolicy struct {
	HasBOM        bool
	Newline       string // "\n" or "\r\n"
	MixedNewlines bool
	ValidUTF8     bool
}

func analyzeSourcePolicy(src []byte) (SourcePolicy, []diag.Diagnostic) {
	body := src
	policy := SourcePolicy{
		Newline:   "\n",
		ValidUTF8: utf8.Valid(src),
	}
	if bytes.HasPrefix(src, []byte(utf8BOM)) {
		policy.HasBOM = true
		body = src[len(utf8BOM):]
	}

	lf, crlf := countNewlines(body)
	if crlf > lf {
		policy.Newline = "\r\n"
	}

	var diags []diag.Diagnostic
	if !policy.ValidUTF8 {
		d := diag.Errorf(CodeInvalidUTF8, sourceSpan(src), "formatter refuses invalid UTF-8 input")
		d.Source = diagnosticSource
		diags = append(diags, d)
	}
	if lf > 0 && crlf > 0 {
		policy.MixedNewlines = true
		diags = append(diags, diag.Diagnostic{
			Code:     CodeMixedNewlines,
			Message:  "mixed newline styles detected; formatter will normalize to dominant style",
			Severity: diag.SeverityInfo,
			Span:     sourceSpan(src),
			Source:   diagnosticSource,
		})
	}
	return policy, diags
}

func countNewlines(src []byte) (lf, crlf int) {
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				crlf++
				i++
			}
		case '\n':
			lf++
		}
	}
	return lf, crlf
}

func sourceSpan(src []byte) text.Span {
	li := text.NewLineIndex(src)
	end, err := li.OffsetToPosition(li.SourceLen())
	if err != nil {
		return text.Span{}
	}
	return text.NewSpan(text.Pos(0, 0, 0), end)
}

// columnAt returns the byte column of off within its line.
func columnAt(src []byte, off text.ByteOffset) int {
	line := src[:off]
	if i := bytes.LastIndexByte(line, '\n'); i >= 0 {
		return len(line) - i - 1
	}
	return len(line)
}
