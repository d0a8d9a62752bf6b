// Package format pretty-prints datapack JSON documents.
package format

import (
	"errors"
	"fmt"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/text"
)

const (
	defaultLineWidth = 100
	defaultIndent    = "  "
)

// Options configure formatter behavior.
type Options struct {
	LineWidth int
	Indent    string
	// Expand puts every element of a non-empty object or array on its own
	// line, the way the game writes generated data.
	Expand bool
}

// Result is the full-document formatting result.
type Result struct {
	Output      []byte
	Changed     bool
	Diagnostics []diag.Diagnostic
}

// RangeResult is the range-formatting result.
type RangeResult struct {
	Edits       []text.ByteEdit
	Diagnostics []diag.Diagnostic
}

// UnsafeReason identifies why a request was refused as unsafe.
type UnsafeReason string

const (
	// UnsafeReasonInvalidUTF8 indicates invalid UTF-8 bytes in the source input.
	UnsafeReasonInvalidUTF8 UnsafeReason = "invalid_utf8"
	// UnsafeReasonSyntaxErrors indicates refusal due to tokenizer or parser errors.
	UnsafeReasonSyntaxErrors UnsafeReason = "syntax_errors"
)

// ErrUnsafeToFormat is returned when formatting is refused due to unsafe input state.
type ErrUnsafeToFormat struct {
	Reason  UnsafeReason
	Message string
}

func (e *ErrUnsafeToFormat) Error() string {
	if e == nil {
		return "unsafe to format"
	}
	if e.Message == "" {
		return fmt.Sprintf("unsafe to format (%s)", e.Reason)
	}
	return fmt.Sprintf("unsafe to format (%s): %s", e.Reason, e.Message)
}

// IsErrUnsafeToFormat reports whether err is a formatter safety refusal.
func IsErrUnsafeToFormat(err error) bool {
	var target *ErrUnsafeToFormat
	return errors.As(err, &target)
}

func normalizeOptions(opts Options) (Options, error) {
	if opts.LineWidth < 0 {
		return Options{}, fmt.Errorf("invalid LineWidth %d", opts.LineWidth)
	}
	for _, r := range opts.Indent {
		if r != ' ' && r != '\t' {
			return Options{}, fmt.Errorf("invalid Indent %q", opts.Indent)
		}
	}
	if opts.LineWidth == 0 {
		opts.LineWidth = defaultLineWidth
	}
	if opts.Indent == "" {
		opts.Indent = defaultIndent
	}
	return opts, nil
}
