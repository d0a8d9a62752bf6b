// Package diag defines the diagnostic shape shared by every language front end.
package diag

import (
	"fmt"
	"sort"

	"github.com/mcdatapack/dpe/internal/text"
)

// Severity is a diagnostic severity level.
type Severity uint8

const (
	// SeverityError indicates an error diagnostic.
	SeverityError Severity = iota + 1
	// SeverityWarning indicates a warning diagnostic.
	SeverityWarning
	// SeverityInfo indicates an informational diagnostic.
	SeverityInfo
	// SeverityHint indicates a hint diagnostic.
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// ParseSeverity parses the lowercase severity name.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "hint":
		return SeverityHint, true
	default:
		return 0, false
	}
}

// Code identifies a diagnostic kind.
type Code string

// Tokenizer diagnostics.
const (
	CodeIllegalCharacters  Code = "LEX_ILLEGAL_CHARACTERS"
	CodeUnknownLiteral     Code = "LEX_UNKNOWN_LITERAL"
	CodeInvalidNumber      Code = "LEX_INVALID_NUMBER"
	CodeUnterminatedString Code = "LEX_UNTERMINATED_STRING"
	CodeIncompleteEscape   Code = "LEX_INCOMPLETE_ESCAPE"
	CodeSingleQuote        Code = "LEX_SINGLE_QUOTE"
)

// Parser diagnostics.
const (
	CodeUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeUnexpectedEOF   Code = "PARSE_UNEXPECTED_EOF"
	CodeInvalidEscape   Code = "PARSE_INVALID_ESCAPE"
	CodeInvalidValue    Code = "PARSE_INVALID_VALUE"
	CodeTrailingData    Code = "PARSE_TRAILING_DATA"
)

// Semantic diagnostics.
const (
	CodeTypeMismatch       Code = "SEM_TYPE_MISMATCH"
	CodeOutOfBounds        Code = "SEM_OUT_OF_BOUNDS"
	CodeDuplicateProperty  Code = "SEM_DUPLICATE_PROPERTY"
	CodeUnknownProperty    Code = "SEM_UNKNOWN_PROPERTY"
	CodeMissingProperty    Code = "SEM_MISSING_PROPERTY"
	CodeUnresolved         Code = "SEM_UNRESOLVED_REFERENCE"
	CodeInvalidArgument    Code = "SEM_INVALID_ARGUMENT"
	CodeDeprecated         Code = "SEM_DEPRECATED"
	CodeCyclicEmbedding    Code = "SEM_CYCLIC_EMBEDDING"
	CodeInternalWrapped    Code = "INTERNAL_WRAPPED_ERROR"
	CodeUnsupportedContext Code = "SEM_UNSUPPORTED_CONTEXT"
	CodeInvalidSchema      Code = "SEM_INVALID_SCHEMA"
)

// Diagnostic is a span-anchored issue. Message is markdown.
type Diagnostic struct {
	Code     Code
	Message  string
	Severity Severity
	Span     text.Span
	Source   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s [%s]", d.Span.Start.Line+1, d.Span.Start.Column+1, d.Severity, d.Message, d.Code)
}

// Errorf builds an error diagnostic.
func Errorf(code Code, span text.Span, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityError, Span: span}
}

// Warningf builds a warning diagnostic.
func Warningf(code Code, span text.Span, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning, Span: span}
}

// Wrap converts an unexpected failure into a single diagnostic that carries
// the original message.
func Wrap(v any, span text.Span) Diagnostic {
	msg := fmt.Sprint(v)
	if err, ok := v.(error); ok {
		msg = err.Error()
	}
	return Diagnostic{
		Code:     CodeInternalWrapped,
		Message:  "internal error: " + msg,
		Severity: SeverityError,
		Span:     span,
	}
}

// List accumulates diagnostics in emission order.
type List []Diagnostic

// Add appends diagnostics.
func (l *List) Add(ds ...Diagnostic) {
	*l = append(*l, ds...)
}

// Errorf appends an error diagnostic.
func (l *List) Errorf(code Code, span text.Span, format string, args ...any) {
	l.Add(Errorf(code, span, format, args...))
}

// Warningf appends a warning diagnostic.
func (l *List) Warningf(code Code, span text.Span, format string, args ...any) {
	l.Add(Warningf(code, span, format, args...))
}

// Len returns the number of collected diagnostics.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(*l)
}

// HasErrors reports whether any collected diagnostic is an error.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// WithSource fills in Source on diagnostics that do not carry one.
func WithSource(ds []Diagnostic, source string) []Diagnostic {
	for i := range ds {
		if ds[i].Source == "" {
			ds[i].Source = source
		}
	}
	return ds
}

// Sort orders diagnostics deterministically for stable output.
func Sort(ds []Diagnostic) {
	if len(ds) < 2 {
		return
	}

	sort.SliceStable(ds, func(i, j int) bool {
		a := ds[i]
		b := ds[j]
		if a.Span.Start.Index != b.Span.Start.Index {
			return a.Span.Start.Index < b.Span.Start.Index
		}
		if a.Span.End.Index != b.Span.End.Index {
			return a.Span.End.Index < b.Span.End.Index
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}
