// Package console renders diagnostics for terminals in the compiler style
// `file:line:col: severity: message`, followed by the offending source line.
package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/mcdatapack/dpe/internal/diag"
)

// Styles for different severities
var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	codeStyle = lipgloss.NewStyle().
			Faint(true)

	summaryStyle = lipgloss.NewStyle().
			Bold(true)
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ToRelativePath converts an absolute path to a relative path from the current working directory
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Printer writes diagnostics, styled when Color is set.
type Printer struct {
	w     io.Writer
	Color bool
}

// NewPrinter builds a printer that colours output when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, Color: IsTerminal(w)}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if p.Color {
		return s.Render(text)
	}
	return text
}

func (p *Printer) severityStyle(s diag.Severity) lipgloss.Style {
	switch s {
	case diag.SeverityError:
		return errorStyle
	case diag.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// Format renders one diagnostic of file. src, when non-nil, supplies the
// source line shown under the message.
func (p *Printer) Format(file string, src []byte, d diag.Diagnostic) string {
	var out strings.Builder

	start := d.Span.Start
	location := fmt.Sprintf("%s:%d:%d:", ToRelativePath(file), start.Line+1, start.Column+1)
	out.WriteString(p.style(filePathStyle, location))
	out.WriteString(" ")
	out.WriteString(p.style(p.severityStyle(d.Severity), d.Severity.String()+":"))
	out.WriteString(" ")
	out.WriteString(d.Message)
	if d.Code != "" {
		out.WriteString(" ")
		out.WriteString(p.style(codeStyle, "["+string(d.Code)+"]"))
	}
	out.WriteString("\n")

	if line, ok := sourceLine(src, d); ok {
		out.WriteString(p.renderContext(line, d))
	}
	return out.String()
}

func sourceLine(src []byte, d diag.Diagnostic) (string, bool) {
	if src == nil {
		return "", false
	}
	start := int(d.Span.Start.Index) - d.Span.Start.Column
	if start < 0 || start > len(src) {
		return "", false
	}
	line := src[start:]
	if i := strings.IndexAny(string(line), "\r\n"); i >= 0 {
		line = line[:i]
	}
	return string(line), true
}

// renderContext prints the source line with a caret run under the span.
func (p *Printer) renderContext(line string, d diag.Diagnostic) string {
	var out strings.Builder

	num := fmt.Sprintf("%d", d.Span.Start.Line+1)
	out.WriteString(p.style(lineNumberStyle, num))
	out.WriteString(" | ")
	out.WriteString(line)
	out.WriteString("\n")

	col := min(d.Span.Start.Column, len(line))
	width := 1
	if d.Span.End.Line == d.Span.Start.Line {
		width = max(1, min(d.Span.End.Column, len(line))-col)
	}
	out.WriteString(strings.Repeat(" ", len(num)+3+col))
	out.WriteString(p.style(p.severityStyle(d.Severity), "^"+strings.Repeat("~", width-1)))
	out.WriteString("\n")
	return out.String()
}

// Print writes every diagnostic of file.
func (p *Printer) Print(file string, src []byte, ds []diag.Diagnostic) error {
	for _, d := range ds {
		if _, err := io.WriteString(p.w, p.Format(file, src, d)); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes the closing "N errors, M warnings" line. Nothing is
// written when there are no diagnostics.
func (p *Printer) Summary(errors, warnings int) error {
	if errors == 0 && warnings == 0 {
		return nil
	}
	line := fmt.Sprintf("%s, %s", plural(errors, "error"), plural(warnings, "warning"))
	_, err := fmt.Fprintln(p.w, p.style(summaryStyle, line))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
