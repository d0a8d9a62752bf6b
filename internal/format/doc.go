package format

import (
	"bytes"
	"fmt"
	"strings"
)

type docKind uint8

const (
	docEmpty docKind = iota
	docText
	docLine
	docSoftLine
	docSoftBreak
	docConcat
	docIndent
	docGroup
)

// Doc is a printer document node.
type Doc struct {
	kind  docKind
	text  string
	child *Doc
	list  []Doc
}

// Empty returns an empty document.
func Empty() Doc { return Doc{kind: docEmpty} }

// Text returns a text document.
func Text(s string) Doc {
	if s == "" {
		return Empty()
	}
	return Doc{kind: docText, text: s}
}

// Line returns a hard line break document.
func Line() Doc { return Doc{kind: docLine} }

// SoftLine returns a breakable line that renders as a space when flattened.
func SoftLine() Doc { return Doc{kind: docSoftLine} }

// SoftBreak returns a breakable line that renders as nothing when flattened.
func SoftBreak() Doc { return Doc{kind: docSoftBreak} }

// Concat concatenates documents in order.
func Concat(parts ...Doc) Doc {
	filtered := make([]Doc, 0, len(parts))
	for _, p := range parts {
		switch p.kind {
		case docEmpty:
		case docConcat:
			filtered = append(filtered, p.list...)
		default:
			filtered = append(filtered, p)
		}
	}
	switch len(filtered) {
	case 0:
		return Empty()
	case 1:
		return filtered[0]
	default:
		return Doc{kind: docConcat, list: filtered}
	}
}

// Join concatenates docs with sep between neighbours.
func Join(sep Doc, docs []Doc) Doc {
	parts := make([]Doc, 0, 2*len(docs))
	for i, d := range docs {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, d)
	}
	return Concat(parts...)
}

// Indent increases indentation for nested line breaks.
func Indent(doc Doc) Doc {
	if doc.kind == docEmpty {
		return doc
	}
	return Doc{kind: docIndent, child: &doc}
}

// Group renders doc on one line when it fits and breaks its soft lines
// otherwise.
func Group(doc Doc) Doc {
	if doc.kind == docEmpty {
		return doc
	}
	return Doc{kind: docGroup, child: &doc}
}

// RenderOptions configure doc rendering.
type RenderOptions struct {
	LineWidth int
	Indent    string
	Newline   string
	// BaseIndent is the indentation level of the first line break.
	BaseIndent int
	// StartColumn is the column the first byte is written at.
	StartColumn int
}

type renderMode uint8

const (
	modeBreak renderMode = iota
	modeFlat
)

type renderFrame struct {
	indent int
	mode   renderMode
	doc    Doc
}

// Render renders doc into bytes using width-aware grouping.
func Render(doc Doc, opts RenderOptions) ([]byte, error) {
	norm, err := normalizeRenderOptions(opts)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	column := norm.StartColumn
	stack := []renderFrame{{indent: norm.BaseIndent, mode: modeBreak, doc: doc}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.doc.kind {
		case docEmpty:
			continue
		case docText:
			out.WriteString(f.doc.text)
			column += len(f.doc.text)
		case docLine:
			column = writeLineBreak(&out, norm, f.indent)
		case docSoftLine, docSoftBreak:
			if f.mode == modeFlat {
				if f.doc.kind == docSoftLine {
					out.WriteByte(' ')
					column++
				}
				continue
			}
			column = writeLineBreak(&out, norm, f.indent)
		case docConcat:
			pushConcat(&stack, f.indent, f.mode, f.doc.list)
		case docIndent:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent + 1, mode: f.mode, doc: *f.doc.child})
			}
		case docGroup:
			if f.doc.child == nil {
				continue
			}
			child := *f.doc.child
			mode := f.mode
			if mode == modeBreak && fits(norm.LineWidth-column, stack, renderFrame{indent: f.indent, mode: modeFlat, doc: child}) {
				mode = modeFlat
			}
			stack = append(stack, renderFrame{indent: f.indent, mode: mode, doc: child})
		default:
			return nil, fmt.Errorf("unknown doc kind %d", f.doc.kind)
		}
	}

	return out.Bytes(), nil
}

func normalizeRenderOptions(opts RenderOptions) (RenderOptions, error) {
	base, err := normalizeOptions(Options{
		LineWidth: opts.LineWidth,
		Indent:    opts.Indent,
	})
	if err != nil {
		return RenderOptions{}, err
	}
	if opts.Newline == "" {
		opts.Newline = "\n"
	}
	if opts.Newline != "\n" && opts.Newline != "\r\n" {
		return RenderOptions{}, fmt.Errorf("invalid newline %q", opts.Newline)
	}
	if opts.BaseIndent < 0 || opts.StartColumn < 0 {
		return RenderOptions{}, fmt.Errorf("invalid start %d:%d", opts.BaseIndent, opts.StartColumn)
	}
	opts.LineWidth = base.LineWidth
	opts.Indent = base.Indent
	return opts, nil
}

func writeLineBreak(out *bytes.Buffer, opts RenderOptions, indentLevel int) int {
	out.WriteString(opts.Newline)
	out.WriteString(strings.Repeat(opts.Indent, indentLevel))
	return indentLevel * len(opts.Indent)
}

func pushConcat(stack *[]renderFrame, indent int, mode renderMode, list []Doc) {
	for i := len(list) - 1; i >= 0; i-- {
		*stack = append(*stack, renderFrame{indent: indent, mode: mode, doc: list[i]})
	}
}

// fits reports whether first and the rest of the line after it fit in width.
func fits(width int, tail []renderFrame, first renderFrame) bool {
	if width < 0 {
		return false
	}
	stack := make([]renderFrame, 0, len(tail)+1)
	stack = append(stack, tail...)
	stack = append(stack, first)

	for len(stack) > 0 {
		if width < 0 {
			return false
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.doc.kind {
		case docEmpty:
			continue
		case docText:
			width -= len(f.doc.text)
		case docLine:
			return true
		case docSoftLine, docSoftBreak:
			if f.mode == modeBreak {
				return true
			}
			if f.doc.kind == docSoftLine {
				width--
			}
		case docConcat:
			pushConcat(&stack, f.indent, f.mode, f.doc.list)
		case docIndent:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent + 1, mode: f.mode, doc: *f.doc.child})
			}
		case docGroup:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent, mode: modeFlat, doc: *f.doc.child})
			}
		}
	}

	return width >= 0
}
