package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/text"
)

// Document formats the JSON tree root parsed from src. diags are the
// tokenizer and parser diagnostics of that parse; any error among them
// refuses formatting.
func Document(ctx context.Context, root jsonlang.Node, src []byte, diags []diag.Diagnostic, opts Options) (Result, error) {
	normOpts, policy, outDiags, err := prepareFormatting(ctx, root, src, diags, opts)
	if err != nil {
		return Result{Diagnostics: outDiags}, err
	}

	out, err := renderNode(root, src, normOpts, policy, 0, 0)
	if err != nil {
		return Result{Diagnostics: outDiags}, err
	}
	out = append(out, policy.Newline...)
	if policy.HasBOM {
		out = append([]byte(utf8BOM), out...)
	}
	return Result{
		Output:      out,
		Changed:     !bytes.Equal(out, src),
		Diagnostics: outDiags,
	}, nil
}

// Source parses and formats src in one step. A leading byte order mark is
// kept.
func Source(ctx context.Context, src []byte, opts Options) (Result, error) {
	body, bom := bytes.CutPrefix(src, []byte(utf8BOM))
	root, diags := jsonlang.Parse(body, nil)
	res, err := Document(ctx, root, body, diags, opts)
	if err != nil || !bom {
		return res, err
	}
	res.Output = append([]byte(utf8BOM), res.Output...)
	res.Changed = !bytes.Equal(res.Output, src)
	return res, nil
}

// Range formats the smallest object or array enclosing r and returns the
// replacement as a byte edit. A range only the root encloses formats the
// whole document.
func Range(ctx context.Context, root jsonlang.Node, src []byte, diags []diag.Diagnostic, r text.Span, opts Options) (RangeResult, error) {
	normOpts, policy, outDiags, err := prepareFormatting(ctx, root, src, diags, opts)
	if err != nil {
		return RangeResult{Diagnostics: outDiags}, err
	}
	if r.Start.Index < 0 || r.End.Index < r.Start.Index || r.End.Index > text.ByteOffset(len(src)) {
		return RangeResult{Diagnostics: outDiags}, fmt.Errorf("range %d:%d out of bounds for source length %d", r.Start.Index, r.End.Index, len(src))
	}

	target, depth := rangeAncestor(root, r)
	if target == root {
		res, err := Document(ctx, root, src, diags, opts)
		if err != nil || !res.Changed {
			return RangeResult{Diagnostics: res.Diagnostics}, err
		}
		return RangeResult{
			Edits:       []text.ByteEdit{{Start: 0, End: text.ByteOffset(len(src)), NewText: res.Output}},
			Diagnostics: res.Diagnostics,
		}, nil
	}

	sp := target.Span()
	out, err := renderNode(target, src, normOpts, policy, depth, columnAt(src, sp.Start.Index))
	if err != nil {
		return RangeResult{Diagnostics: outDiags}, err
	}
	if bytes.Equal(out, src[sp.Start.Index:sp.End.Index]) {
		return RangeResult{Diagnostics: outDiags}, nil
	}
	return RangeResult{
		Edits:       []text.ByteEdit{{Start: sp.Start.Index, End: sp.End.Index, NewText: out}},
		Diagnostics: outDiags,
	}, nil
}

// rangeAncestor returns the innermost container whose span covers r and its
// nesting depth. The root is returned when no nested container covers r.
func rangeAncestor(root jsonlang.Node, r text.Span) (jsonlang.Node, int) {
	best, depth := root, 0
	var walk func(n lang.Node, d int)
	walk = func(n lang.Node, d int) {
		for _, c := range n.Children() {
			if c == nil {
				continue
			}
			sp := c.Span()
			if sp.Start.Index > r.Start.Index || sp.End.Index < r.End.Index {
				continue
			}
			if jn, ok := c.(jsonlang.Node); ok && (jn.Kind() == jsonlang.KindObject || jn.Kind() == jsonlang.KindArray) {
				best, depth = jn, d
			}
			next := d
			if _, ok := c.(*jsonlang.Property); !ok {
				next++
			}
			walk(c, next)
			return
		}
	}
	walk(root, 1)
	return best, depth
}

func renderNode(n jsonlang.Node, src []byte, opts Options, policy SourcePolicy, indent, column int) ([]byte, error) {
	p := &printer{src: src, expand: opts.Expand}
	doc, err := p.node(n)
	if err != nil {
		return nil, err
	}
	return Render(doc, RenderOptions{
		LineWidth:   opts.LineWidth,
		Indent:      opts.Indent,
		Newline:     policy.Newline,
		BaseIndent:  indent,
		StartColumn: column,
	})
}

func prepareFormatting(ctx context.Context, root jsonlang.Node, src []byte, diags []diag.Diagnostic, opts Options) (Options, SourcePolicy, []diag.Diagnostic, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Options{}, SourcePolicy{}, nil, err
	}

	normOpts, err := normalizeOptions(opts)
	if err != nil {
		return Options{}, SourcePolicy{}, nil, err
	}

	out := append([]diag.Diagnostic(nil), diags...)
	policy, policyDiags := analyzeSourcePolicy(src)
	out = append(out, policyDiags...)

	switch {
	case !policy.ValidUTF8:
		return normOpts, policy, out, unsafeFormattingErr(UnsafeReasonInvalidUTF8, "input contains invalid UTF-8 bytes")
	case root == nil:
		return normOpts, policy, out, errors.New("nil document root")
	case diag.HasErrors(diags):
		return normOpts, policy, out, unsafeFormattingErr(UnsafeReasonSyntaxErrors, "tokenizer or parser errors present")
	default:
		return normOpts, policy, out, nil
	}
}

func unsafeFormattingErr(reason UnsafeReason, msg string) *ErrUnsafeToFormat {
	return &ErrUnsafeToFormat{
		Reason:  reason,
		Message: msg,
	}
}
