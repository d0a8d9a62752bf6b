package lsp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mcdatapack/dpe/internal/format"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	itext "github.com/mcdatapack/dpe/internal/text"
)

const utf8BOM = "\xEF\xBB\xBF"

// Formatting handles textDocument/formatting. Only JSON documents are
// formatted; other languages get no edits.
func (s *Server) Formatting(ctx context.Context, p DocumentFormattingParams) ([]TextEdit, error) {
	snap, err := s.formattingSnapshot(ctx, p.TextDocument.URI, p.Version)
	if err != nil || !formattable(snap) {
		return []TextEdit{}, err
	}
	opts, err := s.formattingOptions(p.Options)
	if err != nil {
		return nil, err
	}
	res, err := format.Source(ctx, snap.Source, opts)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return []TextEdit{}, nil
	}
	rng, ok := lspRange(snap.Lines, itext.Span{End: itext.Position{Index: snap.Lines.SourceLen()}})
	if !ok {
		return nil, fmt.Errorf("%w: document range", ErrInvalidPosition)
	}
	return []TextEdit{{Range: rng, NewText: string(res.Output)}}, nil
}

// RangeFormatting handles textDocument/rangeFormatting. The range widens to
// the innermost enclosing object or array.
func (s *Server) RangeFormatting(ctx context.Context, p DocumentRangeFormattingParams) ([]TextEdit, error) {
	snap, err := s.formattingSnapshot(ctx, p.TextDocument.URI, p.Version)
	if err != nil || !formattable(snap) {
		return []TextEdit{}, err
	}
	opts, err := s.formattingOptions(p.Options)
	if err != nil {
		return nil, err
	}
	start, err := snap.Lines.UTF16PositionToOffset(itext.UTF16Position{Line: p.Range.Start.Line, Character: p.Range.Start.Character})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	end, err := snap.Lines.UTF16PositionToOffset(itext.UTF16Position{Line: p.Range.End.Line, Character: p.Range.End.Character})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	// The tree is rebuilt here so errors inside embedded commands do not
	// block formatting the JSON around them.
	body, hasBOM := bytes.CutPrefix(snap.Source, []byte(utf8BOM))
	var shift itext.ByteOffset
	if hasBOM {
		shift = itext.ByteOffset(len(utf8BOM))
	}
	root, diags := jsonlang.Parse(body, nil)
	res, err := format.Range(ctx, root, body, diags, itext.Span{
		Start: itext.Position{Index: max(start-shift, 0)},
		End:   itext.Position{Index: max(end-shift, 0)},
	}, opts)
	if err != nil {
		return nil, err
	}

	out := make([]TextEdit, 0, len(res.Edits))
	for _, e := range res.Edits {
		rng, ok := lspRange(snap.Lines, itext.Span{
			Start: itext.Position{Index: e.Start + shift},
			End:   itext.Position{Index: e.End + shift},
		})
		if !ok {
			return nil, fmt.Errorf("%w: edit %d:%d", ErrInvalidPosition, e.Start, e.End)
		}
		out = append(out, TextEdit{Range: rng, NewText: string(e.NewText)})
	}
	return out, nil
}

func (s *Server) formattingSnapshot(ctx context.Context, uri string, version *int32) (*Snapshot, error) {
	snap, err := s.querySnapshot(ctx, uri)
	if err != nil {
		return nil, err
	}
	if version != nil && *version != snap.Version {
		return nil, ErrStaleVersion
	}
	return snap, nil
}

func formattable(snap *Snapshot) bool {
	return snap != nil && snap.Document != nil && snap.Document.Language == jsonlang.Language
}

// formattingOptions merges the project [format] section with the editor
// options. Project settings win.
func (s *Server) formattingOptions(o FormattingOptions) (format.Options, error) {
	proj, _, err := s.workspace()
	if err != nil {
		return format.Options{}, err
	}
	cfg := proj.Config.Format
	opts := format.Options{
		LineWidth: cfg.LineWidth,
		Indent:    cfg.Indent,
		Expand:    cfg.Expand,
	}
	if opts.Indent == "" {
		switch {
		case !o.InsertSpaces && o.TabSize > 0:
			opts.Indent = "\t"
		case o.TabSize > 0:
			opts.Indent = strings.Repeat(" ", o.TabSize)
		}
	}
	return opts, nil
}
