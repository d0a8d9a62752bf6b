package lsp

import (
	"context"
	"fmt"
	"os"

	"github.com/mcdatapack/dpe/internal/lang"
	itext "github.com/mcdatapack/dpe/internal/text"
)

// Completion handles textDocument/completion.
func (s *Server) Completion(ctx context.Context, p CompletionParams) (CompletionList, error) {
	snap, pos, err := s.queryPosition(ctx, p.TextDocument.URI, p.Position)
	if err != nil {
		return CompletionList{}, err
	}
	list := CompletionList{Items: []CompletionItem{}}
	if snap.Document == nil {
		return list, nil
	}

	var rc lang.ReplaceContext
	values := snap.Document.Suggestions(pos, &rc)
	var edit *Range
	if rc.Span != (itext.Span{}) {
		if r, ok := lspRange(snap.Lines, rc.Span); ok {
			edit = &r
		}
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		item := CompletionItem{
			Label:    v,
			Kind:     CompletionItemKindValue,
			SortText: fmt.Sprintf("%05d", len(list.Items)),
		}
		if edit != nil {
			item.TextEdit = &TextEdit{Range: *edit, NewText: v}
		}
		list.Items = append(list.Items, item)
	}
	return list, nil
}

// Hover handles textDocument/hover. It returns nil when nothing under the
// cursor is documented.
func (s *Server) Hover(ctx context.Context, p HoverParams) (*Hover, error) {
	snap, pos, err := s.queryPosition(ctx, p.TextDocument.URI, p.Position)
	if err != nil {
		return nil, err
	}
	doc := snap.Document.Documentation(pos)
	if doc == "" {
		return nil, nil //nolint:nilnil // LSP encodes "no hover" as null.
	}
	return &Hover{Contents: MarkupContent{Kind: "markdown", Value: doc}}, nil
}

// Definition handles textDocument/definition.
func (s *Server) Definition(ctx context.Context, p DefinitionParams) ([]Location, error) {
	snap, pos, err := s.queryPosition(ctx, p.TextDocument.URI, p.Position)
	if err != nil {
		return nil, err
	}
	t, ok := snap.Document.OnIndicatorClicked(pos)
	if !ok {
		return []Location{}, nil
	}
	loc, err := s.targetLocation(t)
	if err != nil {
		return nil, err
	}
	return []Location{loc}, nil
}

// DocumentLink handles textDocument/documentLink. Every clickable range
// whose target resolves becomes a link.
func (s *Server) DocumentLink(ctx context.Context, p DocumentLinkParams) ([]DocumentLink, error) {
	snap, err := s.querySnapshot(ctx, p.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	out := []DocumentLink{}
	if snap.Document == nil {
		return out, nil
	}
	end, err := snap.Lines.OffsetToPosition(snap.Lines.SourceLen())
	if err != nil {
		return nil, err
	}
	for _, r := range snap.Document.ClickableRanges(itext.NewSpan(itext.Pos(0, 0, 0), end)) {
		// Nodes hold the positions after their start, so resolve one byte in.
		at := r.Start
		if !r.IsEmpty() {
			at = at.Shift(1)
		}
		t, ok := snap.Document.OnIndicatorClicked(at)
		if !ok {
			continue
		}
		rng, ok := lspRange(snap.Lines, r)
		if !ok {
			continue
		}
		loc, err := s.targetLocation(t)
		if err != nil {
			return nil, err
		}
		out = append(out, DocumentLink{Range: rng, Target: loc.URI})
	}
	return out, nil
}

func (s *Server) querySnapshot(ctx context.Context, uri string) (*Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := s.workspace(); err != nil {
		return nil, err
	}
	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	snap, ok := store.Snapshot(uri)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	return snap, nil
}

func (s *Server) queryPosition(ctx context.Context, uri string, p Position) (*Snapshot, itext.Position, error) {
	snap, err := s.querySnapshot(ctx, uri)
	if err != nil {
		return nil, itext.Position{}, err
	}
	pos, err := snap.Lines.UTF16ToPosition(itext.UTF16Position{Line: p.Line, Character: p.Character})
	if err != nil {
		return nil, itext.Position{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return snap, pos, nil
}

// targetLocation maps a navigation target to a client location. Targets
// name files relative to the datapack root or a schema directory.
func (s *Server) targetLocation(t lang.Target) (Location, error) {
	proj, _, err := s.workspace()
	if err != nil {
		return Location{}, err
	}
	file := proj.Locate(t.File)
	uri := PathToURI(file)

	var lines *itext.LineIndex
	if snap, ok := s.store.Snapshot(uri); ok {
		lines = snap.Lines
	} else if src, err := os.ReadFile(file); err == nil {
		lines = itext.NewLineIndex(src)
	}
	rng, ok := lspRange(lines, t.Span)
	if !ok {
		rng = Range{
			Start: Position{Line: t.Span.Start.Line, Character: t.Span.Start.Column},
			End:   Position{Line: t.Span.End.Line, Character: t.Span.End.Column},
		}
	}
	return Location{URI: uri, Range: rng}, nil
}

func lspDiagnostics(snap *Snapshot) []Diagnostic {
	out := make([]Diagnostic, 0, len(snap.Diagnostics))
	for _, d := range snap.Diagnostics {
		rng, _ := lspRange(snap.Lines, d.Span)
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: int(d.Severity),
			Code:     string(d.Code),
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	return out
}

func lspRange(li *itext.LineIndex, sp itext.Span) (Range, bool) {
	if li == nil {
		return Range{}, false
	}
	start := min(max(sp.Start.Index, 0), li.SourceLen())
	end := min(max(sp.End.Index, start), li.SourceLen())
	s, err := li.OffsetToUTF16Position(start)
	if err != nil {
		return Range{}, false
	}
	e, err := li.OffsetToUTF16Position(end)
	if err != nil {
		return Range{}, false
	}
	return Range{
		Start: Position{Line: s.Line, Character: s.Character},
		End:   Position{Line: e.Line, Character: e.Character},
	}, true
}
