package lsp

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"

	"github.com/mcdatapack/dpe/internal/style"
	itext "github.com/mcdatapack/dpe/internal/text"
)

var (
	semanticTokenTypes = []string{
		"comment",
		"string",
		"number",
		"keyword",
		"type",
		"function",
		"property",
		"variable",
	}
	semanticTokenModifiers = []string{}
	semanticTokenTypeIndex = indexStringsUint32(semanticTokenTypes)
)

type semanticAbsToken struct {
	line      uint32
	startChar uint32
	length    uint32
	tokenType uint32
	modBits   uint32
}

func semanticTokenLegendTypes() []string {
	return slices.Clone(semanticTokenTypes)
}

func semanticTokenLegendModifiers() []string {
	return slices.Clone(semanticTokenModifiers)
}

// SemanticTokensFull handles textDocument/semanticTokens/full.
func (s *Server) SemanticTokensFull(ctx context.Context, p SemanticTokensParams) (SemanticTokens, error) {
	snap, err := s.querySnapshot(ctx, p.TextDocument.URI)
	if err != nil {
		return SemanticTokens{}, err
	}
	space, err := s.styleSpace()
	if err != nil {
		return SemanticTokens{}, err
	}
	if snap.Document == nil {
		return SemanticTokens{Data: []uint32{}}, nil
	}
	return lspSemanticTokensFromRuns(snap, space, space.HighlightRoot(snap.Document))
}

func lspSemanticTokensFromRuns(snap *Snapshot, space *style.Space, runs []style.Run) (SemanticTokens, error) {
	if snap == nil || snap.Lines == nil {
		return SemanticTokens{}, errors.New("nil line index")
	}

	abs := make([]semanticAbsToken, 0, len(runs))
	for _, r := range runs {
		tokenType := space.Kind(r.Style).SemanticType()
		if tokenType == "" {
			continue
		}
		typeIdx, ok := semanticTokenTypeIndex[tokenType]
		if !ok {
			continue
		}
		segments, err := semanticLineSegments(snap.Source, r.Start, r.End)
		if err != nil {
			continue
		}
		for _, seg := range segments {
			if tok, ok := semanticTokenForRange(snap.Lines, seg[0], seg[1], typeIdx, 0); ok {
				abs = append(abs, tok)
			}
		}
	}
	if len(abs) == 0 {
		return SemanticTokens{Data: []uint32{}}, nil
	}

	sort.Slice(abs, func(i, j int) bool {
		if abs[i].line != abs[j].line {
			return abs[i].line < abs[j].line
		}
		return abs[i].startChar < abs[j].startChar
	})
	return SemanticTokens{Data: encodeSemanticTokens(abs)}, nil
}

func semanticTokenForRange(li *itext.LineIndex, startOff, endOff itext.ByteOffset, tokenType uint32, modBits uint32) (semanticAbsToken, bool) {
	if li == nil || !startOff.IsValid() || endOff <= startOff {
		return semanticAbsToken{}, false
	}
	start, err := li.OffsetToUTF16Position(startOff)
	if err != nil {
		return semanticAbsToken{}, false
	}
	end, err := li.OffsetToUTF16Position(endOff)
	if err != nil {
		return semanticAbsToken{}, false
	}
	if start.Line != end.Line || end.Character <= start.Character {
		return semanticAbsToken{}, false
	}

	line, ok := uint32FromNonNegativeInt(start.Line)
	if !ok {
		return semanticAbsToken{}, false
	}
	startChar, ok := uint32FromNonNegativeInt(start.Character)
	if !ok {
		return semanticAbsToken{}, false
	}
	length, ok := uint32FromNonNegativeInt(end.Character - start.Character)
	if !ok || length == 0 {
		return semanticAbsToken{}, false
	}

	return semanticAbsToken{
		line:      line,
		startChar: startChar,
		length:    length,
		tokenType: tokenType,
		modBits:   modBits,
	}, true
}

// semanticLineSegments splits [start, end) at line breaks; LSP tokens may
// not span lines.
func semanticLineSegments(src []byte, startOff, endOff itext.ByteOffset) ([][2]itext.ByteOffset, error) {
	start := int(startOff)
	end := int(endOff)
	if start < 0 || end < start || end > len(src) {
		return nil, errors.New("span out of bounds")
	}
	if start == end {
		return nil, nil
	}

	out := make([][2]itext.ByteOffset, 0, 2)
	segStart := start
	for i := start; i < end; i++ {
		if src[i] != '\n' {
			continue
		}
		segEnd := i
		if segEnd > segStart && src[segEnd-1] == '\r' {
			segEnd--
		}
		if segEnd > segStart {
			out = append(out, [2]itext.ByteOffset{itext.ByteOffset(segStart), itext.ByteOffset(segEnd)})
		}
		segStart = i + 1
	}
	if segStart < end {
		out = append(out, [2]itext.ByteOffset{itext.ByteOffset(segStart), itext.ByteOffset(end)})
	}
	return out, nil
}

func encodeSemanticTokens(tokens []semanticAbsToken) []uint32 {
	if len(tokens) == 0 {
		return []uint32{}
	}
	data := make([]uint32, 0, len(tokens)*5)
	var prevLine uint32
	var prevStart uint32
	for i, tok := range tokens {
		deltaLine := tok.line
		deltaStart := tok.startChar
		if i > 0 {
			deltaLine = tok.line - prevLine
			if deltaLine == 0 {
				deltaStart = tok.startChar - prevStart
			}
		}
		data = append(data, deltaLine, deltaStart, tok.length, tok.tokenType, tok.modBits)
		prevLine = tok.line
		prevStart = tok.startChar
	}
	return data
}

func indexStringsUint32(in []string) map[string]uint32 {
	out := make(map[string]uint32, len(in))
	for i, value := range in {
		idx, ok := uint32FromNonNegativeInt(i)
		if !ok {
			continue
		}
		out[value] = idx
	}
	return out
}

func uint32FromNonNegativeInt(v int) (uint32, bool) {
	if v < 0 || v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}
