package text

import (
	"fmt"
	"slices"
)

// IndexBreak records that decoded offset Decoded corresponds to encoded
// offset Encoded. Offsets between two breaks advance one-to-one unless the
// region between them is an escape sequence.
type IndexBreak struct {
	Encoded int
	Decoded int
}

// IndexMapper maps between offsets in a decoded (unescaped) string and the
// encoded source bytes it was decoded from. Every escape sequence contributes
// a break at its start and at its end. IndexMapper is immutable after
// construction.
type IndexMapper struct {
	breaks []IndexBreak
}

// NewIndexMapper builds a mapper from breakpoints. Breaks must be sorted by
// both Encoded and Decoded offsets.
func NewIndexMapper(breaks []IndexBreak) (*IndexMapper, error) {
	for i := 1; i < len(breaks); i++ {
		if breaks[i].Encoded < breaks[i-1].Encoded || breaks[i].Decoded < breaks[i-1].Decoded {
			return nil, fmt.Errorf("index breaks out of order at %d", i)
		}
	}
	return &IndexMapper{breaks: slices.Clone(breaks)}, nil
}

// Breaks returns a copy of the mapper breakpoints.
func (m *IndexMapper) Breaks() []IndexBreak {
	if m == nil {
		return nil
	}
	return slices.Clone(m.breaks)
}

// ToEncoded converts a decoded offset into an encoded offset. A nil mapper is
// the identity.
func (m *IndexMapper) ToEncoded(decoded int) int {
	if m == nil || len(m.breaks) == 0 {
		return decoded
	}
	// largest i such that breaks[i].Decoded <= decoded
	i, found := slices.BinarySearchFunc(m.breaks, decoded, func(b IndexBreak, target int) int {
		return b.Decoded - target
	})
	if !found {
		i--
	}
	if i < 0 {
		return decoded
	}
	b := m.breaks[i]
	return b.Encoded + (decoded - b.Decoded)
}

// ToDecoded converts an encoded offset into a decoded offset. Offsets inside
// an escape sequence map to the start of the decoded text the escape produced.
func (m *IndexMapper) ToDecoded(encoded int) int {
	if m == nil || len(m.breaks) == 0 {
		return encoded
	}
	// largest i such that breaks[i].Encoded <= encoded
	i, found := slices.BinarySearchFunc(m.breaks, encoded, func(b IndexBreak, target int) int {
		return b.Encoded - target
	})
	if !found {
		i--
	}
	if i < 0 {
		return encoded
	}
	b := m.breaks[i]
	if i+1 < len(m.breaks) {
		n := m.breaks[i+1]
		if n.Encoded-b.Encoded != n.Decoded-b.Decoded {
			return b.Decoded
		}
	}
	return b.Decoded + (encoded - b.Encoded)
}

// IndexMapperBuilder collects breakpoints while a string literal is
// unescaped.
type IndexMapperBuilder struct {
	breaks []IndexBreak
}

// AddEscape records an escape sequence spanning encoded offsets
// [encStart, encEnd) that decoded into [decStart, decEnd).
func (b *IndexMapperBuilder) AddEscape(encStart, decStart, encEnd, decEnd int) {
	b.add(IndexBreak{Encoded: encStart, Decoded: decStart})
	b.add(IndexBreak{Encoded: encEnd, Decoded: decEnd})
}

func (b *IndexMapperBuilder) add(br IndexBreak) {
	if n := len(b.breaks); n > 0 && b.breaks[n-1] == br {
		return
	}
	b.breaks = append(b.breaks, br)
}

// Build returns the immutable mapper. It returns nil when no escape was
// recorded, which maps as the identity.
func (b *IndexMapperBuilder) Build() *IndexMapper {
	if len(b.breaks) == 0 {
		return nil
	}
	return &IndexMapper{breaks: slices.Clone(b.breaks)}
}
