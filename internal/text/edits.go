package text

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
)

// ByteEdit replaces the bytes in [Start, End) with NewText.
type ByteEdit struct {
	Start   ByteOffset
	End     ByteOffset
	NewText []byte
}

func (e ByteEdit) validate() error {
	if !e.Start.IsValid() || !e.End.IsValid() {
		return fmt.Errorf("invalid edit bounds [%d,%d)", e.Start, e.End)
	}
	if e.End < e.Start {
		return fmt.Errorf("invalid edit bounds: end (%d) < start (%d)", e.End, e.Start)
	}
	return nil
}

// ValidateEdits validates edit spans against a source length and checks overlap.
// Touching spans are allowed.
func ValidateEdits(srcLen ByteOffset, edits []ByteEdit) error {
	_, err := validatedSortedEdits(srcLen, edits)
	return err
}

// ApplyEdits applies non-overlapping byte edits and returns the updated buffer.
// Edits may be provided in any order.
func ApplyEdits(src []byte, edits []ByteEdit) ([]byte, error) {
	if len(edits) == 0 {
		return slices.Clone(src), nil
	}

	sorted, err := validatedSortedEdits(ByteOffset(len(src)), edits)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	cursor := ByteOffset(0)
	for _, e := range sorted {
		out.Write(src[cursor:e.Start])
		out.Write(e.NewText)
		cursor = e.End
	}
	out.Write(src[cursor:])
	return out.Bytes(), nil
}

func validatedSortedEdits(srcLen ByteOffset, edits []ByteEdit) ([]ByteEdit, error) {
	if !srcLen.IsValid() {
		return nil, fmt.Errorf("invalid source length: %d", srcLen)
	}
	for _, e := range edits {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if e.End > srcLen {
			return nil, fmt.Errorf("edit [%d,%d) exceeds source length %d", e.Start, e.End, srcLen)
		}
	}

	sorted := sortByteEdits(edits)

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		cur := sorted[i]
		if cur.Start < prev.End {
			return nil, fmt.Errorf("overlapping edits: [%d,%d) and [%d,%d)", prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return sorted, nil
}

func sortByteEdits(edits []ByteEdit) []ByteEdit {
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, compareByteEdits)
	return sorted
}

func compareByteEdits(a, b ByteEdit) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}
