package text

import "testing"

func col(c int) Position { return Position{Line: 0, Column: c, Index: ByteOffset(c)} }

func sp(start, end int) Span { return Span{Start: col(start), End: col(end)} }

func TestPositionOrderingIgnoresIndex(t *testing.T) {
	t.Parallel()

	a := Position{Line: 1, Column: 4, Index: 100}
	b := Position{Line: 1, Column: 4, Index: 7}
	if a.Compare(b) != 0 {
		t.Fatalf("Compare(%s, %s) = %d, want 0", a, b, a.Compare(b))
	}
	if !(Position{Line: 0, Column: 9}).Before(Position{Line: 1, Column: 0}) {
		t.Fatal("earlier line must sort first")
	}
	if !(Position{Line: 2, Column: 3}).After(Position{Line: 2, Column: 1}) {
		t.Fatal("later column must sort after")
	}
}

func TestSpanValidity(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		span  Span
		valid bool
	}{
		"valid":            {span: sp(0, 1), valid: true},
		"empty valid":      {span: sp(3, 3), valid: true},
		"end before start": {span: sp(5, 4), valid: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.span.IsValid(); got != tc.valid {
				t.Fatalf("IsValid() = %v, want %v", got, tc.valid)
			}
		})
	}
}

func TestSpanContainsHalfOpen(t *testing.T) {
	t.Parallel()

	s := sp(2, 5) // [2,5)
	if !s.Contains(col(2)) {
		t.Fatal("expected start boundary to be included")
	}
	if !s.Contains(col(4)) {
		t.Fatal("expected interior offset to be included")
	}
	if s.Contains(col(5)) {
		t.Fatal("expected end boundary to be excluded")
	}
	if !s.ContainsInclusive(col(5)) {
		t.Fatal("expected end boundary to be included by ContainsInclusive")
	}
	if s.Contains(col(1)) {
		t.Fatal("expected offset before start to be excluded")
	}
}

func TestSpanEmptyContainsNothing(t *testing.T) {
	t.Parallel()

	s := sp(7, 7)
	if !s.IsEmpty() {
		t.Fatal("expected empty span")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	if s.Contains(col(7)) {
		t.Fatal("empty span should not contain positions")
	}
}

func TestSpanContainsSpanAndOverlapsHalfOpen(t *testing.T) {
	t.Parallel()

	base := sp(10, 20)
	inside := sp(12, 18)
	touchLeft := sp(5, 10)
	touchRight := sp(20, 25)
	overlap := sp(19, 25)

	if !base.ContainsSpan(inside) {
		t.Fatal("expected contained span")
	}
	if base.ContainsSpan(touchLeft) {
		t.Fatal("did not expect touchLeft to be contained")
	}
	if base.Overlaps(touchLeft) {
		t.Fatal("touching left boundary should not overlap for half-open spans")
	}
	if base.Overlaps(touchRight) {
		t.Fatal("touching right boundary should not overlap for half-open spans")
	}
	if !base.Overlaps(overlap) {
		t.Fatal("expected overlapping span to overlap")
	}
}

func TestSpanSlice(t *testing.T) {
	t.Parallel()

	src := []byte("hello world")
	if got := string(sp(6, 11).Slice(src)); got != "world" {
		t.Fatalf("Slice() = %q, want %q", got, "world")
	}
	if got := sp(6, 40).Slice(src); got != nil {
		t.Fatalf("Slice() out of range = %q, want nil", got)
	}
}
