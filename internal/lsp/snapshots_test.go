package lsp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mcdatapack/dpe/internal/diag"
	itext "github.com/mcdatapack/dpe/internal/text"
)

func TestSnapshotStoreOpenChangeCloseLifecycle(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore(nil)
	uri := "file:///pack/data/demo/function/main.mcfunction"
	snap, err := store.Open(context.Background(), uri, 1, []byte("say hi\nsay a\n"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.Version != 1 || snap.Lines.LineCount() != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}

	next, err := store.Change(context.Background(), uri, 2, []TextDocumentContentChangeEvent{{
		Range: &Range{
			Start: Position{Line: 1, Character: 4},
			End:   Position{Line: 1, Character: 5},
		},
		Text: "b",
	}})
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if next.Version != 2 {
		t.Fatalf("version=%d, want 2", next.Version)
	}
	if got := string(next.Bytes()); got != "say hi\nsay b\n" {
		t.Fatalf("unexpected source after change: %q", got)
	}

	if _, err := store.Change(context.Background(), uri, 2, []TextDocumentContentChangeEvent{{Text: "say c\n"}}); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("stale version error = %v, want %v", err, ErrStaleVersion)
	}
	if _, err := store.SnapshotAtVersion(uri, 1); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("SnapshotAtVersion error = %v, want %v", err, ErrStaleVersion)
	}

	store.Close(uri)
	if _, ok := store.Snapshot(uri); ok {
		t.Fatal("expected snapshot removed after close")
	}
	if _, err := store.Change(context.Background(), uri, 3, nil); !errors.Is(err, ErrDocumentNotOpen) {
		t.Fatalf("change after close error = %v, want %v", err, ErrDocumentNotOpen)
	}
}

func TestSnapshotStoreRunsAnalysis(t *testing.T) {
	t.Parallel()

	calls := 0
	analyze := func(_ context.Context, uri string, src []byte) (Analysis, error) {
		calls++
		if strings.Contains(string(src), "boom") {
			return Analysis{}, errors.New("boom")
		}
		return Analysis{
			File:        strings.TrimPrefix(uri, "file://"),
			Diagnostics: []diag.Diagnostic{diag.Errorf(diag.CodeUnexpectedToken, itext.Span{}, "call %d", calls)},
		}, nil
	}
	store := NewSnapshotStore(analyze)
	uri := "file:///a.json"

	snap, err := store.Open(context.Background(), uri, 1, []byte("{}"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.File != "/a.json" || len(snap.Diagnostics) != 1 || snap.Diagnostics[0].Message != "call 1" {
		t.Fatalf("analysis = %+v", snap.Analysis)
	}

	if _, err := store.Change(context.Background(), uri, 2, []TextDocumentContentChangeEvent{{Text: "boom"}}); err == nil {
		t.Fatal("expected analysis error")
	}
	if cur, _ := store.Snapshot(uri); cur != snap {
		t.Fatal("failed change replaced the snapshot")
	}

	refreshed := store.Refresh(context.Background())
	if len(refreshed) != 1 || refreshed[0].Diagnostics[0].Message != "call 3" || refreshed[0].Version != 1 {
		t.Fatalf("Refresh() = %+v", refreshed)
	}
}

func TestSnapshotStoreRejectsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSnapshotStore(nil).Open(ctx, "file:///a.json", 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open error = %v, want %v", err, context.Canceled)
	}
}

func TestApplyContentChangesUsesUTF16Columns(t *testing.T) {
	t.Parallel()

	src := []byte("{\"name\": \"é😀x\"}")
	got, err := applyContentChanges(src, []TextDocumentContentChangeEvent{{
		Range: &Range{
			Start: Position{Line: 0, Character: 13},
			End:   Position{Line: 0, Character: 14},
		},
		Text: "y",
	}})
	if err != nil {
		t.Fatalf("applyContentChanges: %v", err)
	}
	if string(got) != "{\"name\": \"é😀y\"}" {
		t.Fatalf("result = %q", got)
	}

	if _, err := applyContentChanges(src, []TextDocumentContentChangeEvent{{
		Range: &Range{Start: Position{Line: 0, Character: 4}, End: Position{Line: 0, Character: 2}},
	}}); err == nil {
		t.Fatal("expected error for reversed range")
	}
}
