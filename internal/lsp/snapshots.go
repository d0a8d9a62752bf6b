package lsp

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	itext "github.com/mcdatapack/dpe/internal/text"
)

// Analysis is the result of analysing one document version.
type Analysis struct {
	// File is the filesystem path of the document.
	File string
	// Document is nil for files no language handles.
	Document    *lang.Document
	Diagnostics []diag.Diagnostic
}

// AnalyzeFunc analyses the source of uri.
type AnalyzeFunc func(ctx context.Context, uri string, src []byte) (Analysis, error)

// Snapshot is an immutable analysed document state.
type Snapshot struct {
	URI     string
	Version int32
	Source  []byte
	Lines   *itext.LineIndex
	Analysis
}

// Bytes returns a copy of the snapshot source bytes.
func (s *Snapshot) Bytes() []byte {
	if s == nil {
		return nil
	}
	return slices.Clone(s.Source)
}

// SnapshotStore stores versioned analysed documents.
type SnapshotStore struct {
	analyze AnalyzeFunc

	mu   sync.RWMutex
	docs map[string]*Snapshot
}

// NewSnapshotStore creates an empty snapshot store. analyze may be nil, in
// which case snapshots carry no analysis.
func NewSnapshotStore(analyze AnalyzeFunc) *SnapshotStore {
	return &SnapshotStore{analyze: analyze, docs: make(map[string]*Snapshot)}
}

// Open analyses and stores a document snapshot.
func (s *SnapshotStore) Open(ctx context.Context, uri string, version int32, src []byte) (*Snapshot, error) {
	if s == nil {
		return nil, errors.New("nil SnapshotStore")
	}
	snap, err := s.build(ctx, uri, version, src)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.docs[uri] = snap
	s.mu.Unlock()
	return snap, nil
}

// Change applies incremental LSP changes, reanalyses, and replaces the snapshot.
func (s *SnapshotStore) Change(ctx context.Context, uri string, version int32, changes []TextDocumentContentChangeEvent) (*Snapshot, error) {
	if s == nil {
		return nil, errors.New("nil SnapshotStore")
	}
	s.mu.RLock()
	cur, ok := s.docs[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	if version <= cur.Version {
		return nil, ErrStaleVersion
	}

	nextSrc, err := applyContentChanges(cur.Source, changes)
	if err != nil {
		return nil, err
	}
	next, err := s.build(ctx, uri, version, nextSrc)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest, ok := s.docs[uri]; !ok || latest.Version >= version {
		return nil, ErrStaleVersion
	}
	s.docs[uri] = next
	return next, nil
}

// Refresh reanalyses every open document, for example after the project
// was reloaded. Documents that fail to analyse keep their snapshot.
func (s *SnapshotStore) Refresh(ctx context.Context) []*Snapshot {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	cur := make([]*Snapshot, 0, len(s.docs))
	for _, snap := range s.docs {
		cur = append(cur, snap)
	}
	s.mu.RUnlock()
	slices.SortFunc(cur, func(a, b *Snapshot) int { return cmp.Compare(a.URI, b.URI) })

	out := make([]*Snapshot, 0, len(cur))
	for _, old := range cur {
		next, err := s.build(ctx, old.URI, old.Version, old.Source)
		if err != nil {
			continue
		}
		s.mu.Lock()
		if latest, ok := s.docs[old.URI]; ok && latest == old {
			s.docs[old.URI] = next
			out = append(out, next)
		}
		s.mu.Unlock()
	}
	return out
}

// Close removes a tracked document snapshot.
func (s *SnapshotStore) Close(uri string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Snapshot returns the current snapshot for uri.
func (s *SnapshotStore) Snapshot(uri string) (*Snapshot, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.docs[uri]
	return snap, ok
}

// SnapshotAtVersion returns the current snapshot if the version matches exactly.
func (s *SnapshotStore) SnapshotAtVersion(uri string, version int32) (*Snapshot, error) {
	snap, ok := s.Snapshot(uri)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	if snap.Version != version {
		return nil, ErrStaleVersion
	}
	return snap, nil
}

func (s *SnapshotStore) build(ctx context.Context, uri string, version int32, src []byte) (*Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := &Snapshot{URI: uri, Version: version, Source: src, Lines: itext.NewLineIndex(src)}
	if s.analyze != nil {
		a, err := s.analyze(ctx, uri, src)
		if err != nil {
			return nil, err
		}
		snap.Analysis = a
	}
	return snap, nil
}

func applyContentChanges(src []byte, changes []TextDocumentContentChangeEvent) ([]byte, error) {
	if len(changes) == 0 {
		return slices.Clone(src), nil
	}
	cur := slices.Clone(src)
	for _, ch := range changes {
		if ch.Range == nil {
			cur = []byte(ch.Text)
			continue
		}
		li := itext.NewLineIndex(cur)
		start, err := li.UTF16PositionToOffset(itext.UTF16Position{Line: ch.Range.Start.Line, Character: ch.Range.Start.Character})
		if err != nil {
			return nil, fmt.Errorf("change range start: %w", err)
		}
		end, err := li.UTF16PositionToOffset(itext.UTF16Position{Line: ch.Range.End.Line, Character: ch.Range.End.Character})
		if err != nil {
			return nil, fmt.Errorf("change range end: %w", err)
		}
		if end < start {
			return nil, errors.New("change range end before start")
		}
		cur, err = itext.ApplyEdits(cur, []itext.ByteEdit{{
			Start:   start,
			End:     end,
			NewText: []byte(ch.Text),
		}})
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
