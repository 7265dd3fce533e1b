package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bionetlab/netcontrol/pkg/analysis"
)

// MemoryStore keeps snapshots and logs in process memory. Snapshots are
// replaced wholesale under the lock, so readers always see a complete
// snapshot, never a half-updated one.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]analysis.Snapshot
	logs      map[string][]analysis.LogEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]analysis.Snapshot),
		logs:      make(map[string][]analysis.LogEntry),
	}
}

// SaveProgress replaces the stored snapshot for the analysis
func (s *MemoryStore) SaveProgress(ctx context.Context, snap analysis.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

// AppendLog appends one entry to the analysis log
func (s *MemoryStore) AppendLog(ctx context.Context, analysisID string, entry analysis.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[analysisID] = append(s.logs[analysisID], entry)
	return nil
}

// GetSnapshot returns the latest snapshot for the analysis
func (s *MemoryStore) GetSnapshot(ctx context.Context, analysisID string) (analysis.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[analysisID]
	if !ok {
		return analysis.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// GetLog returns a copy of the analysis log
func (s *MemoryStore) GetLog(ctx context.Context, analysisID string) ([]analysis.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.logs[analysisID]
	if !ok {
		if _, known := s.snapshots[analysisID]; !known {
			return nil, ErrNotFound
		}
		return nil, nil
	}
	out := make([]analysis.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// ListSnapshots returns every stored snapshot, newest first
func (s *MemoryStore) ListSnapshots(ctx context.Context) ([]analysis.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]analysis.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }
