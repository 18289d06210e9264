// Package history keeps the record of finished calls.
package history

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

// DefaultLimit caps List when the caller passes no positive limit.
const DefaultLimit = 50

// ErrInvalidEntry rejects entries without an id.
var ErrInvalidEntry = errors.New("history: entry id is required")

// Recorder receives one entry per finished call.
type Recorder interface {
	Record(ctx context.Context, entry call.HistoryEntry) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, entry call.HistoryEntry) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, entry call.HistoryEntry) error {
	return f(ctx, entry)
}

// Store is a Recorder that can also list what it recorded, newest first.
type Store interface {
	Recorder
	List(ctx context.Context, limit int) ([]call.HistoryEntry, error)
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []call.HistoryEntry
	maxEntries int
}

// NewMemoryStore returns a store holding at most maxEntries entries; 0 means unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{maxEntries: maxEntries}
}

// Record implements Recorder.
func (s *MemoryStore) Record(_ context.Context, entry call.HistoryEntry) error {
	if entry.ID == "" {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.entries = append([]call.HistoryEntry(nil), s.entries[len(s.entries)-s.maxEntries:]...)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]call.HistoryEntry, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]call.HistoryEntry, 0, min(limit, len(s.entries)))
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
