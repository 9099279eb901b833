package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborline/erpmetrics/pkg/metrics"
)

// In-memory, TTL-bound Store implementation.
//
// Snapshots expire lazily: an expired entry is dropped on the Get that
// finds it, and Keys/Count skip entries past their deadline. There is no
// background sweeper; the key space is tiny (one entry per dashboard).

const defaultTTL = 5 * time.Minute

type entry struct {
	snapshot Snapshot
	deadline time.Time
}

// MemoryStore caches snapshots keyed by dashboard, guarded by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store with the default TTL.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live snapshot for key, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) (Snapshot, error) {
	_ = ctx

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && !s.now().After(e.deadline) {
		metrics.RecordSnapshotHit()
		return e.snapshot, nil
	}

	if ok {
		s.mu.Lock()
		// Re-check under the write lock; a Put may have raced in.
		if cur, still := s.entries[key]; still && cur.deadline.Equal(e.deadline) {
			delete(s.entries, key)
		}
		count := len(s.entries)
		s.mu.Unlock()
		metrics.UpdateSnapshotEntries(count)
	}

	metrics.RecordSnapshotMiss()
	return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Put stores payload under key with a fresh timestamp and deadline.
func (s *MemoryStore) Put(ctx context.Context, key string, payload any) Snapshot {
	_ = ctx

	now := s.now()
	snap := Snapshot{Key: key, GeneratedAt: now, Payload: payload}

	s.mu.Lock()
	s.entries[key] = entry{snapshot: snap, deadline: now.Add(s.ttl)}
	count := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateSnapshotEntries(count)
	return snap
}

// Invalidate drops the snapshot for key if present.
func (s *MemoryStore) Invalidate(ctx context.Context, key string) {
	_ = ctx

	s.mu.Lock()
	delete(s.entries, key)
	count := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateSnapshotEntries(count)
}

// Keys returns the keys of all live snapshots.
func (s *MemoryStore) Keys(ctx context.Context) []string {
	_ = ctx

	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if now.After(e.deadline) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Count returns the number of live snapshots.
func (s *MemoryStore) Count(ctx context.Context) int {
	return len(s.Keys(ctx))
}
