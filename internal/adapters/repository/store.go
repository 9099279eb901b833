// Package repository defines the dashboard snapshot store interface and
// errors. Aggregations are expensive multi-query fetches; the store caches
// their results so repeated dashboard loads within the TTL are served from
// memory.
package repository

import (
	"context"
	"time"
)

// Snapshot is one cached aggregation result.
type Snapshot struct {
	Key         string
	GeneratedAt time.Time
	Payload     any
}

// Store provides read/write access to cached dashboard snapshots.
type Store interface {
	// Get returns the live snapshot for key.
	// Returns ErrNotFound when the key is missing or past its TTL.
	Get(ctx context.Context, key string) (Snapshot, error)

	// Put stores payload under key, stamping it with the current time,
	// and returns the stored snapshot.
	Put(ctx context.Context, key string, payload any) Snapshot

	// Invalidate drops the snapshot for key if present.
	Invalidate(ctx context.Context, key string)

	// Keys returns the keys of all live snapshots.
	Keys(ctx context.Context) []string

	// Count returns the number of live snapshots.
	Count(ctx context.Context) int
}
