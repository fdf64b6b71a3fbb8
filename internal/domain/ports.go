package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream unavailable")
)

// RowSource produces a complete sheet snapshot (header + rows).
type RowSource interface {
	FetchRows(ctx context.Context) (Table, error)
}

// RangeFetcher reads an arbitrary named range; used by the ingestor.
type RangeFetcher interface {
	FetchRange(ctx context.Context, rng string) (Table, error)
}

type SnapshotRepository interface {
	// Write paths
	SaveSnapshot(ctx context.Context, s Snapshot) error
	LogSyncFailure(ctx context.Context, rng string, reason string) error

	// Read paths
	GetSnapshot(ctx context.Context, rng string) (Snapshot, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Snapshot is a stored copy of one sheet range.
type Snapshot struct {
	Range     string
	Table     Table
	FetchedAt time.Time
}
