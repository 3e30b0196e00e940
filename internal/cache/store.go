package cache

import (
	"context"
	"time"
)

// Entry is one cached query result. FetchedAt travels with the data so
// staleness survives a store round-trip (the Redis store serializes the
// whole envelope).
type Entry struct {
	Data      []byte    `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store persists cache entries keyed by (entity kind, serialized
// filters). Implementations must be safe for concurrent use.
// Get returns nil with no error on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry) error
	// DeletePrefix drops every key starting with prefix. Invalidation
	// is coarse: a mutation wipes all cached queries of its kind.
	DeletePrefix(ctx context.Context, prefix string) error
}
