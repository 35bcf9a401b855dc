package domain

import "context"

// Backend is the persistent store contract implemented identically by the
// relational (sqlite/postgres) and document (redis) engines. Writes are
// upserts keyed by planet name; a completed PutBatch never leaves a record
// half-written, though whole-batch atomicity is not required.
//
// The Backend instance is owned exclusively by the record cache; nothing
// outside the pipeline writes to it directly.
type Backend interface {
	// Init establishes the underlying store and its structures. Idempotent.
	Init(ctx context.Context) error
	PutBatch(ctx context.Context, planets []Planet) error
	GetAll(ctx context.Context) ([]Planet, error)
	Count(ctx context.Context) (int64, error)
	// Clear removes all planet records. Metadata is reset separately by the
	// caller so the two stores stay independent.
	Clear(ctx context.Context) error
	GetMetadata(ctx context.Context) (*CacheMetadata, error)
	SetMetadata(ctx context.Context, meta CacheMetadata) error
}
