// Package recordcache adds freshness-aware batch semantics on top of a raw
// storage backend. It is the only writer the backend ever sees.
package recordcache

import (
	"context"
	"fmt"
	"time"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Cache struct {
	backend domain.Backend
	clock   clock.Clock
	log     *zap.Logger
}

func New(backend domain.Backend, clk clock.Clock, log *zap.Logger) *Cache {
	return &Cache{
		backend: backend,
		clock:   clk,
		log:     log.Named("recordcache"),
	}
}

// Cache upserts the batch, then stamps the freshness metadata for it.
func (c *Cache) Cache(ctx context.Context, planets []domain.Planet, source domain.Source) error {
	if err := c.backend.PutBatch(ctx, planets); err != nil {
		return err
	}
	return c.Stamp(ctx, source, len(planets))
}

// PutBatch upserts records without touching the freshness metadata. Chunked
// loads write through here and call Stamp once after the last chunk.
func (c *Cache) PutBatch(ctx context.Context, planets []domain.Planet) error {
	return c.backend.PutBatch(ctx, planets)
}

// Stamp records a completed load: the freshness timestamp, a fresh backend
// count, and how many records the winning source delivered. The count is
// re-read rather than derived from loaded because upserts over existing
// names do not grow the store.
func (c *Cache) Stamp(ctx context.Context, source domain.Source, loaded int) error {
	count, err := c.backend.Count(ctx)
	if err != nil {
		return err
	}

	meta := domain.CacheMetadata{
		Key:         domain.MetadataKey,
		LastUpdated: c.clock.Now(),
		RecordCount: count,
		SourceBreakdown: datatypes.JSONMap{
			string(source): loaded,
		},
	}
	if err := c.backend.SetMetadata(ctx, meta); err != nil {
		return err
	}

	c.log.Debug("load stamped",
		zap.Int("loaded", loaded),
		zap.Int64("record_count", count),
		zap.String("source", string(source)),
	)
	return nil
}

// IsFresh reports whether the cache was refreshed within maxAge. A store
// with no metadata is never fresh.
func (c *Cache) IsFresh(ctx context.Context, maxAge time.Duration) (bool, error) {
	meta, err := c.backend.GetMetadata(ctx)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}
	return c.clock.Now().Sub(meta.LastUpdated) < maxAge, nil
}

// Size returns the stored record count, or 0 when the backend is not usable
// yet. It deliberately never initializes the store: callers probing for a
// warm cache must not pay an init side effect.
func (c *Cache) Size(ctx context.Context) int64 {
	count, err := c.backend.Count(ctx)
	if err != nil {
		c.log.Debug("size probe failed", zap.Error(err))
		return 0
	}
	return count
}

func (c *Cache) GetAll(ctx context.Context) ([]domain.Planet, error) {
	return c.backend.GetAll(ctx)
}

// Put upserts a single record without touching the freshness timestamp;
// used for attribute mutations (favorites) that are not dataset refreshes.
func (c *Cache) Put(ctx context.Context, planet domain.Planet) error {
	return c.backend.PutBatch(ctx, []domain.Planet{planet})
}

// Clear removes all records and resets the metadata row in one call, so the
// store never advertises a count for records that are gone.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.backend.Clear(ctx); err != nil {
		return err
	}
	meta := domain.CacheMetadata{
		Key:         domain.MetadataKey,
		LastUpdated: time.Time{},
		RecordCount: 0,
	}
	if err := c.backend.SetMetadata(ctx, meta); err != nil {
		return fmt.Errorf("reset metadata: %w", err)
	}
	return nil
}

func (c *Cache) Metadata(ctx context.Context) (*domain.CacheMetadata, error) {
	return c.backend.GetMetadata(ctx)
}

// Progress summarizes cache state for callers that must not trigger a load.
func (c *Cache) Progress(ctx context.Context, maxAge time.Duration) (domain.LoadProgress, error) {
	progress := domain.LoadProgress{
		CachedCount: c.Size(ctx),
	}

	meta, err := c.backend.GetMetadata(ctx)
	if err != nil {
		return progress, err
	}
	if meta == nil || meta.LastUpdated.IsZero() {
		return progress, nil
	}

	updated := meta.LastUpdated
	progress.LastUpdated = &updated
	progress.IsFresh = c.clock.Now().Sub(meta.LastUpdated) < maxAge
	return progress, nil
}
