// Package storagetest holds the behavioral suite every storage backend must
// pass. Both backends run the same assertions so the pipeline can treat them
// interchangeably.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// Factory returns a fresh, empty backend for each subtest.
type Factory func(t *testing.T) domain.Backend

// Run exercises the storage contract against the given backend factory.
func Run(t *testing.T, factory Factory) {
	t.Run("init is idempotent", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()

		require.NoError(t, backend.Init(ctx))
		require.NoError(t, backend.Init(ctx))
	})

	t.Run("empty store", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		count, err := backend.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		planets, err := backend.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, planets)

		meta, err := backend.GetMetadata(ctx)
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("put batch and read back", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		require.NoError(t, backend.PutBatch(ctx, []domain.Planet{
			planet("Kepler-442 b"),
			planet("Kepler-22 b"),
		}))

		count, err := backend.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		planets, err := backend.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 2)
		assert.Equal(t, "Kepler-22 b", planets[0].Name)
		assert.Equal(t, "Kepler-442 b", planets[1].Name)
	})

	t.Run("upsert replaces by name", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		first := planet("Kepler-442 b")
		first.Radius = f64(1.0)
		require.NoError(t, backend.PutBatch(ctx, []domain.Planet{first}))

		second := planet("Kepler-442 b")
		second.Radius = f64(1.34)
		require.NoError(t, backend.PutBatch(ctx, []domain.Planet{second}))

		count, err := backend.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		planets, err := backend.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 1)
		require.NotNil(t, planets[0].Radius)
		assert.InDelta(t, 1.34, *planets[0].Radius, 1e-9)
	})

	t.Run("rejects unnamed record", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		err := backend.PutBatch(ctx, []domain.Planet{{Name: ""}})
		assert.ErrorIs(t, err, domain.ErrInvalidName)
	})

	t.Run("clear removes records", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		require.NoError(t, backend.PutBatch(ctx, []domain.Planet{planet("TOI-700 d")}))
		require.NoError(t, backend.Clear(ctx))

		count, err := backend.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("metadata round trip", func(t *testing.T) {
		backend := factory(t)
		ctx := context.Background()
		require.NoError(t, backend.Init(ctx))

		updated := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		require.NoError(t, backend.SetMetadata(ctx, domain.CacheMetadata{
			Key:         domain.MetadataKey,
			LastUpdated: updated,
			RecordCount: 42,
			SourceBreakdown: datatypes.JSONMap{
				string(domain.SourceRemote): 42,
			},
		}))

		meta, err := backend.GetMetadata(ctx)
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, int64(42), meta.RecordCount)
		assert.True(t, meta.LastUpdated.Equal(updated), "got %v", meta.LastUpdated)

		// Second write replaces the singleton row.
		require.NoError(t, backend.SetMetadata(ctx, domain.CacheMetadata{
			Key:         domain.MetadataKey,
			LastUpdated: updated.Add(time.Hour),
			RecordCount: 43,
		}))

		meta, err = backend.GetMetadata(ctx)
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, int64(43), meta.RecordCount)
	})
}

func planet(name string) domain.Planet {
	method := "Transit"
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.Planet{
		Name:            name,
		DiscoveryMethod: &method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func f64(v float64) *float64 { return &v }
