package pipeline

import (
	"context"

	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
)

// LoadAll acquires the full dataset and persists it in chunks, invoking
// onProgress after each chunk with monotonically increasing loaded counts.
// A warm cache yields a single (n, n) callback. Concurrent callers share
// one run; only the initiating caller sees intermediate chunks, the rest
// get the final (n, n).
func (s *Service) LoadAll(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Planet, error) {
	if planets, ok := s.cachedSet(ctx); ok {
		s.metrics.RecordCacheHit(ctx)
		if onProgress != nil {
			onProgress(len(planets), len(planets))
		}
		return planets, nil
	}

	return s.Reload(ctx, onProgress)
}

// Reload is LoadAll without the warm-cache short-circuit: the cascade always
// runs and its output upserts over whatever the store holds. It shares the
// flight key with Fetch, so joining an in-flight cold fetch counts as a run.
func (s *Service) Reload(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Planet, error) {
	result, err, shared := s.flight.Do(loadKey, func() (interface{}, error) {
		return s.loadChunked(ctx, onProgress)
	})
	if err != nil {
		return nil, err
	}

	planets := result.([]domain.Planet)
	if shared && onProgress != nil {
		onProgress(len(planets), len(planets))
	}
	return planets, nil
}

// loadChunked runs the cascade once and writes the winning tier's records
// through the cache in policy-sized chunks, reporting progress between
// chunks. The freshness metadata is stamped once, after the last chunk, so
// the breakdown reflects the whole load and a partial write never advertises
// itself as a completed refresh. Context cancellation between chunks aborts
// the remainder; the chunks already written stay.
func (s *Service) loadChunked(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Planet, error) {
	planets, source, err := s.loadFromTiers(ctx)
	if err != nil {
		fallback := s.staleFallback(ctx)
		if onProgress != nil {
			onProgress(len(fallback), len(fallback))
		}
		return fallback, nil
	}

	chunkSize := s.policy.Current().ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(planets)
	}

	total := len(planets)
	for start := 0; start < total; start += chunkSize {
		if err := ctx.Err(); err != nil {
			s.log.Warn("bulk load cancelled",
				zap.Int("loaded", start),
				zap.Int("total", total),
			)
			return nil, err
		}

		end := start + chunkSize
		if end > total {
			end = total
		}

		if err := s.cache.PutBatch(ctx, planets[start:end]); err != nil {
			s.log.Error("chunk persist failed, serving unpersisted remainder",
				zap.String("source", string(source)),
				zap.Int("loaded", start),
				zap.Error(err),
			)
			s.setMirror(planets)
			if onProgress != nil {
				onProgress(total, total)
			}
			return planets, nil
		}

		if onProgress != nil {
			onProgress(end, total)
		}
	}

	if err := s.cache.Stamp(ctx, source, total); err != nil {
		s.log.Error("freshness stamp failed after load",
			zap.String("source", string(source)),
			zap.Error(err),
		)
	}

	all, err := s.cache.GetAll(ctx)
	if err != nil || len(all) == 0 {
		s.setMirror(planets)
		return planets, nil
	}
	s.setMirror(all)
	return all, nil
}
