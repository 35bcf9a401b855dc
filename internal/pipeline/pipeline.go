// Package pipeline orchestrates data acquisition: a freshness-aware cache
// short-circuit, then a strict cascade over the bundled dataset, the remote
// archive, and the synthetic generator. One cascade runs at a time; callers
// arriving mid-load share its result.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/observability/metrics"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/recordcache"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BundledLoader is the first cascade tier.
type BundledLoader interface {
	Load(ctx context.Context) ([]domain.Planet, error)
}

// RemoteClient is the second cascade tier.
type RemoteClient interface {
	FetchPage(ctx context.Context, limit, offset int) ([]domain.Planet, error)
}

// SyntheticGenerator is the final tier; it cannot fail.
type SyntheticGenerator interface {
	Generate(ctx context.Context, count int) []domain.Planet
}

// loadKey is the single-flight key shared by Fetch and LoadAll: there is
// only one dataset, so there is only ever one load worth running, and a cold
// fetch concurrent with a bulk load must not start a second cascade.
const loadKey = "dataset"

type Params struct {
	fx.In

	Cache     *recordcache.Cache
	Bundled   BundledLoader
	Remote    RemoteClient
	Synthetic SyntheticGenerator
	Policy    *config.DatasetPolicyHolder
	Metrics   *metrics.Metrics `optional:"true"`
	Log       *zap.Logger
	GenID     *snowflake.Node
}

type Service struct {
	cache     *recordcache.Cache
	bundled   BundledLoader
	remote    RemoteClient
	synthetic SyntheticGenerator
	policy    *config.DatasetPolicyHolder
	metrics   *metrics.Metrics
	log       *zap.Logger
	genID     *snowflake.Node

	flight singleflight.Group

	mu     sync.RWMutex
	mirror []domain.Planet
}

func New(p Params) *Service {
	return &Service{
		cache:     p.Cache,
		bundled:   p.Bundled,
		remote:    p.Remote,
		synthetic: p.Synthetic,
		policy:    p.Policy,
		metrics:   p.Metrics,
		log:       p.Log.Named("pipeline"),
		genID:     p.GenID,
	}
}

// Fetch returns the requested page. A warm, fresh cache is served directly;
// otherwise one cascade runs (shared across concurrent callers) and its
// result is paged. ForceRefresh skips the short-circuit but never clears
// the cache first; later tiers overwrite rows by name.
func (s *Service) Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Planet, error) {
	if !req.ForceRefresh {
		if planets, ok := s.cachedSet(ctx); ok {
			s.metrics.RecordCacheHit(ctx)
			return pageOf(planets, req.Limit, req.Offset), nil
		}
	}

	planets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return pageOf(planets, req.Limit, req.Offset), nil
}

// Snapshot returns the full materialized record set, loading it first if
// necessary.
func (s *Service) Snapshot(ctx context.Context) ([]domain.Planet, error) {
	return s.Fetch(ctx, domain.FetchRequest{})
}

// Progress reports cache state without triggering a load.
func (s *Service) Progress(ctx context.Context) (domain.LoadProgress, error) {
	return s.cache.Progress(ctx, s.policy.Current().FreshnessHorizon)
}

// ClearCache drops the in-memory mirror and resets the persistent store.
func (s *Service) ClearCache(ctx context.Context) error {
	s.mu.Lock()
	s.mirror = nil
	s.mu.Unlock()
	return s.cache.Clear(ctx)
}

// ToggleFavorite flips the favorite flag on the cached copy. It is the only
// record mutation that does not count as a dataset refresh, so the
// freshness timestamp stays untouched.
func (s *Service) ToggleFavorite(ctx context.Context, name string) (*domain.Planet, error) {
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	planets, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Copy-on-write: the snapshot's backing array is shared with every
	// result set already handed to callers, so the flip happens on a
	// fresh slice and the mirror is swapped to it.
	next := make([]domain.Planet, len(planets))
	copy(next, planets)

	var updated *domain.Planet
	for i := range next {
		if next[i].Name == name {
			next[i].IsFavorite = !next[i].IsFavorite
			record := next[i]
			updated = &record
			break
		}
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.cache.Put(ctx, *updated); err != nil {
		// Availability over durability: the in-memory copy still flips.
		s.log.Error("favorite persist failed", zap.String("name", name), zap.Error(err))
	}
	s.setMirror(next)
	return updated, nil
}

// cachedSet serves the warm path: a populated store inside the freshness
// horizon. A stale store is not a hit: the cascade re-runs and upserts
// over it.
func (s *Service) cachedSet(ctx context.Context) ([]domain.Planet, bool) {
	if s.cache.Size(ctx) == 0 {
		return nil, false
	}

	fresh, err := s.cache.IsFresh(ctx, s.policy.Current().FreshnessHorizon)
	if err != nil || !fresh {
		return nil, false
	}

	s.mu.RLock()
	if len(s.mirror) > 0 {
		planets := s.mirror
		s.mu.RUnlock()
		return planets, true
	}
	s.mu.RUnlock()

	planets, err := s.cache.GetAll(ctx)
	if err != nil || len(planets) == 0 {
		return nil, false
	}
	s.setMirror(planets)
	return planets, true
}

// load funnels every cold fetch through the single-flight group. The actual
// work is the same chunked load bulk callers run, so a cold fetch arriving
// during a LoadAll joins it instead of starting a second cascade.
func (s *Service) load(ctx context.Context) ([]domain.Planet, error) {
	result, err, shared := s.flight.Do(loadKey, func() (interface{}, error) {
		return s.loadChunked(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("fetch joined in-flight load")
	}
	return result.([]domain.Planet), nil
}

// loadFromTiers walks the cascade in order and returns the first tier's
// non-empty output. Tier errors are logged and counted, never propagated;
// only total exhaustion surfaces, and the synthetic tier makes that a
// theoretical case.
func (s *Service) loadFromTiers(ctx context.Context) ([]domain.Planet, domain.Source, error) {
	runID := s.genID.Generate().String()
	log := s.log.With(zap.String("run_id", runID))

	tiers := []struct {
		source domain.Source
		load   func(context.Context) ([]domain.Planet, error)
	}{
		{domain.SourceBundled, s.bundled.Load},
		{domain.SourceRemote, func(ctx context.Context) ([]domain.Planet, error) {
			return s.remote.FetchPage(ctx, 0, 0)
		}},
		{domain.SourceSynthetic, func(ctx context.Context) ([]domain.Planet, error) {
			return s.synthetic.Generate(ctx, s.policy.Current().SyntheticCount), nil
		}},
	}

	for _, tier := range tiers {
		s.metrics.RecordTierAttempt(ctx, tier.source)

		started := time.Now()
		planets, err := tier.load(ctx)
		s.metrics.RecordTierDuration(ctx, tier.source, time.Since(started))

		if err != nil || len(planets) == 0 {
			s.metrics.RecordTierFailure(ctx, tier.source)
			log.Warn("tier produced nothing",
				zap.String("tier", string(tier.source)),
				zap.Error(err),
			)
			continue
		}

		s.metrics.RecordTierSuccess(ctx, tier.source, len(planets))
		log.Info("tier succeeded",
			zap.String("tier", string(tier.source)),
			zap.Int("records", len(planets)),
		)
		return planets, tier.source, nil
	}

	log.Error("all tiers exhausted")
	return nil, "", domain.ErrNotFound
}

// staleFallback serves whatever the store still holds after total tier
// exhaustion. Degraded success: stale data beats no data, and an empty store
// yields an empty set, never an error.
func (s *Service) staleFallback(ctx context.Context) []domain.Planet {
	planets, err := s.cache.GetAll(ctx)
	if err != nil || len(planets) == 0 {
		return []domain.Planet{}
	}
	s.log.Warn("serving stale cache after tier exhaustion", zap.Int("records", len(planets)))
	s.setMirror(planets)
	return planets
}

func (s *Service) setMirror(planets []domain.Planet) {
	s.mu.Lock()
	s.mirror = planets
	s.mu.Unlock()
}

func pageOf(planets []domain.Planet, limit, offset int) []domain.Planet {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(planets) {
		return []domain.Planet{}
	}
	end := len(planets)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return planets[offset:end]
}

var _ domain.Pipeline = (*Service)(nil)
