package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/recordcache"
	"github.com/astrosynth/atlas/internal/storage/sqlite"
	"github.com/astrosynth/atlas/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBundled struct {
	mu      sync.Mutex
	calls   int
	planets []domain.Planet
	err     error
	delay   time.Duration
}

func (f *fakeBundled) Load(ctx context.Context) ([]domain.Planet, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.planets, nil
}

func (f *fakeBundled) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRemote struct {
	calls   atomic.Int64
	planets []domain.Planet
	err     error
}

func (f *fakeRemote) FetchPage(ctx context.Context, limit, offset int) ([]domain.Planet, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.planets, nil
}

type fakeSynthetic struct {
	calls atomic.Int64
}

func (f *fakeSynthetic) Generate(ctx context.Context, count int) []domain.Planet {
	f.calls.Add(1)
	planets := make([]domain.Planet, 0, count)
	for i := 0; i < count; i++ {
		planets = append(planets, planet(string(rune('a'+i))))
	}
	return planets
}

type fixture struct {
	service   *Service
	cache     *recordcache.Cache
	clock     *clock.FakeClock
	bundled   *fakeBundled
	remote    *fakeRemote
	synthetic *fakeSynthetic
	policy    config.DatasetPolicy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)

	backend := sqlite.New(conn, "sqlite", zap.NewNop())
	require.NoError(t, backend.Init(context.Background()))

	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	cache := recordcache.New(backend, clk, zap.NewNop())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	policy := config.DatasetPolicy{
		FreshnessHorizon: 30 * 24 * time.Hour,
		ChunkSize:        100,
		SyntheticCount:   5,
	}

	f := &fixture{
		cache:     cache,
		clock:     clk,
		bundled:   &fakeBundled{},
		remote:    &fakeRemote{},
		synthetic: &fakeSynthetic{},
		policy:    policy,
	}
	f.service = New(Params{
		Cache:     cache,
		Bundled:   f.bundled,
		Remote:    f.remote,
		Synthetic: f.synthetic,
		Policy:    config.NewStaticDatasetPolicyHolder(policy),
		Log:       zap.NewNop(),
		GenID:     node,
	})
	return f
}

func planet(name string) domain.Planet {
	return domain.Planet{Name: name}
}

func planetNames(count int, prefix string) []domain.Planet {
	planets := make([]domain.Planet, 0, count)
	for i := 0; i < count; i++ {
		planets = append(planets, planet(prefix+string(rune('a'+i%26))+string(rune('a'+i/26))))
	}
	return planets
}

func TestFetchColdStartPersistsBundled(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("b"), planet("a")}
	ctx := context.Background()

	planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	require.Len(t, planets, 2)
	assert.Equal(t, "a", planets[0].Name, "served from store in name order")

	assert.Equal(t, int64(2), f.cache.Size(ctx))
	fresh, err := f.cache.IsFresh(ctx, f.policy.FreshnessHorizon)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestFetchWarmCacheSkipsTiers(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}
	ctx := context.Background()

	_, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, f.bundled.callCount())

	for i := 0; i < 3; i++ {
		planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
		require.NoError(t, err)
		assert.Len(t, planets, 1)
	}
	assert.Equal(t, 1, f.bundled.callCount(), "warm fetches must not hit tiers")
	assert.Equal(t, int64(0), f.remote.calls.Load())
}

func TestFetchCascadesToRemote(t *testing.T) {
	f := newFixture(t)
	f.bundled.err = errors.New("asset missing")
	f.remote.planets = planetNames(80, "r-")
	ctx := context.Background()

	planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	assert.Len(t, planets, 80)
	assert.Equal(t, int64(1), f.remote.calls.Load())
	assert.Equal(t, int64(0), f.synthetic.calls.Load())
	assert.Equal(t, int64(80), f.cache.Size(ctx))
}

func TestFetchFallsBackToSynthetic(t *testing.T) {
	f := newFixture(t)
	f.bundled.err = errors.New("asset missing")
	f.remote.err = domain.ErrRemoteTimeout
	ctx := context.Background()

	planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	assert.Len(t, planets, f.policy.SyntheticCount)
	assert.Equal(t, int64(1), f.synthetic.calls.Load())
}

func TestFetchStaleCacheRefreshes(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}
	ctx := context.Background()

	_, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, f.bundled.callCount())

	f.clock.Advance(f.policy.FreshnessHorizon + time.Minute)
	f.bundled.planets = []domain.Planet{planet("a"), planet("z")}

	planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	assert.Len(t, planets, 2, "stale cache reruns the cascade and upserts")
	assert.Equal(t, 2, f.bundled.callCount())
}

func TestFetchForceRefreshBypassesWarmCache(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}
	ctx := context.Background()

	_, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)

	_, err = f.service.Fetch(ctx, domain.FetchRequest{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, 2, f.bundled.callCount())
}

func TestFetchPaging(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = planetNames(10, "p-")
	ctx := context.Background()

	page, err := f.service.Fetch(ctx, domain.FetchRequest{Limit: 3, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	page, err = f.service.Fetch(ctx, domain.FetchRequest{Limit: 3, Offset: 9})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = f.service.Fetch(ctx, domain.FetchRequest{Limit: 3, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestConcurrentFetchesShareOneLoad(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}
	f.bundled.delay = 50 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
			assert.NoError(t, err)
			assert.Len(t, planets, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.bundled.callCount(), "concurrent cold fetches must share one cascade")
}

func TestToggleFavoriteFlipsAndPersists(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a"), planet("b")}
	ctx := context.Background()

	before, err := f.cache.Metadata(ctx)
	require.NoError(t, err)
	assert.Nil(t, before)

	updated, err := f.service.ToggleFavorite(ctx, "b")
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)

	// Toggle must survive a fresh read from storage.
	stored, err := f.cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.True(t, stored[1].IsFavorite)

	updated, err = f.service.ToggleFavorite(ctx, "b")
	require.NoError(t, err)
	assert.False(t, updated.IsFavorite)
}

func TestToggleFavoriteLeavesEarlierResultsUntouched(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a"), planet("b")}
	ctx := context.Background()

	before, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	require.Len(t, before, 2)
	require.False(t, before[1].IsFavorite)

	_, err = f.service.ToggleFavorite(ctx, "b")
	require.NoError(t, err)

	// The toggle writes a fresh slice; result sets already handed out
	// must not change under their callers.
	assert.False(t, before[1].IsFavorite)

	after, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	assert.True(t, after[1].IsFavorite)
}

func TestConcurrentWarmFetchesAndToggles(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a"), planet("b"), planet("c")}
	ctx := context.Background()

	_, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
				assert.NoError(t, err)
				for _, p := range planets {
					_ = p.IsFavorite
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			_, err := f.service.ToggleFavorite(ctx, "b")
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}

func TestToggleFavoriteUnknownPlanet(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}

	_, err := f.service.ToggleFavorite(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClearCacheResetsEverything(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}
	ctx := context.Background()

	_, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)

	require.NoError(t, f.service.ClearCache(ctx))
	assert.Equal(t, int64(0), f.cache.Size(ctx))

	// Next fetch is a cold start again.
	planets, err := f.service.Fetch(ctx, domain.FetchRequest{})
	require.NoError(t, err)
	assert.Len(t, planets, 1)
	assert.Equal(t, 2, f.bundled.callCount())
}

func TestProgressDoesNotLoad(t *testing.T) {
	f := newFixture(t)
	f.bundled.planets = []domain.Planet{planet("a")}

	progress, err := f.service.Progress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.CachedCount)
	assert.False(t, progress.IsFresh)
	assert.Equal(t, 0, f.bundled.callCount())
}
