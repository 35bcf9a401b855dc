package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/pipeline"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/recordcache"
	"github.com/astrosynth/atlas/internal/storage/sqlite"
	"github.com/astrosynth/atlas/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticBundled struct {
	planets []domain.Planet
}

func (s *staticBundled) Load(ctx context.Context) ([]domain.Planet, error) {
	return s.planets, nil
}

type deadRemote struct{}

func (deadRemote) FetchPage(ctx context.Context, limit, offset int) ([]domain.Planet, error) {
	return nil, domain.ErrRemoteTimeout
}

type deadSynthetic struct{}

func (deadSynthetic) Generate(ctx context.Context, count int) []domain.Planet { return nil }

func newTestCatalog(t *testing.T, planets []domain.Planet) *Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)

	backend := sqlite.New(conn, "sqlite", zap.NewNop())
	require.NoError(t, backend.Init(context.Background()))

	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	cache := recordcache.New(backend, clk, zap.NewNop())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	pipe := pipeline.New(pipeline.Params{
		Cache:     cache,
		Bundled:   &staticBundled{planets: planets},
		Remote:    deadRemote{},
		Synthetic: deadSynthetic{},
		Policy: config.NewStaticDatasetPolicyHolder(config.DatasetPolicy{
			FreshnessHorizon: 30 * 24 * time.Hour,
			ChunkSize:        100,
			SyntheticCount:   5,
		}),
		Log:   zap.NewNop(),
		GenID: node,
	})

	return New(Params{Pipeline: pipe, Log: zap.NewNop()})
}

func samplePlanets() []domain.Planet {
	transit := "Transit"
	rv := "Radial Velocity"
	kepler := "Kepler-452"
	proxima := "Proxima Cen"
	year2015, year1995 := 2015, 1995
	return []domain.Planet{
		{
			Name:            "Kepler-452 b",
			HostName:        &kepler,
			Radius:          f64(1.63),
			Distance:        f64(551.7),
			DiscoveryYear:   &year2015,
			DiscoveryMethod: &transit,
		},
		{
			Name:            "Proxima Cen b",
			HostName:        &proxima,
			Radius:          f64(1.03),
			Distance:        f64(1.301),
			DiscoveryMethod: &rv,
		},
		{
			Name:            "51 Peg b",
			Radius:          f64(13.4),
			Distance:        f64(15.46),
			DiscoveryYear:   &year1995,
			DiscoveryMethod: &rv,
		},
	}
}

func f64(v float64) *float64 { return &v }

func TestSearchMatchesNameAndHost(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())
	ctx := context.Background()

	planets, err := svc.Search(ctx, "kepler")
	require.NoError(t, err)
	require.Len(t, planets, 1)
	assert.Equal(t, "Kepler-452 b", planets[0].Name)

	planets, err = svc.Search(ctx, "PROXIMA")
	require.NoError(t, err)
	assert.Len(t, planets, 1)

	planets, err = svc.Search(ctx, "no such planet")
	require.NoError(t, err)
	assert.Empty(t, planets)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestFilterByRange(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())
	ctx := context.Background()

	planets, err := svc.FilterByRange(ctx, domain.RangeRequest{
		Field: domain.RangeRadius,
		Min:   f64(1.0),
		Max:   f64(2.0),
	})
	require.NoError(t, err)
	assert.Len(t, planets, 2)

	// Open upper bound.
	planets, err = svc.FilterByRange(ctx, domain.RangeRequest{
		Field: domain.RangeRadius,
		Min:   f64(10.0),
	})
	require.NoError(t, err)
	require.Len(t, planets, 1)
	assert.Equal(t, "51 Peg b", planets[0].Name)

	// Records without the field are excluded.
	planets, err = svc.FilterByRange(ctx, domain.RangeRequest{
		Field: domain.RangeDiscoveryYear,
		Min:   f64(1990),
	})
	require.NoError(t, err)
	assert.Len(t, planets, 2)
}

func TestFilterByRangeUnknownField(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())

	_, err := svc.FilterByRange(context.Background(), domain.RangeRequest{Field: "habitability"})
	assert.ErrorIs(t, err, domain.ErrInvalidRangeField)
}

func TestFilterByDiscoveryMethod(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())

	planets, err := svc.FilterByDiscoveryMethod(context.Background(), "radial velocity")
	require.NoError(t, err)
	assert.Len(t, planets, 2)
}

func TestFindBySlug(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())
	ctx := context.Background()

	planet, err := svc.FindBySlug(ctx, "kepler-452-b")
	require.NoError(t, err)
	assert.Equal(t, "Kepler-452 b", planet.Name)

	_, err = svc.FindBySlug(ctx, "definitely-not-a-planet")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFavoritesRoundTrip(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())
	ctx := context.Background()

	favorites, err := svc.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	updated, err := svc.ToggleFavorite(ctx, "51 Peg b")
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)

	favorites, err = svc.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "51 Peg b", favorites[0].Name)
}

func TestListPages(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())

	planets, err := svc.List(context.Background(), domain.ListRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, planets, 2)
}

func TestRefreshForcesReload(t *testing.T) {
	svc := newTestCatalog(t, samplePlanets())
	ctx := context.Background()

	_, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)

	var final [2]int
	planets, err := svc.Refresh(ctx, func(loaded, total int) {
		final = [2]int{loaded, total}
	})
	require.NoError(t, err)
	assert.Len(t, planets, 3)
	assert.Equal(t, [2]int{3, 3}, final)
}
