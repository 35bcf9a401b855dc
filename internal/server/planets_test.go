package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	planets    []domain.Planet
	listReq    domain.ListRequest
	rangeReq   domain.RangeRequest
	searchQ    string
	toggleName string
	cleared    bool
	err        error
}

func (f *fakeCatalog) List(ctx context.Context, req domain.ListRequest) ([]domain.Planet, error) {
	f.listReq = req
	return f.planets, f.err
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]domain.Planet, error) {
	f.searchQ = query
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	return f.planets, f.err
}

func (f *fakeCatalog) FilterByRange(ctx context.Context, req domain.RangeRequest) ([]domain.Planet, error) {
	f.rangeReq = req
	return f.planets, f.err
}

func (f *fakeCatalog) FilterByDiscoveryMethod(ctx context.Context, method string) ([]domain.Planet, error) {
	return f.planets, f.err
}

func (f *fakeCatalog) FindBySlug(ctx context.Context, slug string) (*domain.Planet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.planets) == 0 {
		return nil, domain.ErrNotFound
	}
	return &f.planets[0], nil
}

func (f *fakeCatalog) Favorites(ctx context.Context) ([]domain.Planet, error) {
	return f.planets, f.err
}

func (f *fakeCatalog) ToggleFavorite(ctx context.Context, name string) (*domain.Planet, error) {
	f.toggleName = name
	if f.err != nil {
		return nil, f.err
	}
	planet := domain.Planet{Name: name, IsFavorite: true}
	return &planet, nil
}

func (f *fakeCatalog) Refresh(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Planet, error) {
	if onProgress != nil {
		onProgress(len(f.planets), len(f.planets))
	}
	return f.planets, f.err
}

func (f *fakeCatalog) Progress(ctx context.Context) (domain.LoadProgress, error) {
	return domain.LoadProgress{CachedCount: int64(len(f.planets))}, f.err
}

func (f *fakeCatalog) ClearCache(ctx context.Context) error {
	f.cleared = true
	return f.err
}

func newTestServer(catalog domain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:     engine,
		Cfg:     config.Config{},
		Catalog: catalog,
		Log:     zap.NewNop(),
	})
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestListPlanetsParsesQuery(t *testing.T) {
	catalog := &fakeCatalog{planets: []domain.Planet{{Name: "Kepler-22 b"}}}
	engine := newTestServer(catalog)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/planets?limit=25&offset=50&refresh=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ListRequest{Limit: 25, Offset: 50, ForceRefresh: true}, catalog.listReq)

	var body struct {
		Data  []domain.Planet `json:"data"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Kepler-22 b", body.Data[0].Name)
}

func TestSearchEmptyQueryIsBadRequest(t *testing.T) {
	engine := newTestServer(&fakeCatalog{})

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/planets/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Type)
}

func TestFilterByRangeParsesBounds(t *testing.T) {
	catalog := &fakeCatalog{}
	engine := newTestServer(catalog)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/planets/range?field=radius&min=0.5&max=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RangeRadius, catalog.rangeReq.Field)
	require.NotNil(t, catalog.rangeReq.Min)
	assert.InDelta(t, 0.5, *catalog.rangeReq.Min, 1e-9)
	require.NotNil(t, catalog.rangeReq.Max)
	assert.InDelta(t, 2.0, *catalog.rangeReq.Max, 1e-9)
}

func TestGetPlanetNotFound(t *testing.T) {
	engine := newTestServer(&fakeCatalog{})

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/planets/unknown-slug")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleFavoriteResolvesSlug(t *testing.T) {
	catalog := &fakeCatalog{planets: []domain.Planet{{Name: "Kepler-22 b"}}}
	engine := newTestServer(catalog)

	rec := doRequest(t, engine, http.MethodPost, "/api/v1/planets/kepler-22-b/favorite")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kepler-22 b", catalog.toggleName)
}

func TestToggleFavoriteUnknownSlug(t *testing.T) {
	engine := newTestServer(&fakeCatalog{})

	rec := doRequest(t, engine, http.MethodPost, "/api/v1/planets/unknown/favorite")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageErrorMapsToServiceUnavailable(t *testing.T) {
	engine := newTestServer(&fakeCatalog{err: domain.ErrStorageIO})

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/favorites")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClearCache(t *testing.T) {
	catalog := &fakeCatalog{}
	engine := newTestServer(catalog)

	rec := doRequest(t, engine, http.MethodDelete, "/api/v1/cache")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, catalog.cleared)
}

func TestRefreshReturnsCount(t *testing.T) {
	catalog := &fakeCatalog{planets: []domain.Planet{{Name: "a"}, {Name: "b"}}}
	engine := newTestServer(catalog)

	rec := doRequest(t, engine, http.MethodPost, "/api/v1/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}
