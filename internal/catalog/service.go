// Package catalog is the read-shaped façade over the pipeline's record set:
// listing, search, filters, slug lookup, and the favorite toggle. All queries
// run against the full materialized set; the dataset is small enough that
// in-memory filtering beats pushing predicates into the backend.
package catalog

import (
	"context"
	"strings"

	"github.com/astrosynth/atlas/internal/pipeline"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Pipeline *pipeline.Service
	Log      *zap.Logger
}

type Service struct {
	pipeline *pipeline.Service
	log      *zap.Logger
}

func New(p Params) *Service {
	return &Service{
		pipeline: p.Pipeline,
		log:      p.Log.Named("catalog"),
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Planet, error) {
	return s.pipeline.Fetch(ctx, domain.FetchRequest{
		Limit:        req.Limit,
		Offset:       req.Offset,
		ForceRefresh: req.ForceRefresh,
	})
}

// Search matches the query case-insensitively against planet and host names.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Planet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	planets, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]domain.Planet, 0)
	for _, p := range planets {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
			continue
		}
		if p.HostName != nil && strings.Contains(strings.ToLower(*p.HostName), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// FilterByRange keeps planets whose field value lies in [min, max]. A nil
// bound is open; records missing the field are excluded.
func (s *Service) FilterByRange(ctx context.Context, req domain.RangeRequest) ([]domain.Planet, error) {
	extract, ok := rangeExtractors[req.Field]
	if !ok {
		return nil, domain.ErrInvalidRangeField
	}

	planets, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Planet, 0)
	for _, p := range planets {
		value := extract(p)
		if value == nil {
			continue
		}
		if req.Min != nil && *value < *req.Min {
			continue
		}
		if req.Max != nil && *value > *req.Max {
			continue
		}
		matches = append(matches, p)
	}
	return matches, nil
}

func (s *Service) FilterByDiscoveryMethod(ctx context.Context, method string) ([]domain.Planet, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, domain.ErrEmptyQuery
	}

	planets, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Planet, 0)
	for _, p := range planets {
		if p.DiscoveryMethod != nil && strings.EqualFold(*p.DiscoveryMethod, method) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// FindBySlug resolves a URL slug ("kepler-452-b") back to its planet.
func (s *Service) FindBySlug(ctx context.Context, wanted string) (*domain.Planet, error) {
	wanted = strings.TrimSpace(wanted)
	if wanted == "" {
		return nil, domain.ErrInvalidName
	}

	planets, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range planets {
		if slug.Make(planets[i].Name) == wanted {
			record := planets[i]
			return &record, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Service) Favorites(ctx context.Context) ([]domain.Planet, error) {
	planets, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	favorites := make([]domain.Planet, 0)
	for _, p := range planets {
		if p.IsFavorite {
			favorites = append(favorites, p)
		}
	}
	return favorites, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, name string) (*domain.Planet, error) {
	return s.pipeline.ToggleFavorite(ctx, name)
}

// Refresh forces a full reacquisition regardless of cache freshness.
func (s *Service) Refresh(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Planet, error) {
	return s.pipeline.Reload(ctx, onProgress)
}

func (s *Service) Progress(ctx context.Context) (domain.LoadProgress, error) {
	return s.pipeline.Progress(ctx)
}

func (s *Service) ClearCache(ctx context.Context) error {
	return s.pipeline.ClearCache(ctx)
}

var rangeExtractors = map[domain.RangeField]func(domain.Planet) *float64{
	domain.RangeRadius:             func(p domain.Planet) *float64 { return p.Radius },
	domain.RangeMass:               func(p domain.Planet) *float64 { return p.Mass },
	domain.RangeDistance:           func(p domain.Planet) *float64 { return p.Distance },
	domain.RangeOrbitalPeriod:      func(p domain.Planet) *float64 { return p.OrbitalPeriod },
	domain.RangeEqTemperature:      func(p domain.Planet) *float64 { return p.EqTemperature },
	domain.RangeStellarTemperature: func(p domain.Planet) *float64 { return p.StellarTemperature },
	domain.RangeDiscoveryYear: func(p domain.Planet) *float64 {
		if p.DiscoveryYear == nil {
			return nil
		}
		year := float64(*p.DiscoveryYear)
		return &year
	},
}

var _ domain.Service = (*Service)(nil)
