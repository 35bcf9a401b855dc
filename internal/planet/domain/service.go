package domain

import (
	"context"
	"errors"
)

// ProgressFunc reports incremental load progress. Implementations must be
// called with a non-decreasing loaded value and a final call where
// loaded == total.
type ProgressFunc func(loaded, total int)

// FetchRequest is a page request against the acquisition pipeline.
type FetchRequest struct {
	Limit        int
	Offset       int
	ForceRefresh bool
}

// Pipeline is the data-acquisition orchestrator: cache short-circuit,
// single-flight cascade across bundled/remote/synthetic tiers, and the
// in-memory mirror. All storage writes go through it.
type Pipeline interface {
	Fetch(ctx context.Context, req FetchRequest) ([]Planet, error)
	LoadAll(ctx context.Context, onProgress ProgressFunc) ([]Planet, error)
	Progress(ctx context.Context) (LoadProgress, error)
	ClearCache(ctx context.Context) error
	ToggleFavorite(ctx context.Context, name string) (*Planet, error)
}

// RangeField enumerates the numeric fields the catalog can filter on.
type RangeField string

const (
	RangeRadius             RangeField = "radius"
	RangeMass               RangeField = "mass"
	RangeDistance           RangeField = "distance"
	RangeOrbitalPeriod      RangeField = "orbital_period"
	RangeEqTemperature      RangeField = "eq_temperature"
	RangeStellarTemperature RangeField = "stellar_temperature"
	RangeDiscoveryYear      RangeField = "discovery_year"
)

type ListRequest struct {
	Limit        int
	Offset       int
	ForceRefresh bool
}

type RangeRequest struct {
	Field RangeField
	Min   *float64
	Max   *float64
}

// Service is the catalog façade consumed by the HTTP layer: read-shaped
// queries over the pipeline's materialized record set plus the favorite
// toggle. Scoring and visualization stay outside this boundary.
type Service interface {
	List(ctx context.Context, req ListRequest) ([]Planet, error)
	Search(ctx context.Context, query string) ([]Planet, error)
	FilterByRange(ctx context.Context, req RangeRequest) ([]Planet, error)
	FilterByDiscoveryMethod(ctx context.Context, method string) ([]Planet, error)
	FindBySlug(ctx context.Context, slug string) (*Planet, error)
	Favorites(ctx context.Context) ([]Planet, error)
	ToggleFavorite(ctx context.Context, name string) (*Planet, error)
	Refresh(ctx context.Context, onProgress ProgressFunc) ([]Planet, error)
	Progress(ctx context.Context) (LoadProgress, error)
	ClearCache(ctx context.Context) error
}

var (
	ErrInvalidRangeField = errors.New("invalid_range_field")
	ErrEmptyQuery        = errors.New("empty_query")
)
