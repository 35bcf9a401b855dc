package domain

import (
	"time"

	"gorm.io/datatypes"
)

// MetadataKey is the fixed primary key of the singleton cache metadata row.
const MetadataKey = "planets"

// Planet is the single domain record flowing through the acquisition pipeline.
// Name is the natural key; every record written under an existing name replaces
// the prior record. All astronomical fields are optional; a nil pointer means
// the archive did not report the value.
type Planet struct {
	Name string `gorm:"primaryKey;column:name" json:"name"`

	HostName           *string  `gorm:"column:host_name" json:"host_name,omitempty"`
	Distance           *float64 `gorm:"column:distance;index" json:"distance,omitempty"`
	OrbitalPeriod      *float64 `gorm:"column:orbital_period" json:"orbital_period,omitempty"`
	Radius             *float64 `gorm:"column:radius;index" json:"radius,omitempty"`
	Mass               *float64 `gorm:"column:mass;index" json:"mass,omitempty"`
	EqTemperature      *float64 `gorm:"column:eq_temperature" json:"eq_temperature,omitempty"`
	SemiMajorAxis      *float64 `gorm:"column:semi_major_axis" json:"semi_major_axis,omitempty"`
	Eccentricity       *float64 `gorm:"column:eccentricity" json:"eccentricity,omitempty"`
	SpectralType       *string  `gorm:"column:spectral_type" json:"spectral_type,omitempty"`
	StellarTemperature *float64 `gorm:"column:stellar_temperature;index" json:"stellar_temperature,omitempty"`
	StellarRadius      *float64 `gorm:"column:stellar_radius" json:"stellar_radius,omitempty"`
	StellarMass        *float64 `gorm:"column:stellar_mass" json:"stellar_mass,omitempty"`
	DiscoveryYear      *int     `gorm:"column:discovery_year;index" json:"discovery_year,omitempty"`
	DiscoveryMethod    *string  `gorm:"column:discovery_method;index" json:"discovery_method,omitempty"`
	RA                 *float64 `gorm:"column:ra" json:"ra,omitempty"`
	Dec                *float64 `gorm:"column:dec" json:"dec,omitempty"`
	DefaultFlag        *int     `gorm:"column:default_flag" json:"default_flag,omitempty"`

	// Attached by downstream collaborators (scoring, favorites UX); carried
	// through the cache but not part of its invariants.
	HabitabilityScore *float64 `gorm:"column:habitability_score" json:"habitability_score,omitempty"`
	IsFavorite        bool     `gorm:"column:is_favorite" json:"is_favorite"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Planet) TableName() string { return "planets" }

// CacheMetadata is the singleton bookkeeping row for a storage instance.
// RecordCount and LastUpdated always change together.
type CacheMetadata struct {
	Key             string            `gorm:"primaryKey;column:key" json:"key"`
	LastUpdated     time.Time         `gorm:"column:last_updated" json:"last_updated"`
	RecordCount     int64             `gorm:"column:record_count" json:"record_count"`
	SourceBreakdown datatypes.JSONMap `gorm:"column:source_breakdown" json:"source_breakdown,omitempty"`
}

func (CacheMetadata) TableName() string { return "cache_metadata" }

// LoadProgress describes cache state without triggering a load.
type LoadProgress struct {
	CachedCount int64      `json:"cached_count"`
	IsFresh     bool       `json:"is_fresh"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Source identifies the tier that produced a batch of records.
type Source string

const (
	SourceCache     Source = "cache"
	SourceBundled   Source = "bundled"
	SourceRemote    Source = "remote"
	SourceSynthetic Source = "synthetic"
)
