package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ArchiveColumns is the column set requested from the archive, in the order
// the original dataset ships them. The bundled asset uses the same keys.
var ArchiveColumns = []string{
	"pl_name",
	"hostname",
	"sy_dist",
	"pl_orbper",
	"pl_rade",
	"pl_bmasse",
	"pl_eqt",
	"pl_orbsmax",
	"pl_orbeccen",
	"st_spectype",
	"st_teff",
	"st_rad",
	"st_mass",
	"disc_year",
	"discoverymethod",
	"ra",
	"dec",
	"default_flag",
}

// ArchiveRecord is the wire shape shared by the bundled dataset and the
// remote tabular API. It is decoded exactly once, at the tier boundary;
// nothing past the loaders handles raw JSON maps.
type ArchiveRecord struct {
	Name               string       `json:"pl_name"`
	HostName           *string      `json:"hostname"`
	Distance           *float64     `json:"sy_dist"`
	OrbitalPeriod      *float64     `json:"pl_orbper"`
	Radius             *float64     `json:"pl_rade"`
	Mass               *float64     `json:"pl_bmasse"`
	EqTemperature      *float64     `json:"pl_eqt"`
	SemiMajorAxis      *float64     `json:"pl_orbsmax"`
	Eccentricity       *float64     `json:"pl_orbeccen"`
	SpectralType       *string      `json:"st_spectype"`
	StellarTemperature *float64     `json:"st_teff"`
	StellarRadius      *float64     `json:"st_rad"`
	StellarMass        *float64     `json:"st_mass"`
	DiscoveryYear      *flexibleInt `json:"disc_year"`
	DiscoveryMethod    *string      `json:"discoverymethod"`
	RA                 *float64     `json:"ra"`
	Dec                *float64     `json:"dec"`
	DefaultFlag        *flexibleInt `json:"default_flag"`
}

// flexibleInt tolerates archive exports that serialize integer columns as
// floats (6.0) or quoted strings ("6").
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}
	trimmed = strings.Trim(trimmed, `"`)

	var asFloat float64
	if err := json.Unmarshal([]byte(trimmed), &asFloat); err != nil {
		return err
	}
	*f = flexibleInt(asFloat)
	return nil
}

// Valid reports whether the record carries the one mandatory field.
func (r ArchiveRecord) Valid() bool {
	return strings.TrimSpace(r.Name) != ""
}

// ToPlanet maps the wire record into the domain model. Caller is expected to
// have checked Valid first; an invalid record maps to a Planet with an empty
// name, which storage rejects.
func (r ArchiveRecord) ToPlanet(now time.Time) Planet {
	p := Planet{
		Name:               strings.TrimSpace(r.Name),
		HostName:           trimmedString(r.HostName),
		Distance:           r.Distance,
		OrbitalPeriod:      r.OrbitalPeriod,
		Radius:             r.Radius,
		Mass:               r.Mass,
		EqTemperature:      r.EqTemperature,
		SemiMajorAxis:      r.SemiMajorAxis,
		Eccentricity:       r.Eccentricity,
		SpectralType:       trimmedString(r.SpectralType),
		StellarTemperature: r.StellarTemperature,
		StellarRadius:      r.StellarRadius,
		StellarMass:        r.StellarMass,
		DiscoveryMethod:    trimmedString(r.DiscoveryMethod),
		RA:                 r.RA,
		Dec:                r.Dec,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if r.DiscoveryYear != nil {
		year := int(*r.DiscoveryYear)
		p.DiscoveryYear = &year
	}
	if r.DefaultFlag != nil {
		flag := int(*r.DefaultFlag)
		p.DefaultFlag = &flag
	}
	return p
}

// PlanetsFromArchive converts a decoded archive payload, dropping records
// without a name.
func PlanetsFromArchive(records []ArchiveRecord, now time.Time) []Planet {
	planets := make([]Planet, 0, len(records))
	for _, record := range records {
		if !record.Valid() {
			continue
		}
		planets = append(planets, record.ToPlanet(now))
	}
	return planets
}

func trimmedString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
