package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
)

// syntheticSeed keeps the fallback set deterministic across runs, so a
// degraded install shows the same catalog every time.
const syntheticSeed = 2460000

// Generator is the last cascade tier. It performs no I/O and never fails.
type Generator struct {
	clock clock.Clock
	log   *zap.Logger
}

func NewGenerator(clk clock.Clock, log *zap.Logger) *Generator {
	return &Generator{
		clock: clk,
		log:   log.Named("synthetic"),
	}
}

// Generate produces count plausible placeholder planets.
func (g *Generator) Generate(_ context.Context, count int) []domain.Planet {
	if count <= 0 {
		count = 50
	}

	rng := rand.New(rand.NewSource(syntheticSeed))
	now := g.clock.Now()
	method := "Synthetic"
	year := 2024

	planets := make([]domain.Planet, 0, count)
	for i := 1; i <= count; i++ {
		host := fmt.Sprintf("ATL-%d", i)
		planets = append(planets, domain.Planet{
			Name:               fmt.Sprintf("ATL-%d b", i),
			HostName:           ptr(host),
			Distance:           ptr(10 + rng.Float64()*990),          // pc
			OrbitalPeriod:      ptr(0.5 + rng.Float64()*999.5),       // days
			Radius:             ptr(0.5 + rng.Float64()*14.5),        // earth radii
			Mass:               ptr(0.1 + rng.Float64()*317.9),       // earth masses
			EqTemperature:      ptr(150 + rng.Float64()*1050),        // K
			SemiMajorAxis:      ptr(0.01 + rng.Float64()*4.99),       // AU
			Eccentricity:       ptr(rng.Float64() * 0.6),
			StellarTemperature: ptr(2500 + rng.Float64()*5000),       // K
			StellarRadius:      ptr(0.1 + rng.Float64()*2.9),         // solar radii
			StellarMass:        ptr(0.08 + rng.Float64()*2.42),       // solar masses
			DiscoveryYear:      &year,
			DiscoveryMethod:    &method,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}

	g.log.Warn("serving synthetic fallback dataset", zap.Int("records", count))
	return planets
}

func ptr[T any](v T) *T { return &v }
