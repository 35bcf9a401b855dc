// Package bundled loads the dataset asset shipped with the application: a
// JSON array of archive records, the same wire shape the remote API returns.
package bundled

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
)

type Loader struct {
	path  string
	clock clock.Clock
	log   *zap.Logger
}

func New(path string, clk clock.Clock, log *zap.Logger) *Loader {
	return &Loader{
		path:  path,
		clock: clk,
		log:   log.Named("bundled"),
	}
}

// Load parses the bundled asset. A missing file, malformed JSON, or a
// payload with zero valid records all fail the tier; the cascade treats any
// of those as "bundled produced nothing".
func (l *Loader) Load(ctx context.Context) ([]domain.Planet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBundledAssetMissing, l.path, err)
	}

	var records []domain.ArchiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBundledParse, l.path, err)
	}

	planets := domain.PlanetsFromArchive(records, l.clock.Now())
	if len(planets) == 0 {
		return nil, fmt.Errorf("%w: %s: no valid records", domain.ErrBundledParse, l.path)
	}

	l.log.Info("bundled dataset loaded",
		zap.String("path", l.path),
		zap.Int("records", len(planets)),
		zap.Int("skipped", len(records)-len(planets)),
	)
	return planets, nil
}
