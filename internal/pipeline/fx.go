package pipeline

import (
	"github.com/astrosynth/atlas/internal/bundled"
	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/recordcache"
	"github.com/astrosynth/atlas/internal/remote"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("pipeline",
	fx.Provide(
		recordcache.New,
		newBundledLoader,
		newRemoteClient,
		newSyntheticGenerator,
		newNode,
		New,
		bindPipeline,
	),
)

func newBundledLoader(cfg config.Config, clk clock.Clock, log *zap.Logger) BundledLoader {
	return bundled.New(cfg.BundledAssetPath, clk, log)
}

func newRemoteClient(cfg config.Config, clk clock.Clock, log *zap.Logger) RemoteClient {
	return remote.New(remote.Config{
		BaseURL: cfg.RemoteBaseURL,
		Timeout: cfg.RemoteTimeout,
	}, clk, log)
}

func newSyntheticGenerator(clk clock.Clock, log *zap.Logger) SyntheticGenerator {
	return NewGenerator(clk, log)
}

func newNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func bindPipeline(s *Service) domain.Pipeline {
	return s
}
