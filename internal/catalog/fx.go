package catalog

import (
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(
		New,
		func(s *Service) domain.Service { return s },
	),
)
