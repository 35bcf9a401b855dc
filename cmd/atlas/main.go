package main

import (
	"github.com/astrosynth/atlas/internal/catalog"
	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/observability"
	"github.com/astrosynth/atlas/internal/pipeline"
	"github.com/astrosynth/atlas/internal/server"
	"github.com/astrosynth/atlas/internal/storage"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		storage.Module,
		pipeline.Module,
		catalog.Module,
		server.Module,
	).Run()
}
