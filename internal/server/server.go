package server

import (
	"context"
	"net/http"
	"time"

	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/observability"
	obsmiddleware "github.com/astrosynth/atlas/internal/observability/logger"
	obstracing "github.com/astrosynth/atlas/internal/observability/tracing"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsCfg.Debug()))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	catalog domain.Service
	log     *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin     *gin.Engine
	Cfg     config.Config
	Catalog domain.Service
	Log     *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:  p.Gin,
		cfg:     p.Cfg,
		catalog: p.Catalog,
		log:     p.Log.Named("server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	planets := api.Group("/planets")
	planets.GET("", s.ListPlanets)
	planets.GET("/search", s.SearchPlanets)
	planets.GET("/range", s.FilterPlanetsByRange)
	planets.GET("/method/:method", s.FilterPlanetsByMethod)
	planets.GET("/:slug", s.GetPlanet)
	planets.POST("/:slug/favorite", s.ToggleFavorite)

	api.GET("/favorites", s.ListFavorites)
	api.GET("/progress", s.GetProgress)
	api.POST("/refresh", s.RefreshDataset)
	api.DELETE("/cache", s.ClearCache)
}
