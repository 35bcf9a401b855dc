// Package storage selects the concrete backend at runtime. Both engines
// satisfy the same contract; which one runs is configuration, not build
// wiring.
package storage

import (
	"context"
	"fmt"

	"github.com/astrosynth/atlas/internal/config"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/storage/document"
	sqlitestore "github.com/astrosynth/atlas/internal/storage/sqlite"
	"github.com/astrosynth/atlas/pkg/db"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DriverSQLite   = "sqlite"
	DriverDocument = "document"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// NewBackend opens the configured engine and registers its shutdown hook.
func NewBackend(p Params) (domain.Backend, error) {
	switch p.Config.StorageDriver {
	case DriverSQLite:
		conn, err := db.Open(p.Config, p.Log)
		if err != nil {
			return nil, fmt.Errorf("open relational store: %w", err)
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
		return sqlitestore.New(conn, p.Config.DBType, p.Log), nil

	case DriverDocument:
		client := redis.NewClient(&redis.Options{
			Addr:     p.Config.RedisAddr,
			Password: p.Config.RedisPassword,
			DB:       p.Config.RedisDB,
		})
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return document.New(client, p.Log), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", p.Config.StorageDriver)
	}
}

func initBackend(lc fx.Lifecycle, backend domain.Backend) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return backend.Init(ctx)
		},
	})
}

var Module = fx.Module("storage",
	fx.Provide(NewBackend),
	fx.Invoke(initBackend),
)
