// Package document implements the storage contract on a redis document
// store: one hash per logical table, one JSON document per planet keyed by
// name. It is the counterpart of the embedded relational store for
// deployments without a filesystem database.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/astrosynth/atlas/internal/planet/domain"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	planetsKey  = "atlas:planets"
	metadataKey = "atlas:planets:meta"
)

type Store struct {
	client *redis.Client
	log    *zap.Logger
}

func New(client *redis.Client, log *zap.Logger) *Store {
	return &Store{
		client: client,
		log:    log.Named("storage.document"),
	}
}

// Init verifies the store is reachable. Redis needs no schema, so repeated
// calls only re-ping.
func (s *Store) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageInit, err)
	}
	s.log.Info("document store ready")
	return nil
}

// PutBatch upserts each record as one hash field. HSET replaces existing
// fields, which gives the same keyed-replace semantics as the relational
// upsert; each field write is atomic on its own.
func (s *Store) PutBatch(ctx context.Context, planets []domain.Planet) error {
	if len(planets) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(planets))
	for _, p := range planets {
		if p.Name == "" {
			return fmt.Errorf("%w: planet without a name", domain.ErrInvalidName)
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("%w: encode %q: %v", domain.ErrStorageIO, p.Name, err)
		}
		values[p.Name] = doc
	}

	if err := s.client.HSet(ctx, planetsKey, values).Err(); err != nil {
		return fmt.Errorf("%w: put batch: %v", domain.ErrStorageIO, err)
	}
	return nil
}

// GetAll returns every stored record in name order, matching the relational
// store so callers can page either backend identically.
func (s *Store) GetAll(ctx context.Context) ([]domain.Planet, error) {
	docs, err := s.client.HGetAll(ctx, planetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: get all: %v", domain.ErrStorageIO, err)
	}

	planets := make([]domain.Planet, 0, len(docs))
	for name, doc := range docs {
		var p domain.Planet
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("%w: decode %q: %v", domain.ErrStorageIO, name, err)
		}
		planets = append(planets, p)
	}
	sort.Slice(planets, func(i, j int) bool { return planets[i].Name < planets[j].Name })
	return planets, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	count, err := s.client.HLen(ctx, planetsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStorageIO, err)
	}
	return count, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, planetsKey).Err(); err != nil {
		return fmt.Errorf("%w: clear: %v", domain.ErrStorageIO, err)
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context) (*domain.CacheMetadata, error) {
	doc, err := s.client.Get(ctx, metadataKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get metadata: %v", domain.ErrStorageIO, err)
	}

	var meta domain.CacheMetadata
	if err := json.Unmarshal([]byte(doc), &meta); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %v", domain.ErrStorageIO, err)
	}
	return &meta, nil
}

func (s *Store) SetMetadata(ctx context.Context, meta domain.CacheMetadata) error {
	meta.Key = domain.MetadataKey
	doc, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", domain.ErrStorageIO, err)
	}
	if err := s.client.Set(ctx, metadataKey, doc, 0).Err(); err != nil {
		return fmt.Errorf("%w: set metadata: %v", domain.ErrStorageIO, err)
	}
	return nil
}

var _ domain.Backend = (*Store)(nil)
