// Package sqlite implements the storage contract on an embedded relational
// database via gorm. The same store also runs against postgres/mysql when the
// service is deployed with a hosted database; behavior under the contract is
// identical.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/astrosynth/atlas/internal/migration"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	dbType string
	log    *zap.Logger

	mu          sync.Mutex
	initialized bool
}

func New(db *gorm.DB, dbType string, log *zap.Logger) *Store {
	return &Store{
		db:     db,
		dbType: dbType,
		log:    log.Named("storage.sqlite"),
	}
}

// Init applies the embedded schema. Safe to call repeatedly; only the first
// successful call does work.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	sqlDB, err := s.db.WithContext(ctx).DB()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageInit, err)
	}
	if err := migration.Run(sqlDB, s.dbType); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageInit, err)
	}

	s.initialized = true
	s.log.Info("relational store ready", zap.String("db_type", s.dbType))
	return nil
}

// PutBatch upserts records keyed by name. Each row is written atomically;
// the batch as a whole is not transactional.
func (s *Store) PutBatch(ctx context.Context, planets []domain.Planet) error {
	if len(planets) == 0 {
		return nil
	}
	for _, p := range planets {
		if p.Name == "" {
			return fmt.Errorf("%w: planet without a name", domain.ErrInvalidName)
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		CreateInBatches(planets, 500).Error
	if err != nil {
		return fmt.Errorf("%w: put batch: %v", domain.ErrStorageIO, err)
	}
	return nil
}

// GetAll returns every stored record in name order, which keeps paging over
// the result stable.
func (s *Store) GetAll(ctx context.Context) ([]domain.Planet, error) {
	var planets []domain.Planet
	err := s.db.WithContext(ctx).
		Order("name asc").
		Find(&planets).Error
	if err != nil {
		return nil, fmt.Errorf("%w: get all: %v", domain.ErrStorageIO, err)
	}
	return planets, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Planet{}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStorageIO, err)
	}
	return count, nil
}

func (s *Store) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Exec("DELETE FROM planets").Error
	if err != nil {
		return fmt.Errorf("%w: clear: %v", domain.ErrStorageIO, err)
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context) (*domain.CacheMetadata, error) {
	var meta domain.CacheMetadata
	err := s.db.WithContext(ctx).
		Where("key = ?", domain.MetadataKey).
		First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get metadata: %v", domain.ErrStorageIO, err)
	}
	return &meta, nil
}

func (s *Store) SetMetadata(ctx context.Context, meta domain.CacheMetadata) error {
	meta.Key = domain.MetadataKey
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&meta).Error
	if err != nil {
		return fmt.Errorf("%w: set metadata: %v", domain.ErrStorageIO, err)
	}
	return nil
}

var _ domain.Backend = (*Store)(nil)
