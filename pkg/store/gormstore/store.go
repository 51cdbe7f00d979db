package gormstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/model"
)

type Store struct {
	db *gorm.DB
}

func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector(cfg), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &Store{db: db}, nil
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		return sqlite.Open(cfg.DSN())
	}
	return postgres.Open(cfg.DSN())
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.MasterDevelopment{},
		&model.SubDevelopment{},
		&model.Project{},
		&model.Inventory{},
		&model.Customer{},
	)
}

// EstimateCount returns the planner's row estimate on postgres and an exact
// count elsewhere or when the table has never been analyzed.
func EstimateCount(ctx context.Context, db *gorm.DB, table string) (int64, error) {
	if db.Dialector.Name() == "postgres" {
		var estimate int64
		err := db.WithContext(ctx).
			Raw("SELECT reltuples::bigint FROM pg_class WHERE relname = ?", table).
			Scan(&estimate).Error
		if err == nil && estimate >= 0 {
			return estimate, nil
		}
	}
	var total int64
	err := db.WithContext(ctx).Table(table).Count(&total).Error
	return total, err
}
