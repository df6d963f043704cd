// Package repository is the durable Job Store: a single SQLite file with
// one row per job record plus an append-only run log. All writes go
// through this package so the single-writer discipline holds.
package repository

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
)

// Open opens (creating if needed) the backing file and migrates the
// schema. The connection pool is pinned to one connection and the busy
// timeout bounds lock waits, so concurrent external writers queue instead
// of interleaving partial writes.
func Open(cfg config.StoreConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", cfg.Path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.JobRecord{}, &model.RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate store %s: %w", cfg.Path, err)
	}
	return db, nil
}
