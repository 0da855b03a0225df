package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setCreatedAt(t *testing.T, db *gorm.DB, table string, id any, ts time.Time) {
	t.Helper()
	if err := db.Table(table).Where("id = ?", id).Update("created_at", ts).Error; err != nil {
		t.Fatalf("set created_at: %v", err)
	}
}

func ctx() context.Context {
	return context.Background()
}
