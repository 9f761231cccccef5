// Package dbtest gives tests an isolated in-memory SQLite database.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"natours/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

// Setup points db.Instance at a fresh in-memory database for the duration of the test.
func Setup(t testing.TB) {
	t.Helper()
	dsn := fmt.Sprintf("file:natours_test_%d?mode=memory&cache=shared&_foreign_keys=1", counter.Add(1))
	instance, err := db.Open(sqlite.Open(dsn), logger.Discard)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := instance.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	previous := db.Instance
	db.Instance = instance
	t.Cleanup(func() {
		db.Instance = previous
		_ = sqlDB.Close()
	})
}
