// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
)

// Open returns an isolated in-memory database migrated with every model.
func Open(t testing.TB, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_busy_timeout=5000", name, uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a db.Client for services that need transactions.
func Client(t testing.TB, name string) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t, name)
	return db.NewFromConn(conn), conn
}
