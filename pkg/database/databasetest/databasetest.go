// Package databasetest opens a migrated Postgres database for integration
// tests. Tests using it are skipped unless TEST_DATABASE_URL is set.
package databasetest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"thriftgram/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const EnvURL = "TEST_DATABASE_URL"

// migrationLock serializes goose runs from test binaries of different packages.
const migrationLock = 74_201

// Open migrates the database at TEST_DATABASE_URL to the latest version and
// returns a gorm handle closed at the end of the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		t.Skipf("%s not set, skipping integration test", EnvURL)
	}

	migrate(t, dsn)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func migrate(t testing.TB, dsn string) {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	lockConn, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer lockConn.Close()

	_, err = lockConn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLock)
	require.NoError(t, err)
	defer lockConn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", migrationLock)

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(ctx, sqlDB, "."))
}
