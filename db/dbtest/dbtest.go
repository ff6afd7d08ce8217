// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db"
	"gorm.io/gorm"
)

// Open returns a migrated database backed by a file in t.TempDir. A file is
// used instead of :memory: so every pooled connection sees the same data.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.Open(config.DatabaseConfig{
		Type: config.DatabaseTypeSQLite,
		File: filepath.Join(t.TempDir(), "ule-test.db"),
	}, "", core.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return conn
}
