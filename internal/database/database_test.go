package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/internal/models"
)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}
}

func TestNewAndMigrate(t *testing.T) {
	db, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Ping(context.Background()))
	assert.Equal(t, "sqlite", db.Driver())

	for _, table := range []string{"sources", "categories", "content_items", "cache_metadata", "favorites", "watch_history"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestTransactionRollback(t *testing.T) {
	db, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	src := &models.Source{
		Name:     "tx-test",
		URL:      "http://example.com:8080",
		Username: "user",
		Password: "pass",
	}

	err = db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(src).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.WithContext(ctx).Model(&models.Source{}).Count(&count).Error)
	assert.Zero(t, count)
}
