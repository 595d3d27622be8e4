package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormDB_SQLite(t *testing.T) {
	db, err := NewGormDB(&DBConfig{Type: string(DBTypeSQLite), Database: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.PingContext(context.Background()))
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	_, err := NewGormDB(&DBConfig{Type: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestNewRepositories_MigratesSchema(t *testing.T) {
	db, err := NewGormDB(&DBConfig{Type: string(DBTypeSQLite), Database: ":memory:"})
	require.NoError(t, err)

	repos, err := NewRepositories(db)
	require.NoError(t, err)
	require.NotNil(t, repos.Graph)

	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.NoError(t, repos.Close())
}
