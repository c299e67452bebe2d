package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.SQL.QueryRow(`SELECT COUNT(*) FROM execution_metrics`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Re-running migrations on an up-to-date schema is not an error.
	assert.NoError(t, RunMigrations(path))
}
