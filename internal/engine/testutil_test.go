package engine_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormstore "github.com/budgetengine/core/internal/store/gorm"
)

// newTestStore opens a fresh in-memory SQLite-backed store for one test.
func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	s, err := gormstore.Open(":memory:", "USD", &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}, sqlite.Open)
	require.NoError(t, err)
	return s
}
