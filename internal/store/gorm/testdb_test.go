package gormstore

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&accountRow{}, &envelopeRow{}, &transactionRow{}, &splitLineRow{},
		&budgetPeriodRow{}, &envelopeAllocationRow{}, &payeeRow{},
	))

	return NewFromDB(db, "USD")
}
