package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/store"
)

// Store opens gorm transactions as store.UnitOfWork instances. currency is
// the single budget currency this installation runs in: every aggregate
// query that returns a zero-row Money (an empty SUM) needs a currency to tag
// that zero with, since the aggregate tables carry no global currency row.
type Store struct {
	db       *gorm.DB
	currency string
}

// Open connects to the SQLite database at dsn and migrates the schema.
func Open(dsn, currency string, gormConfig *gorm.Config, dialector func(string) gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("gormstore: failed to connect: %w", err)
	}

	if err := db.AutoMigrate(
		&accountRow{}, &envelopeRow{}, &transactionRow{}, &splitLineRow{},
		&budgetPeriodRow{}, &envelopeAllocationRow{}, &payeeRow{},
	); err != nil {
		return nil, fmt.Errorf("gormstore: failed to migrate: %w", err)
	}

	return &Store{db: db, currency: currency}, nil
}

// NewFromDB wraps an already-open, already-migrated *gorm.DB (used by tests
// against an in-memory database).
func NewFromDB(db *gorm.DB, currency string) *Store {
	return &Store{db: db, currency: currency}
}

// Begin opens a new gorm transaction as a unit of work.
func (s *Store) Begin(ctx context.Context) (store.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &unitOfWork{tx: tx, currency: s.currency}, nil
}

type unitOfWork struct {
	tx        *gorm.DB
	currency  string
	committed bool
}

func (u *unitOfWork) Accounts() store.AccountRepository {
	return accountRepository{db: u.tx, currency: u.currency}
}
func (u *unitOfWork) Envelopes() store.EnvelopeRepository { return envelopeRepository{db: u.tx} }
func (u *unitOfWork) Transactions() store.TransactionRepository {
	return transactionRepository{db: u.tx, currency: u.currency}
}
func (u *unitOfWork) TransactionSplits() store.SplitLineRepository {
	return splitLineRepository{db: u.tx}
}
func (u *unitOfWork) BudgetPeriods() store.BudgetPeriodRepository {
	return budgetPeriodRepository{db: u.tx}
}
func (u *unitOfWork) EnvelopeAllocations() store.EnvelopeAllocationRepository {
	return envelopeAllocationRepository{db: u.tx}
}
func (u *unitOfWork) Payees() store.PayeeRepository { return payeeRepository{db: u.tx} }

func (u *unitOfWork) Commit() error {
	if u.committed {
		return nil
	}
	u.committed = true
	return u.tx.Commit().Error
}

// Rollback is a no-op once Commit has succeeded, matching the contract's
// "safe to call after Commit" guarantee.
func (u *unitOfWork) Rollback() error {
	if u.committed {
		return nil
	}
	return u.tx.Rollback().Error
}
