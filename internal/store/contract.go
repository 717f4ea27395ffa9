// Package store defines the repository and unit-of-work contract the budget
// engine consumes. The concrete implementation (package gormstore) is a thin
// persistence adapter; the engine never imports it directly.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

// AccountRepository is the per-entity contract for Accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAll(ctx context.Context) ([]domain.Account, error)
	Add(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// AccountBalance sums non-deleted transaction amounts for the account.
	AccountBalance(ctx context.Context, id uuid.UUID) (money.Money, error)
	// AccountClearedBalance sums non-deleted, cleared transaction amounts.
	AccountClearedBalance(ctx context.Context, id uuid.UUID) (money.Money, error)
}

// EnvelopeRepository is the per-entity contract for Envelopes.
type EnvelopeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Envelope, error)
	GetAll(ctx context.Context) ([]domain.Envelope, error)
	Add(ctx context.Context, e *domain.Envelope) error
	Update(ctx context.Context, e *domain.Envelope) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ListActiveWithGoals returns active, non-hidden envelopes that have a goal set.
	ListActiveWithGoals(ctx context.Context) ([]domain.Envelope, error)
	// ListByGroup returns active envelopes ordered by group, then sort order.
	ListByGroup(ctx context.Context) ([]domain.Envelope, error)
}

// TransactionRepository is the per-entity contract for Transactions.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetAll(ctx context.Context) ([]domain.Transaction, error)
	Add(ctx context.Context, t *domain.Transaction) error
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	ByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	ByEnvelope(ctx context.Context, envelopeID uuid.UUID) ([]domain.Transaction, error)
	ByDateRange(ctx context.Context, r money.DateRange) ([]domain.Transaction, error)
	ByAccountAndDateRange(ctx context.Context, accountID uuid.UUID, r money.DateRange) ([]domain.Transaction, error)
	UnclearedByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	// Unassigned returns outflows with no envelope and no splits, excluding transfers and deleted rows.
	Unassigned(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	// EnvelopeSpentInRange sums |amount| for non-deleted direct-assignment outflows
	// plus split-line contributions to this envelope, within the range.
	EnvelopeSpentInRange(ctx context.Context, envelopeID uuid.UUID, r money.DateRange) (money.Money, error)
	// TotalsForRange returns (incomeSum, spentAbsSum) excluding transfers and deleted rows.
	TotalsForRange(ctx context.Context, r money.DateRange) (income, spentAbs money.Money, err error)
	// ExistsFingerprint reports whether a non-deleted transaction with this fingerprint
	// already exists for the account within the date range.
	ExistsFingerprint(ctx context.Context, accountID uuid.UUID, r money.DateRange, fingerprint string) (bool, error)
	// RecentEnvelopes returns up to `limit` distinct envelope ids most recently used
	// by non-deleted outflows on this account.
	RecentEnvelopes(ctx context.Context, accountID uuid.UUID, limit int) ([]uuid.UUID, error)
}

// SplitLineRepository is the per-entity contract for TransactionSplits.
type SplitLineRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SplitLine, error)
	GetAll(ctx context.Context) ([]domain.SplitLine, error)
	Add(ctx context.Context, s *domain.SplitLine) error
	Update(ctx context.Context, s *domain.SplitLine) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	ByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.SplitLine, error)
	// ReplaceForTransaction atomically deletes all existing split lines for a
	// transaction and inserts the new set.
	ReplaceForTransaction(ctx context.Context, transactionID uuid.UUID, lines []domain.SplitLine) error
}

// BudgetPeriodRepository is the per-entity contract for BudgetPeriods.
type BudgetPeriodRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BudgetPeriod, error)
	GetAll(ctx context.Context) ([]domain.BudgetPeriod, error)
	Add(ctx context.Context, p *domain.BudgetPeriod) error
	Update(ctx context.Context, p *domain.BudgetPeriod) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ByYearMonth looks up the period for the unique (year, month) key.
	ByYearMonth(ctx context.Context, year, month int) (*domain.BudgetPeriod, error)
}

// EnvelopeAllocationRepository is the per-entity contract for EnvelopeAllocations.
type EnvelopeAllocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EnvelopeAllocation, error)
	GetAll(ctx context.Context) ([]domain.EnvelopeAllocation, error)
	Add(ctx context.Context, a *domain.EnvelopeAllocation) error
	Update(ctx context.Context, a *domain.EnvelopeAllocation) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ByEnvelopeAndPeriod looks up the allocation for the unique (envelopeId, budgetPeriodId) key.
	ByEnvelopeAndPeriod(ctx context.Context, envelopeID, budgetPeriodID uuid.UUID) (*domain.EnvelopeAllocation, error)
	// ByPeriod returns every allocation row for a budget period.
	ByPeriod(ctx context.Context, budgetPeriodID uuid.UUID) ([]domain.EnvelopeAllocation, error)
	// PeriodTotalAllocated sums the allocated amount of every allocation in the period.
	PeriodTotalAllocated(ctx context.Context, budgetPeriodID uuid.UUID, currency string) (money.Money, error)
}

// PayeeRepository is the per-entity contract for Payees.
type PayeeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payee, error)
	GetAll(ctx context.Context) ([]domain.Payee, error)
	Add(ctx context.Context, p *domain.Payee) error
	Update(ctx context.Context, p *domain.Payee) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ByName looks up a payee by its case-insensitive normalized name.
	ByName(ctx context.Context, name string) (*domain.Payee, error)
	// Search ranks payees matching a prefix or substring by transactionCount desc.
	Search(ctx context.Context, query string) ([]domain.Payee, error)
}

// UnitOfWork scopes a single store connection/transaction for the duration of
// one engine operation. All engine operations that mutate state begin one,
// commit it on success, and roll it back on any failure.
type UnitOfWork interface {
	Accounts() AccountRepository
	Envelopes() EnvelopeRepository
	Transactions() TransactionRepository
	TransactionSplits() SplitLineRepository
	BudgetPeriods() BudgetPeriodRepository
	EnvelopeAllocations() EnvelopeAllocationRepository
	Payees() PayeeRepository

	// Commit finalizes all writes made through this unit of work.
	Commit() error
	// Rollback discards all writes made through this unit of work. Safe to
	// call after Commit (a no-op in that case).
	Rollback() error
}

// Store opens units of work against the persistent backing store.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Now is indirected so tests can control timestamps; production code uses time.Now.
var Now = time.Now
