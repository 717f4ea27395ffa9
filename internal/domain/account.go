// Package domain implements the entities of the envelope budget engine.
// Each entity enforces its own invariants through narrow mutators; callers
// can never construct or mutate an entity into an invalid state.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

// AccountType enumerates the kinds of asset/liability account the engine tracks.
type AccountType int

const (
	Checking AccountType = iota
	Savings
	CreditCard
	Cash
	LineOfCredit
	Investment
	OtherAccount
)

var (
	ErrAccountNameRequired    = errors.New("domain: account name is required")
	ErrBalanceMismatch        = errors.New("domain: balance must equal cleared + uncleared")
	ErrAccountNotZeroToClose  = errors.New("domain: account balance must be zero to close")
	ErrAccountInactive        = errors.New("domain: account is not active")
)

// Account is an asset, liability, or cash account that transactions post against.
type Account struct {
	ID                uuid.UUID
	Name              string
	Type              AccountType
	Balance           money.Money
	ClearedBalance    money.Money
	UnclearedBalance  money.Money
	Currency          string
	IsActive          bool
	IsOnBudget        bool
	SortOrder         int
	Note              string
	LastReconciledAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAccount is the creation factory: it enforces the preconditions for a
// brand-new account (zero balances, active, named) and stamps timestamps.
func NewAccount(name string, typ AccountType, currency string, isOnBudget bool, sortOrder int, now time.Time) (*Account, error) {
	if name == "" {
		return nil, ErrAccountNameRequired
	}

	zero, err := money.New(money.Zero(currency).Amount(), currency)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:               uuid.New(),
		Name:             name,
		Type:             typ,
		Balance:          zero,
		ClearedBalance:   zero,
		UnclearedBalance: zero,
		Currency:         currency,
		IsActive:         true,
		IsOnBudget:       isOnBudget,
		SortOrder:        sortOrder,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// FromPersistedState reconstructs an Account from fully-persisted fields,
// bypassing creation preconditions. Used exclusively by the store adapter
// when hydrating rows.
func FromPersistedState(id uuid.UUID, name string, typ AccountType, balance, cleared, uncleared money.Money, currency string, isActive, isOnBudget bool, sortOrder int, note string, lastReconciledAt *time.Time, createdAt, updatedAt time.Time) *Account {
	return &Account{
		ID:               id,
		Name:             name,
		Type:             typ,
		Balance:          balance,
		ClearedBalance:   cleared,
		UnclearedBalance: uncleared,
		Currency:         currency,
		IsActive:         isActive,
		IsOnBudget:       isOnBudget,
		SortOrder:        sortOrder,
		Note:             note,
		LastReconciledAt: lastReconciledAt,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

// SetBalances replaces the cached cleared/uncleared balances, recomputing the
// total. Called by the transaction service after every mutation that
// touches this account.
func (a *Account) SetBalances(cleared, uncleared money.Money, now time.Time) error {
	total, err := cleared.Add(uncleared)
	if err != nil {
		return err
	}

	a.ClearedBalance = cleared
	a.UnclearedBalance = uncleared
	a.Balance = total
	a.UpdatedAt = now
	return nil
}

// Close archives the account. Requires a zero balance.
func (a *Account) Close(now time.Time) error {
	if !a.Balance.IsZero() {
		return ErrAccountNotZeroToClose
	}
	a.IsActive = false
	a.UpdatedAt = now
	return nil
}

// Reopen reactivates a previously closed account.
func (a *Account) Reopen(now time.Time) {
	a.IsActive = true
	a.UpdatedAt = now
}

// IsLiability reports whether this account's balance counts toward
// liabilities regardless of its sign (credit-type accounts).
func (a Account) IsLiability() bool {
	return a.Type == CreditCard || a.Type == LineOfCredit
}

// MarkReconciled records the reconciliation timestamp.
func (a *Account) MarkReconciled(at time.Time) {
	t := at
	a.LastReconciledAt = &t
	a.UpdatedAt = at
}

// Rename changes the account's display name.
func (a *Account) Rename(name string, now time.Time) error {
	if name == "" {
		return ErrAccountNameRequired
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}

func (t AccountType) String() string {
	switch t {
	case Checking:
		return "checking"
	case Savings:
		return "savings"
	case CreditCard:
		return "creditCard"
	case Cash:
		return "cash"
	case LineOfCredit:
		return "lineOfCredit"
	case Investment:
		return "investment"
	default:
		return "other"
	}
}
