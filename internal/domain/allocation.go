package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

// ErrAllocationNegative is returned when an allocation amount would be negative.
var ErrAllocationNegative = errors.New("domain: allocated amount must not be negative")

// EnvelopeAllocation is the quantity of money assigned to an Envelope for a
// specific BudgetPeriod, plus what rolled over from the prior period and
// what has been spent.
type EnvelopeAllocation struct {
	ID                   uuid.UUID
	EnvelopeID           uuid.UUID
	BudgetPeriodID       uuid.UUID
	Allocated            money.Money
	RolloverFromPrevious money.Money
	Spent                money.Money
	Currency             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewEnvelopeAllocation creates a zeroed allocation row for an envelope/period pair.
func NewEnvelopeAllocation(envelopeID, budgetPeriodID uuid.UUID, currency string, now time.Time) *EnvelopeAllocation {
	zero := money.Zero(currency)
	return &EnvelopeAllocation{
		ID:                   uuid.New(),
		EnvelopeID:           envelopeID,
		BudgetPeriodID:       budgetPeriodID,
		Allocated:            zero,
		RolloverFromPrevious: zero,
		Spent:                zero,
		Currency:             currency,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// EnvelopeAllocationFromPersistedState reconstructs an EnvelopeAllocation
// from fully-persisted fields, bypassing creation preconditions. Used
// exclusively by the store adapter when hydrating rows.
func EnvelopeAllocationFromPersistedState(id, envelopeID, budgetPeriodID uuid.UUID, allocated, rolloverFromPrevious, spent money.Money, currency string, createdAt, updatedAt time.Time) *EnvelopeAllocation {
	return &EnvelopeAllocation{
		ID:                   id,
		EnvelopeID:           envelopeID,
		BudgetPeriodID:       budgetPeriodID,
		Allocated:            allocated,
		RolloverFromPrevious: rolloverFromPrevious,
		Spent:                spent,
		Currency:             currency,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}
}

// Available is the spendable balance: allocated + rolloverFromPrevious - spent.
func (a EnvelopeAllocation) Available() (money.Money, error) {
	sum, err := a.Allocated.Add(a.RolloverFromPrevious)
	if err != nil {
		return money.Money{}, err
	}
	return sum.Sub(a.Spent)
}

// TotalBudgeted is allocated + rolloverFromPrevious.
func (a EnvelopeAllocation) TotalBudgeted() (money.Money, error) {
	return a.Allocated.Add(a.RolloverFromPrevious)
}

// SetAllocated overwrites the allocated amount. Rejects negative amounts.
func (a *EnvelopeAllocation) SetAllocated(amount money.Money, now time.Time) error {
	if amount.IsNegative() {
		return ErrAllocationNegative
	}
	a.Allocated = amount
	a.UpdatedAt = now
	return nil
}

// SetSpent overwrites the derived spent amount (set by the recalculation service).
func (a *EnvelopeAllocation) SetSpent(amount money.Money, now time.Time) {
	a.Spent = amount
	a.UpdatedAt = now
}

// SetRolloverFromPrevious overwrites the signed rollover carried from the prior period.
func (a *EnvelopeAllocation) SetRolloverFromPrevious(amount money.Money, now time.Time) {
	a.RolloverFromPrevious = amount
	a.UpdatedAt = now
}
