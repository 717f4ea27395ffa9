package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

var (
	ErrInvalidMonth     = errors.New("domain: month must be between 1 and 12")
	ErrPeriodClosed     = errors.New("domain: budget period is closed")
)

// BudgetPeriod is a single calendar month's budget bookkeeping: total income,
// total allocated across envelopes, total spent, and cash carried over from
// the prior period.
type BudgetPeriod struct {
	ID             uuid.UUID
	Year           int
	Month          int
	TotalIncome    money.Money
	TotalAllocated money.Money
	TotalSpent     money.Money
	CarriedOver    money.Money
	Currency       string
	IsClosed       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewBudgetPeriod creates a fresh, open, zeroed-out period.
func NewBudgetPeriod(year, month int, currency string, now time.Time) (*BudgetPeriod, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	zero := money.Zero(currency)
	return &BudgetPeriod{
		ID:             uuid.New(),
		Year:           year,
		Month:          month,
		TotalIncome:    zero,
		TotalAllocated: zero,
		TotalSpent:     zero,
		CarriedOver:    zero,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// BudgetPeriodFromPersistedState reconstructs a BudgetPeriod from
// fully-persisted fields, bypassing creation preconditions. Used exclusively
// by the store adapter when hydrating rows.
func BudgetPeriodFromPersistedState(id uuid.UUID, year, month int, totalIncome, totalAllocated, totalSpent, carriedOver money.Money, currency string, isClosed bool, createdAt, updatedAt time.Time) *BudgetPeriod {
	return &BudgetPeriod{
		ID:             id,
		Year:           year,
		Month:          month,
		TotalIncome:    totalIncome,
		TotalAllocated: totalAllocated,
		TotalSpent:     totalSpent,
		CarriedOver:    carriedOver,
		Currency:       currency,
		IsClosed:       isClosed,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// ReadyToAssign is unassigned money in the period: income + carriedOver - totalAllocated.
func (p BudgetPeriod) ReadyToAssign() (money.Money, error) {
	sum, err := p.TotalIncome.Add(p.CarriedOver)
	if err != nil {
		return money.Money{}, err
	}
	return sum.Sub(p.TotalAllocated)
}

// Remaining is totalAllocated - totalSpent.
func (p BudgetPeriod) Remaining() (money.Money, error) {
	return p.TotalAllocated.Sub(p.TotalSpent)
}

// SetTotals overwrites the derived totals. Rejects closed periods.
func (p *BudgetPeriod) SetTotals(income, allocated, spent money.Money, now time.Time) error {
	if p.IsClosed {
		return ErrPeriodClosed
	}
	p.TotalIncome = income
	p.TotalAllocated = allocated
	p.TotalSpent = spent
	p.UpdatedAt = now
	return nil
}

// SetCarriedOver sets the cash carried over from the prior period. Used by rollover.
func (p *BudgetPeriod) SetCarriedOver(amount money.Money, now time.Time) {
	p.CarriedOver = amount
	p.UpdatedAt = now
}

// Close marks the period closed; no further total mutation is permitted.
func (p *BudgetPeriod) Close(now time.Time) {
	p.IsClosed = true
	p.UpdatedAt = now
}
