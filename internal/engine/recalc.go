package engine

import (
	"context"
	"time"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// RecalculationService deterministically re-derives period totals and
// per-allocation spent amounts from raw transactions. It is a pure function
// of current store state, called as the final step before every commit.
type RecalculationService struct {
	currency string
}

// NewRecalculationService builds a RecalculationService for the given budget currency.
func NewRecalculationService(currency string) *RecalculationService {
	return &RecalculationService{currency: currency}
}

// EnsurePeriod returns the budget period for (year, month), creating an open,
// zeroed-out one if it does not yet exist.
func (s *RecalculationService) EnsurePeriod(ctx context.Context, uow store.UnitOfWork, year, month int, now time.Time) (*domain.BudgetPeriod, error) {
	period, err := uow.BudgetPeriods().ByYearMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if period != nil {
		return period, nil
	}

	period, err = domain.NewBudgetPeriod(year, month, s.currency, now)
	if err != nil {
		return nil, err
	}
	if err := uow.BudgetPeriods().Add(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// Recalculate reads raw transactions in [Y-M-01, last-day] and persists:
//  1. for each existing allocation in the period, spent = envelopeSpentInRange
//  2. period.totalIncome, period.totalSpent, period.totalAllocated
//
// Repeated calls with no intervening writes leave all derived values
// byte-identical. A closed period may not be recalculated.
func (s *RecalculationService) Recalculate(ctx context.Context, uow store.UnitOfWork, year, month int, now time.Time) (*domain.BudgetPeriod, error) {
	period, err := s.EnsurePeriod(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}

	if period.IsClosed {
		return nil, InvalidOperationErrorf("budget period %04d-%02d is closed and cannot be recalculated", year, month)
	}

	r := money.ForMonth(year, time.Month(month))

	allocations, err := uow.EnvelopeAllocations().ByPeriod(ctx, period.ID)
	if err != nil {
		return nil, err
	}

	totalAllocated := money.Zero(s.currency)
	for i := range allocations {
		spent, err := uow.Transactions().EnvelopeSpentInRange(ctx, allocations[i].EnvelopeID, r)
		if err != nil {
			return nil, err
		}
		allocations[i].SetSpent(spent, now)
		if err := uow.EnvelopeAllocations().Update(ctx, &allocations[i]); err != nil {
			return nil, err
		}

		totalAllocated, err = totalAllocated.Add(allocations[i].Allocated)
		if err != nil {
			return nil, err
		}
	}

	income, spentAbs, err := uow.Transactions().TotalsForRange(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := period.SetTotals(income, totalAllocated, spentAbs, now); err != nil {
		return nil, err
	}
	if err := uow.BudgetPeriods().Update(ctx, period); err != nil {
		return nil, err
	}

	return period, nil
}
