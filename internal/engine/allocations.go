package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// AutoAssignMode selects the envelope visiting order for AutoAssignToGoals.
type AutoAssignMode int

const (
	EarliestGoalDateFirst AutoAssignMode = iota
	SmallestGoalFirst
)

// AllocationService implements component F: setting and adjusting envelope
// allocations, moving money between envelopes, goal management, and month
// rollover.
type AllocationService struct {
	currency string
	recalc   *RecalculationService
}

// NewAllocationService builds an AllocationService. recalc is used to ensure
// and recompute the budget periods it operates against.
func NewAllocationService(currency string, recalc *RecalculationService) *AllocationService {
	return &AllocationService{currency: currency, recalc: recalc}
}

// SetAllocation sets the allocated amount for an envelope in a given month,
// creating the period and allocation if absent. Rejects negative amounts.
func (s *AllocationService) SetAllocation(ctx context.Context, uow store.UnitOfWork, envelopeID uuid.UUID, amount money.Money, year, month int, now time.Time) (*domain.EnvelopeAllocation, error) {
	if amount.IsNegative() {
		return nil, domain.ErrAllocationNegative
	}
	if err := s.requireEnvelope(ctx, uow, envelopeID); err != nil {
		return nil, err
	}

	period, err := s.recalc.EnsurePeriod(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}

	alloc, err := s.ensureAllocation(ctx, uow, envelopeID, period.ID, now)
	if err != nil {
		return nil, err
	}

	if err := alloc.SetAllocated(amount, now); err != nil {
		return nil, err
	}
	if err := uow.EnvelopeAllocations().Update(ctx, alloc); err != nil {
		return nil, err
	}

	return alloc, nil
}

// AdjustAllocation applies a signed delta to the current allocated amount,
// flooring at zero: newAllocated = max(0, current + delta).
func (s *AllocationService) AdjustAllocation(ctx context.Context, uow store.UnitOfWork, envelopeID uuid.UUID, delta money.Money, year, month int, now time.Time) (*domain.EnvelopeAllocation, error) {
	if err := s.requireEnvelope(ctx, uow, envelopeID); err != nil {
		return nil, err
	}

	period, err := s.recalc.EnsurePeriod(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}

	alloc, err := s.ensureAllocation(ctx, uow, envelopeID, period.ID, now)
	if err != nil {
		return nil, err
	}

	next, err := alloc.Allocated.Add(delta)
	if err != nil {
		return nil, err
	}
	next = maxZero(next)

	if err := alloc.SetAllocated(next, now); err != nil {
		return nil, err
	}
	if err := uow.EnvelopeAllocations().Update(ctx, alloc); err != nil {
		return nil, err
	}

	return alloc, nil
}

// Move transfers allocation quantity from one envelope to another within the
// same month, preserving the period's readyToAssign. Rejects moving to the
// same envelope, non-positive amounts, and amounts exceeding what the source
// envelope has both allocated and available.
func (s *AllocationService) Move(ctx context.Context, uow store.UnitOfWork, fromEnvelopeID, toEnvelopeID uuid.UUID, amount money.Money, year, month int, now time.Time) ([]AllocationChange, error) {
	if fromEnvelopeID == toEnvelopeID {
		return nil, InvalidOperationErrorf("cannot move allocation to the same envelope")
	}
	if !amount.IsPositive() {
		return nil, ValidationErrorf("amount", "move amount must be positive")
	}

	period, err := s.recalc.EnsurePeriod(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}

	fromAlloc, err := s.ensureAllocation(ctx, uow, fromEnvelopeID, period.ID, now)
	if err != nil {
		return nil, err
	}
	toAlloc, err := s.ensureAllocation(ctx, uow, toEnvelopeID, period.ID, now)
	if err != nil {
		return nil, err
	}

	available, err := fromAlloc.Available()
	if err != nil {
		return nil, err
	}
	if exceeds, err := amount.GreaterThan(available); err != nil {
		return nil, err
	} else if exceeds {
		return nil, InvalidOperationErrorf("cannot move %s: only %s is available in the source envelope", amount, available)
	}
	if exceeds, err := amount.GreaterThan(fromAlloc.Allocated); err != nil {
		return nil, err
	} else if exceeds {
		return nil, InvalidOperationErrorf("cannot move %s: only %s is allocated in the source envelope", amount, fromAlloc.Allocated)
	}

	beforeFrom, beforeTo := fromAlloc.Allocated, toAlloc.Allocated

	newFrom, err := fromAlloc.Allocated.Sub(amount)
	if err != nil {
		return nil, err
	}
	newTo, err := toAlloc.Allocated.Add(amount)
	if err != nil {
		return nil, err
	}

	if err := fromAlloc.SetAllocated(newFrom, now); err != nil {
		return nil, err
	}
	if err := toAlloc.SetAllocated(newTo, now); err != nil {
		return nil, err
	}

	if err := uow.EnvelopeAllocations().Update(ctx, fromAlloc); err != nil {
		return nil, err
	}
	if err := uow.EnvelopeAllocations().Update(ctx, toAlloc); err != nil {
		return nil, err
	}

	return []AllocationChange{
		{EnvelopeID: fromEnvelopeID, BeforeAllocated: beforeFrom, AfterAllocated: newFrom},
		{EnvelopeID: toEnvelopeID, BeforeAllocated: beforeTo, AfterAllocated: newTo},
	}, nil
}

// SetGoal sets or replaces an envelope's savings goal. amount must be positive.
func (s *AllocationService) SetGoal(ctx context.Context, uow store.UnitOfWork, envelopeID uuid.UUID, amount money.Money, targetDate *time.Time, now time.Time) (*domain.Envelope, error) {
	env, err := uow.Envelopes().GetByID(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, ValidationErrorf("envelopeId", "envelope %s not found", envelopeID)
	}

	if err := env.SetGoal(amount, targetDate, now); err != nil {
		return nil, err
	}
	if err := uow.Envelopes().Update(ctx, env); err != nil {
		return nil, err
	}

	return env, nil
}

// AutoAssignToGoals forces a recalculate, then visits active envelopes with
// goals in the order given by mode, assigning min(needed, remainingReadyToAssign)
// to each until ready-to-assign is exhausted.
func (s *AllocationService) AutoAssignToGoals(ctx context.Context, uow store.UnitOfWork, mode AutoAssignMode, year, month int, now time.Time) ([]AllocationChange, error) {
	period, err := s.recalc.Recalculate(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}

	envelopes, err := uow.Envelopes().ListActiveWithGoals(ctx)
	if err != nil {
		return nil, err
	}

	allocByEnvelope := make(map[uuid.UUID]*domain.EnvelopeAllocation, len(envelopes))
	needed := make(map[uuid.UUID]money.Money, len(envelopes))

	for _, env := range envelopes {
		alloc, err := s.ensureAllocation(ctx, uow, env.ID, period.ID, now)
		if err != nil {
			return nil, err
		}
		allocByEnvelope[env.ID] = alloc

		available, err := alloc.Available()
		if err != nil {
			return nil, err
		}
		gap, err := env.GoalAmount.Sub(available)
		if err != nil {
			return nil, err
		}
		needed[env.ID] = maxZero(gap)
	}

	switch mode {
	case EarliestGoalDateFirst:
		sort.SliceStable(envelopes, func(i, j int) bool {
			a, b := envelopes[i], envelopes[j]
			if a.GoalDate == nil && b.GoalDate == nil {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			if a.GoalDate == nil {
				return false
			}
			if b.GoalDate == nil {
				return true
			}
			if a.GoalDate.Equal(*b.GoalDate) {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return a.GoalDate.Before(*b.GoalDate)
		})
	case SmallestGoalFirst:
		sort.SliceStable(envelopes, func(i, j int) bool {
			a, b := envelopes[i], envelopes[j]
			cmp, _ := needed[a.ID].Cmp(needed[b.ID])
			if cmp == 0 {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return cmp < 0
		})
	}

	remaining, err := period.ReadyToAssign()
	if err != nil {
		return nil, err
	}

	var changes []AllocationChange
	for _, env := range envelopes {
		if !remaining.IsPositive() {
			break
		}

		toAssign := minMoney(needed[env.ID], remaining)
		if !toAssign.IsPositive() {
			continue
		}

		alloc := allocByEnvelope[env.ID]
		before := alloc.Allocated
		after, err := before.Add(toAssign)
		if err != nil {
			return nil, err
		}
		if err := alloc.SetAllocated(after, now); err != nil {
			return nil, err
		}
		if err := uow.EnvelopeAllocations().Update(ctx, alloc); err != nil {
			return nil, err
		}

		remaining, err = remaining.Sub(toAssign)
		if err != nil {
			return nil, err
		}

		changes = append(changes, AllocationChange{
			EnvelopeID:      env.ID,
			EnvelopeName:    env.Name,
			BeforeAllocated: before,
			AfterAllocated:  after,
		})
	}

	return changes, nil
}

// Rollover closes the period for (year, month) and seeds the next period:
// nextPeriod.carriedOver = period.readyToAssign (post-recalculation), and
// each allocation's rolloverFromPrevious is set to the closing allocation's
// available amount (which may be negative, carrying overspend forward).
func (s *AllocationService) Rollover(ctx context.Context, uow store.UnitOfWork, year, month int, now time.Time) (*domain.BudgetPeriod, error) {
	period, err := s.recalc.Recalculate(ctx, uow, year, month, now)
	if err != nil {
		return nil, err
	}
	if period.IsClosed {
		return nil, InvalidOperationErrorf("budget period %04d-%02d is already closed", year, month)
	}

	rta, err := period.ReadyToAssign()
	if err != nil {
		return nil, err
	}

	period.Close(now)
	if err := uow.BudgetPeriods().Update(ctx, period); err != nil {
		return nil, err
	}

	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextMonth = 1
		nextYear++
	}

	nextPeriod, err := s.recalc.EnsurePeriod(ctx, uow, nextYear, nextMonth, now)
	if err != nil {
		return nil, err
	}
	nextPeriod.SetCarriedOver(rta, now)
	if err := uow.BudgetPeriods().Update(ctx, nextPeriod); err != nil {
		return nil, err
	}

	allocations, err := uow.EnvelopeAllocations().ByPeriod(ctx, period.ID)
	if err != nil {
		return nil, err
	}

	for i := range allocations {
		available, err := allocations[i].Available()
		if err != nil {
			return nil, err
		}

		nextAlloc, err := s.ensureAllocation(ctx, uow, allocations[i].EnvelopeID, nextPeriod.ID, now)
		if err != nil {
			return nil, err
		}
		nextAlloc.SetRolloverFromPrevious(available, now)
		if err := uow.EnvelopeAllocations().Update(ctx, nextAlloc); err != nil {
			return nil, err
		}
	}

	return nextPeriod, nil
}

func (s *AllocationService) requireEnvelope(ctx context.Context, uow store.UnitOfWork, envelopeID uuid.UUID) error {
	exists, err := uow.Envelopes().ExistsByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	if !exists {
		return ValidationErrorf("envelopeId", "envelope %s not found", envelopeID)
	}
	return nil
}

func (s *AllocationService) ensureAllocation(ctx context.Context, uow store.UnitOfWork, envelopeID, periodID uuid.UUID, now time.Time) (*domain.EnvelopeAllocation, error) {
	alloc, err := uow.EnvelopeAllocations().ByEnvelopeAndPeriod(ctx, envelopeID, periodID)
	if err != nil {
		return nil, err
	}
	if alloc != nil {
		return alloc, nil
	}

	alloc = domain.NewEnvelopeAllocation(envelopeID, periodID, s.currency, now)
	if err := uow.EnvelopeAllocations().Add(ctx, alloc); err != nil {
		return nil, err
	}
	return alloc, nil
}

func maxZero(m money.Money) money.Money {
	if m.IsNegative() {
		return money.Zero(m.Currency())
	}
	return m
}

func minMoney(a, b money.Money) money.Money {
	if cmp, err := a.Cmp(b); err == nil && cmp > 0 {
		return b
	}
	return a
}
