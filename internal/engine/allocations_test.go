package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/engine"
)

func TestAllocationService_SetAllocation_RejectsNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	env, err := domain.NewEnvelope("Groceries", "Everyday", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, env))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)

	_, err = alloc.SetAllocation(ctx, uow, env.ID, mustMoney(t, "-1.00"), 2026, 3, now)
	require.ErrorIs(t, err, domain.ErrAllocationNegative)
}

func TestAllocationService_Move_RejectsExceedingAvailable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	from, err := domain.NewEnvelope("From", "Everyday", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, from))

	to, err := domain.NewEnvelope("To", "Everyday", "", 1, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, to))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)

	_, err = alloc.SetAllocation(ctx, uow, from.ID, mustMoney(t, "50.00"), 2026, 3, now)
	require.NoError(t, err)

	_, err = alloc.Move(ctx, uow, from.ID, to.ID, mustMoney(t, "100.00"), 2026, 3, now)
	require.Error(t, err)
	require.Equal(t, engine.InvalidOperation, engine.Classify(err).Code)
}

func TestAllocationService_Move_SucceedsWithinAvailable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	from, err := domain.NewEnvelope("From", "Everyday", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, from))

	to, err := domain.NewEnvelope("To", "Everyday", "", 1, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, to))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)

	_, err = alloc.SetAllocation(ctx, uow, from.ID, mustMoney(t, "50.00"), 2026, 3, now)
	require.NoError(t, err)

	changes, err := alloc.Move(ctx, uow, from.ID, to.ID, mustMoney(t, "20.00"), 2026, 3, now)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Equal(t, "30.00", changes[0].AfterAllocated.Amount().StringFixed(2))
	require.Equal(t, "20.00", changes[1].AfterAllocated.Amount().StringFixed(2))
}

func TestAllocationService_Rollover_CarriesReadyToAssignAndOverspend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	env, err := domain.NewEnvelope("Groceries", "Everyday", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, env))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)
	txn := engine.NewTransactionService("USD")

	_, err = txn.CreateInflow(ctx, uow, account.ID, now, mustMoney(t, "1000.00"), "Employer", "", now)
	require.NoError(t, err)

	_, err = alloc.SetAllocation(ctx, uow, env.ID, mustMoney(t, "100.00"), 2026, 3, now)
	require.NoError(t, err)

	_, err = txn.CreateOutflow(ctx, uow, account.ID, now, mustMoney(t, "150.00"), "Store", &env.ID, nil, "", now)
	require.NoError(t, err)

	next, err := alloc.Rollover(ctx, uow, 2026, 3, now)
	require.NoError(t, err)
	require.Equal(t, 2026, next.Year)
	require.Equal(t, 4, next.Month)
	require.Equal(t, "900.00", next.CarriedOver.Amount().StringFixed(2))

	nextAlloc, err := uow.EnvelopeAllocations().ByEnvelopeAndPeriod(ctx, env.ID, next.ID)
	require.NoError(t, err)
	require.Equal(t, "-50.00", nextAlloc.RolloverFromPrevious.Amount().StringFixed(2))
}

func TestAllocationService_AutoAssignToGoals_EarliestGoalDateFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)
	txn := engine.NewTransactionService("USD")

	_, err = txn.CreateInflow(ctx, uow, account.ID, now, mustMoney(t, "100.00"), "Employer", "", now)
	require.NoError(t, err)

	later := now.AddDate(0, 2, 0)
	sooner := now.AddDate(0, 1, 0)

	farGoal, err := domain.NewEnvelope("Vacation", "Goals", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, farGoal.SetGoal(mustMoney(t, "80.00"), &later, now))
	require.NoError(t, uow.Envelopes().Add(ctx, farGoal))

	nearGoal, err := domain.NewEnvelope("Car Repair", "Goals", "", 1, now)
	require.NoError(t, err)
	require.NoError(t, nearGoal.SetGoal(mustMoney(t, "80.00"), &sooner, now))
	require.NoError(t, uow.Envelopes().Add(ctx, nearGoal))

	changes, err := alloc.AutoAssignToGoals(ctx, uow, engine.EarliestGoalDateFirst, 2026, 3, now)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	// The envelope with the sooner goal date is funded first and exhausts
	// most of ready-to-assign, leaving the later goal short.
	require.Equal(t, nearGoal.ID, changes[0].EnvelopeID)
	require.Equal(t, "80.00", changes[0].AfterAllocated.Amount().StringFixed(2))
	require.Equal(t, farGoal.ID, changes[1].EnvelopeID)
	require.Equal(t, "20.00", changes[1].AfterAllocated.Amount().StringFixed(2))
}

func TestAllocationService_AutoAssignToGoals_SmallestGoalFirstStopsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)
	txn := engine.NewTransactionService("USD")

	_, err = txn.CreateInflow(ctx, uow, account.ID, now, mustMoney(t, "30.00"), "Employer", "", now)
	require.NoError(t, err)

	target := now.AddDate(0, 1, 0)

	small, err := domain.NewEnvelope("Small Goal", "Goals", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, small.SetGoal(mustMoney(t, "20.00"), &target, now))
	require.NoError(t, uow.Envelopes().Add(ctx, small))

	big, err := domain.NewEnvelope("Big Goal", "Goals", "", 1, now)
	require.NoError(t, err)
	require.NoError(t, big.SetGoal(mustMoney(t, "500.00"), &target, now))
	require.NoError(t, uow.Envelopes().Add(ctx, big))

	changes, err := alloc.AutoAssignToGoals(ctx, uow, engine.SmallestGoalFirst, 2026, 3, now)
	require.NoError(t, err)

	// The smaller goal is funded in full (needs 20.00 of the 30.00 ready to
	// assign); the larger goal only gets the remaining 10.00, floored at
	// what's left rather than going negative.
	require.Len(t, changes, 2)
	require.Equal(t, small.ID, changes[0].EnvelopeID)
	require.Equal(t, "20.00", changes[0].AfterAllocated.Amount().StringFixed(2))
	require.Equal(t, big.ID, changes[1].EnvelopeID)
	require.Equal(t, "10.00", changes[1].AfterAllocated.Amount().StringFixed(2))
}

func TestAllocationService_Rollover_RejectsAlreadyClosedPeriod(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	recalc := engine.NewRecalculationService("USD")
	alloc := engine.NewAllocationService("USD", recalc)

	_, err = alloc.Rollover(ctx, uow, 2026, 3, now)
	require.NoError(t, err)

	_, err = alloc.Rollover(ctx, uow, 2026, 3, now)
	require.Error(t, err)
	require.Equal(t, engine.InvalidOperation, engine.Classify(err).Code)
}
