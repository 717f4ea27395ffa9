package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
)

func TestSplitLineRepository_ReplaceForTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	envA, err := domain.NewEnvelope("Groceries", "Everyday", "", 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, envA))

	envB, err := domain.NewEnvelope("Fuel", "Everyday", "", 1, now)
	require.NoError(t, err)
	require.NoError(t, uow.Envelopes().Add(ctx, envB))

	tx, err := domain.NewOutflow(account.ID, nil, now, mustMoney(t, "100.00"), "Costco", "", now)
	require.NoError(t, err)
	require.NoError(t, uow.Transactions().Add(ctx, tx))

	lineA, err := domain.NewSplitLine(tx.ID, envA.ID, mustMoney(t, "60.00"), 0)
	require.NoError(t, err)
	lineB, err := domain.NewSplitLine(tx.ID, envB.ID, mustMoney(t, "40.00"), 1)
	require.NoError(t, err)

	require.NoError(t, uow.TransactionSplits().ReplaceForTransaction(ctx, tx.ID, []domain.SplitLine{*lineA, *lineB}))

	lines, err := uow.TransactionSplits().ByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// Replacing again with a single line drops the prior set entirely.
	lineC, err := domain.NewSplitLine(tx.ID, envA.ID, mustMoney(t, "100.00"), 0)
	require.NoError(t, err)
	require.NoError(t, uow.TransactionSplits().ReplaceForTransaction(ctx, tx.ID, []domain.SplitLine{*lineC}))

	lines, err = uow.TransactionSplits().ByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "100.00", lines[0].Amount.Amount().StringFixed(2))
}
