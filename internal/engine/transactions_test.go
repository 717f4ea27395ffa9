package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/engine"
)

func TestTransactionService_CreateOutflow_UpsertsPayeeAndRefreshesBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	txn := engine.NewTransactionService("USD")
	tx, err := txn.CreateOutflow(ctx, uow, account.ID, now, mustMoney(t, "25.00"), "Costco", nil, nil, "", now)
	require.NoError(t, err)
	require.Equal(t, "-25.00", tx.Amount.Amount().StringFixed(2))

	payee, err := uow.Payees().ByName(ctx, "Costco")
	require.NoError(t, err)
	require.NotNil(t, payee)
	require.Equal(t, 1, payee.TransactionCount)

	updated, err := uow.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "-25.00", updated.Balance.Amount().StringFixed(2))
}

func TestTransactionService_CreateOutflow_RejectsEnvelopeAndSplitsTogether(t *testing.T) {
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

	txn := engine.NewTransactionService("USD")
	_, err = txn.CreateOutflow(ctx, uow, account.ID, now, mustMoney(t, "25.00"), "Costco", &env.ID,
		[]engine.SplitInput{{EnvelopeID: env.ID, Amount: mustMoney(t, "25.00")}}, "", now)
	require.Error(t, err)

	engErr := engine.Classify(err)
	require.Equal(t, engine.Validation, engErr.Code)
}

func TestTransactionService_CreateTransfer_RejectsSameAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	txn := engine.NewTransactionService("USD")
	_, _, err = txn.CreateTransfer(ctx, uow, account.ID, account.ID, now, mustMoney(t, "10.00"), "", now)
	require.Error(t, err)
}

func TestTransactionService_CreateTransfer_LinksBothSides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	checking, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, checking))

	savings, err := domain.NewAccount("Savings", domain.Savings, "USD", true, 1, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, savings))

	txn := engine.NewTransactionService("USD")
	from, to, err := txn.CreateTransfer(ctx, uow, checking.ID, savings.ID, now, mustMoney(t, "100.00"), "", now)
	require.NoError(t, err)
	require.Equal(t, to.ID, *from.LinkedTransactionID)
	require.Equal(t, from.ID, *to.LinkedTransactionID)
	require.Equal(t, "-100.00", from.Amount.Amount().StringFixed(2))
	require.Equal(t, "100.00", to.Amount.Amount().StringFixed(2))
}

func TestTransactionService_UpdateTransaction_RejectsReconciled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	txn := engine.NewTransactionService("USD")
	tx, err := txn.CreateOutflow(ctx, uow, account.ID, now, mustMoney(t, "25.00"), "Costco", nil, nil, "", now)
	require.NoError(t, err)

	tx.MarkCleared(now)
	require.NoError(t, uow.Transactions().Update(ctx, tx))
	require.NoError(t, tx.MarkReconciled(now))
	require.NoError(t, uow.Transactions().Update(ctx, tx))

	newMemo := "updated"
	_, err = txn.UpdateTransaction(ctx, uow, tx.ID, engine.TransactionPatch{Memo: &newMemo}, now)
	require.ErrorIs(t, err, domain.ErrReconciledImmutable)
}

func TestTransactionService_DeleteTransaction_SoftDeletesLinkedTransferPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	checking, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, checking))

	savings, err := domain.NewAccount("Savings", domain.Savings, "USD", true, 1, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, savings))

	txn := engine.NewTransactionService("USD")
	from, to, err := txn.CreateTransfer(ctx, uow, checking.ID, savings.ID, now, mustMoney(t, "100.00"), "", now)
	require.NoError(t, err)

	require.NoError(t, txn.DeleteTransaction(ctx, uow, from.ID, now))

	linked, err := uow.Transactions().GetByID(ctx, to.ID)
	require.NoError(t, err)
	require.True(t, linked.IsDeleted)
}
