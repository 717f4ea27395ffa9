package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

func TestNewOutflowNegatesAmount(t *testing.T) {
	amount, _ := money.NewFromInt(2500, "USD")
	tx, err := domain.NewOutflow(uuid.New(), nil, now, amount, "Coffee Shop", "", now)
	require.NoError(t, err)
	assert.True(t, tx.Amount.IsNegative())
	assert.Equal(t, domain.Outflow, tx.Type)
}

func TestNewInflowKeepsAmountPositive(t *testing.T) {
	amount, _ := money.NewFromInt(10000, "USD")
	tx, err := domain.NewInflow(uuid.New(), now, amount, "Employer", "", now)
	require.NoError(t, err)
	assert.True(t, tx.Amount.IsPositive())
	assert.Nil(t, tx.EnvelopeID)
}

func TestNewTransferPairRejectsSameAccount(t *testing.T) {
	acct := uuid.New()
	amount, _ := money.NewFromInt(100, "USD")
	_, _, err := domain.NewTransferPair(acct, acct, now, amount, "", now)
	assert.ErrorIs(t, err, domain.ErrSameAccountTransfer)
}

func TestNewTransferPairSigns(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	amount, _ := money.NewFromInt(5000, "USD")
	fromTx, toTx, err := domain.NewTransferPair(from, to, now, amount, "", now)
	require.NoError(t, err)

	assert.True(t, fromTx.Amount.IsNegative())
	assert.True(t, toTx.Amount.IsPositive())
	assert.Equal(t, to, *fromTx.TransferAccountID)
	assert.Equal(t, from, *toTx.TransferAccountID)
	assert.Equal(t, domain.Transfer, fromTx.Type)
	assert.Equal(t, domain.Transfer, toTx.Type)
}

func TestTransferLinkage(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	amount, _ := money.NewFromInt(5000, "USD")
	fromTx, toTx, err := domain.NewTransferPair(from, to, now, amount, "", now)
	require.NoError(t, err)

	fromTx.Link(toTx.ID, now)
	toTx.Link(fromTx.ID, now)

	assert.Equal(t, toTx.ID, *fromTx.LinkedTransactionID)
	assert.Equal(t, fromTx.ID, *toTx.LinkedTransactionID)
}

func TestReconciledTransactionRejectsEdits(t *testing.T) {
	amount, _ := money.NewFromInt(1000, "USD")
	tx, err := domain.NewOutflow(uuid.New(), nil, now, amount, "Store", "", now)
	require.NoError(t, err)

	tx.MarkCleared(now)
	require.NoError(t, tx.MarkReconciled(now))

	assert.ErrorIs(t, tx.SetDate(now, now), domain.ErrReconciledImmutable)
	assert.ErrorIs(t, tx.SetPayee("Other", now), domain.ErrReconciledImmutable)
	assert.ErrorIs(t, tx.SetAmount(amount, now), domain.ErrReconciledImmutable)
	assert.ErrorIs(t, tx.SoftDelete(now), domain.ErrReconciledImmutable)
	assert.ErrorIs(t, tx.MarkUncleared(now), domain.ErrReconciledImmutable)

	env := uuid.New()
	assert.ErrorIs(t, tx.AssignEnvelope(&env, now), domain.ErrReconciledImmutable)
}

func TestMarkReconciledRequiresCleared(t *testing.T) {
	amount, _ := money.NewFromInt(1000, "USD")
	tx, err := domain.NewOutflow(uuid.New(), nil, now, amount, "Store", "", now)
	require.NoError(t, err)

	err = tx.MarkReconciled(now)
	assert.ErrorIs(t, err, domain.ErrNotCleared)
}

func TestAssignEnvelopeRejectsOnTransfer(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	amount, _ := money.NewFromInt(100, "USD")
	fromTx, _, err := domain.NewTransferPair(from, to, now, amount, "", now)
	require.NoError(t, err)

	env := uuid.New()
	assert.ErrorIs(t, fromTx.AssignEnvelope(&env, now), domain.ErrTransferNoEnvelope)
}

func TestAssignEnvelopeRejectsWhenSplit(t *testing.T) {
	amount, _ := money.NewFromInt(1000, "USD")
	tx, err := domain.NewOutflow(uuid.New(), nil, now, amount, "Store", "", now)
	require.NoError(t, err)

	require.NoError(t, tx.SetSplitState(true, now))
	assert.Nil(t, tx.EnvelopeID)

	env := uuid.New()
	assert.ErrorIs(t, tx.AssignEnvelope(&env, now), domain.ErrHasSplits)
}

func TestSetSplitStateRejectsNonOutflow(t *testing.T) {
	amount, _ := money.NewFromInt(100, "USD")
	tx, err := domain.NewInflow(uuid.New(), now, amount, "Employer", "", now)
	require.NoError(t, err)

	assert.ErrorIs(t, tx.SetSplitState(true, now), domain.ErrOnlyOutflowsSplit)
}
