package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

func mustMoney(t *testing.T, amount string) money.Money {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	m, err := money.New(d, "USD")
	require.NoError(t, err)
	return m
}

func TestAccountRepository_AddAndGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	found, err := uow.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Checking", found.Name)
	require.Equal(t, "USD", found.Currency)

	require.NoError(t, uow.Commit())
}

func TestAccountRepository_GetByID_NotFoundReturnsNilNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	found, err := uow.Accounts().GetByID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestAccountRepository_AccountBalance_SumsTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	inflow, err := domain.NewInflow(account.ID, now, mustMoney(t, "100.00"), "Employer", "", now)
	require.NoError(t, err)
	require.NoError(t, uow.Transactions().Add(ctx, inflow))

	outflow, err := domain.NewOutflow(account.ID, nil, now, mustMoney(t, "40.00"), "Store", "", now)
	require.NoError(t, err)
	require.NoError(t, uow.Transactions().Add(ctx, outflow))

	balance, err := uow.Accounts().AccountBalance(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "60.00", balance.Amount().StringFixed(2))
}

func TestAccountRepository_Update_Persists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	require.NoError(t, account.Rename("Primary Checking", now))
	require.NoError(t, uow.Accounts().Update(ctx, account))

	found, err := uow.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "Primary Checking", found.Name)
}
