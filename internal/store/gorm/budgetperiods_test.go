package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
)

func TestBudgetPeriodRepository_ByYearMonth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	period, err := domain.NewBudgetPeriod(2026, 3, "USD", now)
	require.NoError(t, err)
	require.NoError(t, uow.BudgetPeriods().Add(ctx, period))

	found, err := uow.BudgetPeriods().ByYearMonth(ctx, 2026, 3)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, period.ID, found.ID)

	missing, err := uow.BudgetPeriods().ByYearMonth(ctx, 2026, 4)
	require.NoError(t, err)
	require.Nil(t, missing)
}
