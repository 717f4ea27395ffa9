package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/engine"
)

const sampleCSV = "Date,Payee,Amount\n" +
	"2026-03-05,Costco,-45.12\n" +
	"2026-03-06,Employer,1200.00\n"

func TestImportService_Preview_ClassifiesRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	imp := engine.NewImportService("USD", engine.NewTransactionService("USD"), engine.NewRecalculationService("USD"))
	preview, err := imp.Preview(ctx, uow, account.ID, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 2, preview.NewCount)
	require.Equal(t, 0, preview.DuplicateCount)
}

func TestImportService_Preview_MarksExistingFingerprintAsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	imp := engine.NewImportService("USD", engine.NewTransactionService("USD"), engine.NewRecalculationService("USD"))
	commitResult, err := imp.Commit(ctx, uow, engine.CommitRequest{AccountID: account.ID, RowNumbers: []int{1, 2}}, strings.NewReader(sampleCSV), now)
	require.NoError(t, err)
	require.Equal(t, 2, commitResult.InsertedCount)

	preview, err := imp.Preview(ctx, uow, account.ID, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 0, preview.NewCount)
	require.Equal(t, 2, preview.DuplicateCount)
}

func TestImportService_Commit_InsertsSelectedRowsAndRecalculates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	recalc := engine.NewRecalculationService("USD")
	imp := engine.NewImportService("USD", engine.NewTransactionService("USD"), recalc)

	result, err := imp.Commit(ctx, uow, engine.CommitRequest{AccountID: account.ID, RowNumbers: []int{1}}, strings.NewReader(sampleCSV), now)
	require.NoError(t, err)
	require.Equal(t, 1, result.InsertedCount)

	transactions, err := uow.Transactions().ByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	require.Equal(t, "-45.12", transactions[0].Amount.Amount().StringFixed(2))

	period, err := uow.BudgetPeriods().ByYearMonth(ctx, 2026, 3)
	require.NoError(t, err)
	require.NotNil(t, period)
	require.Equal(t, "45.12", period.TotalSpent.Amount().StringFixed(2))
}

func TestImportService_Commit_InFileDuplicateRowIsNeverInserted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	account, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)
	require.NoError(t, uow.Accounts().Add(ctx, account))

	duplicateCSV := "Date,Payee,Amount\n" +
		"2026-03-05,Costco,-45.12\n" +
		"2026-03-05,Costco,-45.12\n"

	imp := engine.NewImportService("USD", engine.NewTransactionService("USD"), engine.NewRecalculationService("USD"))
	result, err := imp.Commit(ctx, uow, engine.CommitRequest{AccountID: account.ID, RowNumbers: []int{1, 2}}, strings.NewReader(duplicateCSV), now)
	require.NoError(t, err)
	require.Equal(t, 1, result.InsertedCount)

	transactions, err := uow.Transactions().ByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
}
