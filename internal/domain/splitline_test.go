package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

func TestNewSplitLineRejectsNonPositive(t *testing.T) {
	_, err := domain.NewSplitLine(uuid.New(), uuid.New(), money.Zero("USD"), 0)
	assert.ErrorIs(t, err, domain.ErrSplitAmountNotPositive)
}

func TestSumSplitLines(t *testing.T) {
	txID := uuid.New()
	a1, _ := money.NewFromInt(1000, "USD")
	a2, _ := money.NewFromInt(1500, "USD")
	l1, err := domain.NewSplitLine(txID, uuid.New(), a1, 0)
	require.NoError(t, err)
	l2, err := domain.NewSplitLine(txID, uuid.New(), a2, 1)
	require.NoError(t, err)

	sum, err := domain.SumSplitLines([]domain.SplitLine{*l1, *l2}, "USD")
	require.NoError(t, err)

	expected, _ := money.NewFromInt(2500, "USD")
	assert.True(t, sum.Equal(expected))
}
