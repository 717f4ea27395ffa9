package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

var now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func TestNewAccountRequiresName(t *testing.T) {
	_, err := domain.NewAccount("", domain.Checking, "USD", true, 0, now)
	assert.ErrorIs(t, err, domain.ErrAccountNameRequired)
}

func TestAccountSetBalancesMustAgree(t *testing.T) {
	a, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)

	cleared, _ := money.NewFromInt(1000, "USD")
	uncleared, _ := money.NewFromInt(500, "USD")
	require.NoError(t, a.SetBalances(cleared, uncleared, now))

	total, _ := cleared.Add(uncleared)
	assert.True(t, a.Balance.Equal(total))
}

func TestAccountCloseRequiresZeroBalance(t *testing.T) {
	a, err := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	require.NoError(t, err)

	nonzero, _ := money.NewFromInt(100, "USD")
	require.NoError(t, a.SetBalances(nonzero, money.Zero("USD"), now))

	err = a.Close(now)
	assert.ErrorIs(t, err, domain.ErrAccountNotZeroToClose)

	require.NoError(t, a.SetBalances(money.Zero("USD"), money.Zero("USD"), now))
	assert.NoError(t, a.Close(now))
	assert.False(t, a.IsActive)
}

func TestAccountIsLiability(t *testing.T) {
	cc, _ := domain.NewAccount("Card", domain.CreditCard, "USD", true, 0, now)
	checking, _ := domain.NewAccount("Checking", domain.Checking, "USD", true, 0, now)
	assert.True(t, cc.IsLiability())
	assert.False(t, checking.IsLiability())
}
