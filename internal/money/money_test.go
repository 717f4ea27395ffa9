package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/money"
)

func TestNewRoundsHalfAwayFromZero(t *testing.T) {
	m, err := money.New(decimal.NewFromFloat(1.005), "USD")
	require.NoError(t, err)
	assert.Equal(t, "1.01", m.Amount().StringFixed(2))

	m, err = money.New(decimal.NewFromFloat(-1.005), "USD")
	require.NoError(t, err)
	assert.Equal(t, "-1.01", m.Amount().StringFixed(2))
}

func TestNewRejectsInvalidCurrency(t *testing.T) {
	_, err := money.New(decimal.NewFromInt(5), "usd")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)

	_, err = money.New(decimal.NewFromInt(5), "US")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestArithmeticRejectsMismatchedCurrency(t *testing.T) {
	usd, _ := money.NewFromInt(100, "USD")
	eur, _ := money.NewFromInt(100, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = usd.Cmp(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestAddSub(t *testing.T) {
	a, _ := money.NewFromInt(1000, "USD")
	b, _ := money.NewFromInt(250, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(mustMoney(t, 1250, "USD")))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(mustMoney(t, 750, "USD")))
}

func TestAbsNegate(t *testing.T) {
	neg, _ := money.NewFromInt(-500, "USD")
	assert.True(t, neg.Abs().Equal(mustMoney(t, 500, "USD")))
	assert.True(t, neg.Negate().Equal(mustMoney(t, 500, "USD")))
	assert.Equal(t, "USD", neg.Abs().Currency())
}

func TestDivByZero(t *testing.T) {
	a, _ := money.NewFromInt(1000, "USD")
	_, err := a.Div(decimal.Zero)
	assert.ErrorIs(t, err, money.ErrDivideByZero)
}

func TestEqualNeverErrors(t *testing.T) {
	usd, _ := money.NewFromInt(100, "USD")
	eur, _ := money.NewFromInt(100, "EUR")
	assert.False(t, usd.Equal(eur))
}

func TestStringFormatting(t *testing.T) {
	usd, _ := money.NewFromInt(12345, "USD")
	assert.Equal(t, "$123.45", usd.String())

	eur, _ := money.NewFromInt(12345, "EUR")
	assert.Equal(t, "€123.45", eur.String())

	gbp, _ := money.NewFromInt(12345, "GBP")
	assert.Equal(t, "£123.45", gbp.String())

	jpy, _ := money.NewFromInt(12345, "JPY")
	assert.Equal(t, "123.45 JPY", jpy.String())
}

func TestJSONRoundTrip(t *testing.T) {
	original, err := money.NewFromInt(12345, "USD")
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"123.45","currency":"USD"}`, string(data))

	var decoded money.Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}

func TestJSONUnmarshalInvalidCurrencyErrors(t *testing.T) {
	var decoded money.Money
	err := json.Unmarshal([]byte(`{"amount":"1.00","currency":"usd"}`), &decoded)
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func mustMoney(t *testing.T, cents int64, currency string) money.Money {
	t.Helper()
	m, err := money.NewFromInt(cents, currency)
	require.NoError(t, err)
	return m
}
