// Package money implements the value types shared across the budget
// engine: Money (decimal amount plus currency) and DateRange.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

var (
	// ErrInvalidCurrency is returned when a currency code is not a 3-letter uppercase tag.
	ErrInvalidCurrency = errors.New("money: currency must be a 3-letter uppercase code")
	// ErrCurrencyMismatch is returned when an operation combines Money values of differing currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrDivideByZero is returned by Div when the divisor is zero.
	ErrDivideByZero = errors.New("money: division by zero")
)

// Money is an immutable amount scaled to 2 fractional digits (half-away-from-zero
// rounding) tagged with a currency code. All arithmetic re-rounds the result on
// construction and rejects operations across differing currencies.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New returns a Money rounded to 2 fractional digits in the given currency.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if !currencyPattern.MatchString(currency) {
		return Money{}, ErrInvalidCurrency
	}

	return Money{amount: amount.Round(2), currency: currency}, nil
}

// NewFromInt builds a Money from a whole-cents integer, e.g. NewFromInt(12345, "USD") == $123.45.
func NewFromInt(cents int64, currency string) (Money, error) {
	return New(decimal.New(cents, -2), currency)
}

// Zero returns the zero-value Money in the given currency.
func Zero(currency string) Money {
	m, _ := New(decimal.Zero, currency)
	return m
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the 3-letter currency code.
func (m Money) Currency() string {
	return m.currency
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Abs returns the absolute value, preserving currency.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Negate returns the additive inverse, preserving currency.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// Add returns m + other. Fails if currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.amount.Add(other.amount), m.currency)
}

// Sub returns m - other. Fails if currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.amount.Sub(other.amount), m.currency)
}

// Mul scales the amount by a unitless factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	result, _ := New(m.amount.Mul(factor), m.currency)
	return result
}

// Div divides the amount by a unitless factor. Fails if the divisor is zero.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return New(m.amount.Div(divisor), m.currency)
}

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater than other.
// Fails if currencies differ.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports whether m > other. Fails if currencies differ.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// LessThan reports whether m < other. Fails if currencies differ.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// Equal reports value equality on (amount, currency). Unlike Cmp/GreaterThan/
// LessThan, Equal never errors: a differing currency simply means "not equal".
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders a locale-free display form: "$amount" for USD, the Euro/Sterling
// glyph for EUR/GBP, and "<amount> <currency>" otherwise.
func (m Money) String() string {
	switch m.currency {
	case "USD":
		return "$" + m.amount.StringFixed(2)
	case "EUR":
		return "€" + m.amount.StringFixed(2)
	case "GBP":
		return "£" + m.amount.StringFixed(2)
	default:
		return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
	}
}

// wireMoney is the {amount, currency} shape Money marshals to and from,
// keeping the decimal amount as a string on the wire the way
// shopspring/decimal itself recommends for exact round-tripping.
type wireMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON renders Money as {"amount":"12.34","currency":"USD"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMoney{Amount: m.amount.StringFixed(2), Currency: m.currency})
}

// UnmarshalJSON parses the {amount, currency} shape MarshalJSON produces,
// re-validating and re-rounding through New.
func (m *Money) UnmarshalJSON(data []byte) error {
	var w wireMoney
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(w.Amount)
	if err != nil {
		return err
	}

	parsed, err := New(amount, w.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
