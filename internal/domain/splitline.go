package domain

import (
	"errors"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

// ErrSplitAmountNotPositive is returned when a split line's amount is not positive.
var ErrSplitAmountNotPositive = errors.New("domain: split amount must be positive")

// SplitLine is one part-amount of a split outflow, assigned to a single envelope.
type SplitLine struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EnvelopeID    uuid.UUID
	Amount        money.Money
	SortOrder     int
}

// NewSplitLine builds a split line. amount must be positive.
func NewSplitLine(transactionID, envelopeID uuid.UUID, amount money.Money, sortOrder int) (*SplitLine, error) {
	if !amount.IsPositive() {
		return nil, ErrSplitAmountNotPositive
	}
	if sortOrder < 0 {
		sortOrder = 0
	}

	return &SplitLine{
		ID:            uuid.New(),
		TransactionID: transactionID,
		EnvelopeID:    envelopeID,
		Amount:        amount,
		SortOrder:     sortOrder,
	}, nil
}

// SplitLineFromPersistedState reconstructs a SplitLine from fully-persisted
// fields, bypassing creation preconditions. Used exclusively by the store
// adapter when hydrating rows.
func SplitLineFromPersistedState(id, transactionID, envelopeID uuid.UUID, amount money.Money, sortOrder int) *SplitLine {
	return &SplitLine{
		ID:            id,
		TransactionID: transactionID,
		EnvelopeID:    envelopeID,
		Amount:        amount,
		SortOrder:     sortOrder,
	}
}

// SumSplitLines adds up a set of split lines' amounts. All lines must share
// a currency with `currency`.
func SumSplitLines(lines []SplitLine, currency string) (money.Money, error) {
	total := money.Zero(currency)
	for _, l := range lines {
		var err error
		total, err = total.Add(l.Amount)
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
