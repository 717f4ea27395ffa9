package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

// TransactionType distinguishes the three flows a transaction can represent.
type TransactionType int

const (
	Inflow TransactionType = iota
	Outflow
	Transfer
)

var (
	ErrPayeeRequired           = errors.New("domain: payee is required")
	ErrAmountMustBePositive    = errors.New("domain: amount must be positive")
	ErrReconciledImmutable     = errors.New("domain: reconciled transactions cannot be modified")
	ErrNotCleared              = errors.New("domain: transaction must be cleared before it can be reconciled")
	ErrTransferNoEnvelope      = errors.New("domain: transfers cannot carry an envelope")
	ErrHasSplits               = errors.New("domain: transaction has splits; assign via splits instead")
	ErrSameAccountTransfer     = errors.New("domain: a transfer must have different source and destination accounts")
	ErrOnlyOutflowsSplit       = errors.New("domain: only outflows may have splits")
)

// Transaction is a single posting against an account. Outflows are stored
// negative, inflows positive; a transfer is a pair of transactions (one of
// each sign) on two different accounts, linked by LinkedTransactionID.
type Transaction struct {
	ID                  uuid.UUID
	AccountID           uuid.UUID
	EnvelopeID          *uuid.UUID
	TransferAccountID   *uuid.UUID
	LinkedTransactionID *uuid.UUID
	Date                time.Time
	Amount              money.Money
	Payee               string
	Memo                string
	Type                TransactionType
	IsCleared           bool
	IsReconciled        bool
	IsApproved          bool
	IsDeleted           bool
	HasSplits           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewOutflow creates an outflow transaction. amount must be a positive Money;
// it is stored negated per the sign convention. envelopeID may be nil when
// the outflow will carry splits instead, or is left unassigned.
func NewOutflow(accountID uuid.UUID, envelopeID *uuid.UUID, date time.Time, amount money.Money, payee, memo string, now time.Time) (*Transaction, error) {
	if payee == "" {
		return nil, ErrPayeeRequired
	}
	if !amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}

	return &Transaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		EnvelopeID: envelopeID,
		Date:       date,
		Amount:     amount.Negate(),
		Payee:      payee,
		Memo:       memo,
		Type:       Outflow,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewInflow creates an inflow transaction. Inflows are never envelope-assigned
// or split.
func NewInflow(accountID uuid.UUID, date time.Time, amount money.Money, payee, memo string, now time.Time) (*Transaction, error) {
	if payee == "" {
		return nil, ErrPayeeRequired
	}
	if !amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}

	return &Transaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		Date:       date,
		Amount:     amount,
		Payee:      payee,
		Memo:       memo,
		Type:       Inflow,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewTransferPair creates two unlinked transfer transactions: a negative
// posting on fromAccount and a positive posting on toAccount. Linkage is a
// separate two-phase operation (see Link) so the store can satisfy
// referential integrity on insert.
func NewTransferPair(fromAccount, toAccount uuid.UUID, date time.Time, amount money.Money, memo string, now time.Time) (from, to *Transaction, err error) {
	if fromAccount == toAccount {
		return nil, nil, ErrSameAccountTransfer
	}
	if !amount.IsPositive() {
		return nil, nil, ErrAmountMustBePositive
	}

	otherOfFrom := toAccount
	otherOfTo := fromAccount

	from = &Transaction{
		ID:                uuid.New(),
		AccountID:         fromAccount,
		TransferAccountID: &otherOfFrom,
		Date:              date,
		Amount:            amount.Negate(),
		Payee:             "Transfer",
		Memo:              memo,
		Type:              Transfer,
		IsApproved:        true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	to = &Transaction{
		ID:                uuid.New(),
		AccountID:         toAccount,
		TransferAccountID: &otherOfTo,
		Date:              date,
		Amount:            amount,
		Payee:             "Transfer",
		Memo:              memo,
		Type:              Transfer,
		IsApproved:        true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	return from, to, nil
}

// TransactionFromPersistedState reconstructs a Transaction from fully-persisted
// fields, bypassing creation preconditions. Used exclusively by the store
// adapter when hydrating rows.
func TransactionFromPersistedState(id, accountID uuid.UUID, envelopeID, transferAccountID, linkedTransactionID *uuid.UUID, date time.Time, amount money.Money, payee, memo string, typ TransactionType, isCleared, isReconciled, isApproved, isDeleted, hasSplits bool, createdAt, updatedAt time.Time) *Transaction {
	return &Transaction{
		ID:                  id,
		AccountID:           accountID,
		EnvelopeID:          envelopeID,
		TransferAccountID:   transferAccountID,
		LinkedTransactionID: linkedTransactionID,
		Date:                date,
		Amount:              amount,
		Payee:               payee,
		Memo:                memo,
		Type:                typ,
		IsCleared:           isCleared,
		IsReconciled:        isReconciled,
		IsApproved:          isApproved,
		IsDeleted:           isDeleted,
		HasSplits:           hasSplits,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
}

// Link sets this transaction's LinkedTransactionID to the paired transfer
// transaction's id. Called once both sides of a transfer have been inserted.
func (t *Transaction) Link(linkedID uuid.UUID, now time.Time) {
	id := linkedID
	t.LinkedTransactionID = &id
	t.UpdatedAt = now
}

// Unlink clears the linkage, used optionally when soft-deleting a transfer.
func (t *Transaction) Unlink(now time.Time) {
	t.LinkedTransactionID = nil
	t.UpdatedAt = now
}

// SetAmount replaces the magnitude of the transaction, preserving its sign
// convention (Outflow stays negative, Inflow/Transfer keep their existing
// sign). Rejects reconciled transactions.
func (t *Transaction) SetAmount(amount money.Money, now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	if t.Type == Outflow || t.Amount.IsNegative() {
		t.Amount = amount.Negate()
	} else {
		t.Amount = amount
	}
	t.UpdatedAt = now
	return nil
}

// SetDate updates the posting date. Rejects reconciled transactions.
func (t *Transaction) SetDate(date time.Time, now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	t.Date = date
	t.UpdatedAt = now
	return nil
}

// SetPayee updates the payee. Rejects reconciled transactions.
func (t *Transaction) SetPayee(payee string, now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	if payee == "" {
		return ErrPayeeRequired
	}
	t.Payee = payee
	t.UpdatedAt = now
	return nil
}

// SetMemo updates the memo. Memo edits are allowed even when reconciled,
// since reconciliation locks date/amount/payee/envelope, not the memo.
func (t *Transaction) SetMemo(memo string, now time.Time) {
	t.Memo = memo
	t.UpdatedAt = now
}

// AssignEnvelope assigns (or clears) the envelope on a non-split, non-transfer,
// non-reconciled transaction.
func (t *Transaction) AssignEnvelope(envelopeID *uuid.UUID, now time.Time) error {
	if t.Type == Transfer {
		return ErrTransferNoEnvelope
	}
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	if t.HasSplits {
		return ErrHasSplits
	}
	t.EnvelopeID = envelopeID
	t.UpdatedAt = now
	return nil
}

// SetSplitState records whether split lines now exist for this transaction,
// clearing EnvelopeID when splits are attached (they are mutually exclusive).
// Rejects reconciled transactions.
func (t *Transaction) SetSplitState(hasSplits bool, now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	if hasSplits && t.Type != Outflow {
		return ErrOnlyOutflowsSplit
	}
	t.HasSplits = hasSplits
	if hasSplits {
		t.EnvelopeID = nil
	}
	t.UpdatedAt = now
	return nil
}

// MarkCleared transitions the transaction to cleared.
func (t *Transaction) MarkCleared(now time.Time) {
	t.IsCleared = true
	t.UpdatedAt = now
}

// MarkUncleared reverses MarkCleared. Rejects reconciled transactions: there
// is no transition out of reconciled except administrative action.
func (t *Transaction) MarkUncleared(now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	t.IsCleared = false
	t.UpdatedAt = now
	return nil
}

// MarkReconciled transitions a cleared transaction to reconciled. One-way
// under normal flow.
func (t *Transaction) MarkReconciled(now time.Time) error {
	if !t.IsCleared {
		return ErrNotCleared
	}
	t.IsReconciled = true
	t.UpdatedAt = now
	return nil
}

// SoftDelete flags the transaction as deleted, excluding it from every
// active query. Rejects reconciled transactions.
func (t *Transaction) SoftDelete(now time.Time) error {
	if t.IsReconciled {
		return ErrReconciledImmutable
	}
	t.IsDeleted = true
	t.UpdatedAt = now
	return nil
}

// IsTransferType reports whether this transaction is one leg of a transfer.
func (t Transaction) IsTransferType() bool {
	return t.Type == Transfer
}
