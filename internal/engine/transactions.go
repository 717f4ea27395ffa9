package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// SplitInput is the caller-supplied shape of one split line.
type SplitInput struct {
	EnvelopeID uuid.UUID
	Amount     money.Money
	SortOrder  int
}

// TransactionPatch describes a partial update to a transaction. A nil field
// leaves that attribute unchanged; SetEnvelope/SetSplits distinguish "leave
// unchanged" from "explicitly clear".
type TransactionPatch struct {
	Date        *time.Time
	Amount      *money.Money
	Payee       *string
	Memo        *string
	SetEnvelope bool
	EnvelopeID  *uuid.UUID
	SetSplits   bool
	Splits      []SplitInput
}

// TransactionService implements component E: create/update/delete of
// inflows, outflows (with optional splits), and linked transfer pairs, and
// maintains account balance caches after every mutation.
type TransactionService struct {
	currency string
}

// NewTransactionService builds a TransactionService for the given budget currency.
func NewTransactionService(currency string) *TransactionService {
	return &TransactionService{currency: currency}
}

// CreateOutflow validates the account (and either the splits or the single
// envelope), inserts the transaction with a negated amount, upserts the
// payee, and refreshes the account's cached balances.
func (s *TransactionService) CreateOutflow(ctx context.Context, uow store.UnitOfWork, accountID uuid.UUID, date time.Time, amount money.Money, payee string, envelopeID *uuid.UUID, splits []SplitInput, memo string, now time.Time) (*domain.Transaction, error) {
	if err := s.requireAccount(ctx, uow, accountID); err != nil {
		return nil, err
	}

	if len(splits) > 0 && envelopeID != nil {
		return nil, ValidationErrorf("envelopeId", "a transaction cannot have both an envelope and splits")
	}

	if envelopeID != nil {
		if err := s.requireEnvelope(ctx, uow, *envelopeID); err != nil {
			return nil, err
		}
	}

	tx, err := domain.NewOutflow(accountID, envelopeID, date, amount, payee, memo, now)
	if err != nil {
		return nil, err
	}

	var lines []domain.SplitLine
	if len(splits) > 0 {
		lines, err = s.buildSplitLines(ctx, uow, tx.ID, splits, amount, now)
		if err != nil {
			return nil, err
		}
		if err := tx.SetSplitState(true, now); err != nil {
			return nil, err
		}
	}

	if err := uow.Transactions().Add(ctx, tx); err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		if err := uow.TransactionSplits().ReplaceForTransaction(ctx, tx.ID, lines); err != nil {
			return nil, err
		}
	}

	if err := s.upsertPayee(ctx, uow, payee, envelopeID, now); err != nil {
		return nil, err
	}
	if err := s.refreshBalances(ctx, uow, accountID, now); err != nil {
		return nil, err
	}

	return tx, nil
}

// CreateInflow inserts an inflow. Inflows are never envelope-assigned or split.
func (s *TransactionService) CreateInflow(ctx context.Context, uow store.UnitOfWork, accountID uuid.UUID, date time.Time, amount money.Money, payee, memo string, now time.Time) (*domain.Transaction, error) {
	if err := s.requireAccount(ctx, uow, accountID); err != nil {
		return nil, err
	}

	tx, err := domain.NewInflow(accountID, date, amount, payee, memo, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Transactions().Add(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.upsertPayee(ctx, uow, payee, nil, now); err != nil {
		return nil, err
	}
	if err := s.refreshBalances(ctx, uow, accountID, now); err != nil {
		return nil, err
	}

	return tx, nil
}

// CreateTransfer inserts a linked pair of transfer transactions. Rejects
// same-account transfers. Uses the two-phase insert-then-link pattern so the
// store can enforce referential integrity.
func (s *TransactionService) CreateTransfer(ctx context.Context, uow store.UnitOfWork, fromAccountID, toAccountID uuid.UUID, date time.Time, amount money.Money, memo string, now time.Time) (from, to *domain.Transaction, err error) {
	if err := s.requireAccount(ctx, uow, fromAccountID); err != nil {
		return nil, nil, err
	}
	if err := s.requireAccount(ctx, uow, toAccountID); err != nil {
		return nil, nil, err
	}

	from, to, err = domain.NewTransferPair(fromAccountID, toAccountID, date, amount, memo, now)
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Transactions().Add(ctx, from); err != nil {
		return nil, nil, err
	}
	if err := uow.Transactions().Add(ctx, to); err != nil {
		return nil, nil, err
	}

	from.Link(to.ID, now)
	to.Link(from.ID, now)
	if err := uow.Transactions().Update(ctx, from); err != nil {
		return nil, nil, err
	}
	if err := uow.Transactions().Update(ctx, to); err != nil {
		return nil, nil, err
	}

	if err := s.refreshBalances(ctx, uow, fromAccountID, now); err != nil {
		return nil, nil, err
	}
	if err := s.refreshBalances(ctx, uow, toAccountID, now); err != nil {
		return nil, nil, err
	}

	return from, to, nil
}

// UpdateTransaction applies a partial update. Rejects reconciled transactions.
// Replacing splits replaces the entire set; an amount change on a split
// transaction requires new splits that still sum. Assigning an envelope to a
// split transaction is rejected.
func (s *TransactionService) UpdateTransaction(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, patch TransactionPatch, now time.Time) (*domain.Transaction, error) {
	tx, err := uow.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ValidationErrorf("id", "transaction %s not found", id)
	}
	if tx.IsReconciled {
		return nil, domain.ErrReconciledImmutable
	}

	targetAbs := tx.Amount.Abs()
	if patch.Amount != nil {
		targetAbs = *patch.Amount
	}

	if patch.SetSplits {
		if tx.Type != domain.Outflow {
			return nil, domain.ErrOnlyOutflowsSplit
		}
		lines, err := s.buildSplitLines(ctx, uow, id, patch.Splits, targetAbs, now)
		if err != nil {
			return nil, err
		}
		if err := uow.TransactionSplits().ReplaceForTransaction(ctx, id, lines); err != nil {
			return nil, err
		}
		if err := tx.SetSplitState(len(lines) > 0, now); err != nil {
			return nil, err
		}
	} else if patch.Amount != nil && tx.HasSplits {
		return nil, InvalidOperationErrorf("amount changes on a split transaction require new splits that sum to the new amount")
	}

	if patch.Amount != nil {
		if err := tx.SetAmount(*patch.Amount, now); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil {
		if err := tx.SetDate(*patch.Date, now); err != nil {
			return nil, err
		}
	}
	if patch.Payee != nil {
		if err := tx.SetPayee(*patch.Payee, now); err != nil {
			return nil, err
		}
	}
	if patch.Memo != nil {
		tx.SetMemo(*patch.Memo, now)
	}
	if patch.SetEnvelope {
		if err := tx.AssignEnvelope(patch.EnvelopeID, now); err != nil {
			return nil, err
		}
	}

	if err := uow.Transactions().Update(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.refreshBalances(ctx, uow, tx.AccountID, now); err != nil {
		return nil, err
	}

	return tx, nil
}

// DeleteTransaction soft-deletes a transaction. Rejects reconciled
// transactions. For transfers, the linked transaction is also soft-deleted.
func (s *TransactionService) DeleteTransaction(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, now time.Time) error {
	tx, err := uow.Transactions().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return ValidationErrorf("id", "transaction %s not found", id)
	}
	if err := tx.SoftDelete(now); err != nil {
		return err
	}
	if err := uow.Transactions().Update(ctx, tx); err != nil {
		return err
	}

	affected := []uuid.UUID{tx.AccountID}

	if tx.Type == domain.Transfer && tx.LinkedTransactionID != nil {
		linked, err := uow.Transactions().GetByID(ctx, *tx.LinkedTransactionID)
		if err != nil {
			return err
		}
		if linked != nil && !linked.IsDeleted {
			if err := linked.SoftDelete(now); err != nil {
				return err
			}
			if err := uow.Transactions().Update(ctx, linked); err != nil {
				return err
			}
			affected = append(affected, linked.AccountID)
		}
	}

	for _, acctID := range affected {
		if err := s.refreshBalances(ctx, uow, acctID, now); err != nil {
			return err
		}
	}
	return nil
}

// MarkCleared transitions a transaction to cleared and refreshes balances.
func (s *TransactionService) MarkCleared(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, now time.Time) (*domain.Transaction, error) {
	tx, err := uow.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ValidationErrorf("id", "transaction %s not found", id)
	}

	tx.MarkCleared(now)
	if err := uow.Transactions().Update(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.refreshBalances(ctx, uow, tx.AccountID, now); err != nil {
		return nil, err
	}
	return tx, nil
}

// MarkUncleared reverses MarkCleared. Rejects reconciled transactions.
func (s *TransactionService) MarkUncleared(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, now time.Time) (*domain.Transaction, error) {
	tx, err := uow.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ValidationErrorf("id", "transaction %s not found", id)
	}

	if err := tx.MarkUncleared(now); err != nil {
		return nil, err
	}
	if err := uow.Transactions().Update(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.refreshBalances(ctx, uow, tx.AccountID, now); err != nil {
		return nil, err
	}
	return tx, nil
}

// AssignToEnvelope assigns an envelope to a non-transfer, non-reconciled,
// non-split transaction. On success, if the payee had no default envelope,
// this assignment becomes the payee's default.
func (s *TransactionService) AssignToEnvelope(ctx context.Context, uow store.UnitOfWork, id, envelopeID uuid.UUID, now time.Time) (*domain.Transaction, error) {
	tx, err := uow.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ValidationErrorf("id", "transaction %s not found", id)
	}

	if err := s.requireEnvelope(ctx, uow, envelopeID); err != nil {
		return nil, err
	}

	env := envelopeID
	if err := tx.AssignEnvelope(&env, now); err != nil {
		return nil, err
	}

	if err := uow.Transactions().Update(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.upsertPayee(ctx, uow, tx.Payee, &env, now); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *TransactionService) requireAccount(ctx context.Context, uow store.UnitOfWork, accountID uuid.UUID) error {
	account, err := uow.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ValidationErrorf("accountId", "account %s not found", accountID)
	}
	return nil
}

func (s *TransactionService) requireEnvelope(ctx context.Context, uow store.UnitOfWork, envelopeID uuid.UUID) error {
	exists, err := uow.Envelopes().ExistsByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	if !exists {
		return ValidationErrorf("envelopeId", "envelope %s not found", envelopeID)
	}
	return nil
}

func (s *TransactionService) buildSplitLines(ctx context.Context, uow store.UnitOfWork, transactionID uuid.UUID, inputs []SplitInput, expectedAbs money.Money, now time.Time) ([]domain.SplitLine, error) {
	lines := make([]domain.SplitLine, 0, len(inputs))
	sum := money.Zero(s.currency)

	for _, in := range inputs {
		if err := s.requireEnvelope(ctx, uow, in.EnvelopeID); err != nil {
			return nil, err
		}

		line, err := domain.NewSplitLine(transactionID, in.EnvelopeID, in.Amount, in.SortOrder)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)

		sum, err = sum.Add(in.Amount)
		if err != nil {
			return nil, err
		}
	}

	if !sum.Equal(expectedAbs) {
		return nil, InvalidOperationErrorf("split amounts sum to %s, expected %s", sum, expectedAbs)
	}

	return lines, nil
}

func (s *TransactionService) upsertPayee(ctx context.Context, uow store.UnitOfWork, name string, envelopeID *uuid.UUID, now time.Time) error {
	normalized := domain.NormalizePayeeName(name)
	if normalized == "" {
		return nil
	}

	payee, err := uow.Payees().ByName(ctx, normalized)
	if err != nil {
		return err
	}

	if payee == nil {
		payee, err = domain.NewPayee(normalized, now)
		if err != nil {
			return err
		}
		payee.RecordUsage(now)
		if envelopeID != nil {
			payee.SetDefaultEnvelopeIfAbsent(*envelopeID, now)
		}
		return uow.Payees().Add(ctx, payee)
	}

	payee.RecordUsage(now)
	if envelopeID != nil {
		payee.SetDefaultEnvelopeIfAbsent(*envelopeID, now)
	}
	return uow.Payees().Update(ctx, payee)
}

func (s *TransactionService) refreshBalances(ctx context.Context, uow store.UnitOfWork, accountID uuid.UUID, now time.Time) error {
	account, err := uow.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}

	total, err := uow.Accounts().AccountBalance(ctx, accountID)
	if err != nil {
		return err
	}
	cleared, err := uow.Accounts().AccountClearedBalance(ctx, accountID)
	if err != nil {
		return err
	}
	uncleared, err := total.Sub(cleared)
	if err != nil {
		return err
	}

	if err := account.SetBalances(cleared, uncleared, now); err != nil {
		return err
	}
	return uow.Accounts().Update(ctx, account)
}
