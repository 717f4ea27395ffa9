package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

const (
	adjustmentPayee = "Reconciliation Adjustment"
	adjustmentMemo  = "Auto-created to match statement ending balance"
)

// ReconcileRequest is the input to ReconciliationService.Reconcile.
type ReconcileRequest struct {
	AccountID                uuid.UUID
	StatementDate            time.Time
	StatementEndingBalance   money.Money
	TransactionIDs           []uuid.UUID
	CreateAdjustmentIfNeeded bool
}

// ReconcileResult is the outcome of a successful reconciliation.
type ReconcileResult struct {
	StatementEndingBalance     money.Money
	ClearedBalance             money.Money
	Difference                 money.Money
	ReconciledTransactionCount int
	AdjustmentTransaction      *domain.Transaction
}

// ReconciliationService implements component H: matching a set of cleared
// transactions against a statement's ending balance, producing either a
// zero-diff result or an explicit adjustment transaction.
type ReconciliationService struct {
	currency string
	recalc   *RecalculationService
}

// NewReconciliationService builds a ReconciliationService.
func NewReconciliationService(currency string, recalc *RecalculationService) *ReconciliationService {
	return &ReconciliationService{currency: currency, recalc: recalc}
}

// Reconcile runs the statement-vs-cleared state machine described in
// component H. Every targeted transaction must exist, belong to the account,
// be non-deleted, and not already be reconciled before any mutation occurs.
func (s *ReconciliationService) Reconcile(ctx context.Context, uow store.UnitOfWork, req ReconcileRequest, now time.Time) (*ReconcileResult, error) {
	account, err := uow.Accounts().GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ValidationErrorf("accountId", "account %s not found", req.AccountID)
	}

	targets := make([]*domain.Transaction, 0, len(req.TransactionIDs))
	for _, id := range req.TransactionIDs {
		tx, err := uow.Transactions().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tx == nil {
			return nil, ValidationErrorf("transactionIds", "transaction %s not found", id)
		}
		if tx.AccountID != req.AccountID {
			return nil, InvalidOperationErrorf("transaction %s does not belong to account %s", id, req.AccountID)
		}
		if tx.IsDeleted {
			return nil, InvalidOperationErrorf("transaction %s is deleted", id)
		}
		if tx.IsReconciled {
			return nil, InvalidOperationErrorf("transaction %s is already reconciled", id)
		}
		targets = append(targets, tx)
	}

	for _, tx := range targets {
		if !tx.IsCleared {
			tx.MarkCleared(now)
			if err := uow.Transactions().Update(ctx, tx); err != nil {
				return nil, err
			}
		}
	}

	if err := s.refreshBalances(ctx, uow, account, now); err != nil {
		return nil, err
	}

	difference, err := req.StatementEndingBalance.Sub(account.ClearedBalance)
	if err != nil {
		return nil, err
	}

	var adjustment *domain.Transaction
	if !difference.IsZero() {
		if !req.CreateAdjustmentIfNeeded {
			return nil, InvalidOperationErrorf("difference must be zero")
		}

		if difference.IsPositive() {
			adjustment, err = domain.NewInflow(req.AccountID, req.StatementDate, difference, adjustmentPayee, adjustmentMemo, now)
		} else {
			adjustment, err = domain.NewOutflow(req.AccountID, nil, req.StatementDate, difference.Abs(), adjustmentPayee, adjustmentMemo, now)
		}
		if err != nil {
			return nil, err
		}

		adjustment.MarkCleared(now)
		if err := uow.Transactions().Add(ctx, adjustment); err != nil {
			return nil, err
		}
		if err := adjustment.MarkReconciled(now); err != nil {
			return nil, err
		}
		if err := uow.Transactions().Update(ctx, adjustment); err != nil {
			return nil, err
		}

		targets = append(targets, adjustment)

		if err := s.refreshBalances(ctx, uow, account, now); err != nil {
			return nil, err
		}
		difference, err = req.StatementEndingBalance.Sub(account.ClearedBalance)
		if err != nil {
			return nil, err
		}
	}

	for _, tx := range targets {
		if tx.IsReconciled {
			continue
		}
		if err := tx.MarkReconciled(now); err != nil {
			return nil, err
		}
		if err := uow.Transactions().Update(ctx, tx); err != nil {
			return nil, err
		}
	}

	account.MarkReconciled(req.StatementDate)
	if err := uow.Accounts().Update(ctx, account); err != nil {
		return nil, err
	}

	if _, err := s.recalc.Recalculate(ctx, uow, req.StatementDate.Year(), int(req.StatementDate.Month()), now); err != nil {
		return nil, err
	}

	return &ReconcileResult{
		StatementEndingBalance:     req.StatementEndingBalance,
		ClearedBalance:             account.ClearedBalance,
		Difference:                 money.Zero(s.currency),
		ReconciledTransactionCount: len(targets),
		AdjustmentTransaction:      adjustment,
	}, nil
}

func (s *ReconciliationService) refreshBalances(ctx context.Context, uow store.UnitOfWork, account *domain.Account, now time.Time) error {
	total, err := uow.Accounts().AccountBalance(ctx, account.ID)
	if err != nil {
		return err
	}
	cleared, err := uow.Accounts().AccountClearedBalance(ctx, account.ID)
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
