package engine

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// Orchestrator implements component I: the single entry point every caller
// (the HTTP facade, tests, a future CLI) uses to run a business operation.
// Every mutating method begins a unit of work, runs the operation, recalculates
// every budget period the operation may have touched, reads back a snapshot,
// and commits; any error rolls the unit of work back and is translated into a
// Result via Classify. SetGoal touches no budget period and CommitImport
// recalculates inside ImportService.Commit, so neither returns a snapshot
// (Result.Snapshot is nil). Read-only methods never begin a unit of work of their
// own writable kind — they open one for the query and always roll it back.
type Orchestrator struct {
	store  store.Store
	txn    *TransactionService
	alloc  *AllocationService
	recon  *ReconciliationService
	imp    *ImportService
	recalc *RecalculationService
}

// NewOrchestrator wires the five domain services behind a single facade.
func NewOrchestrator(s store.Store, currency string) *Orchestrator {
	recalc := NewRecalculationService(currency)
	return &Orchestrator{
		store:  s,
		txn:    NewTransactionService(currency),
		alloc:  NewAllocationService(currency, recalc),
		recon:  NewReconciliationService(currency, recalc),
		imp:    NewImportService(currency, NewTransactionService(currency), recalc),
		recalc: recalc,
	}
}

func (o *Orchestrator) run(ctx context.Context, periodsOf func(uow store.UnitOfWork) ([][2]int, any, error)) Result {
	uow, err := o.store.Begin(ctx)
	if err != nil {
		return failure(UnexpectedErrorf(err))
	}

	periods, value, err := periodsOf(uow)
	if err != nil {
		uow.Rollback()
		return failure(Classify(err))
	}

	var snapshot *BudgetSnapshot
	now := store.Now()
	for _, p := range periods {
		period, err := o.recalc.Recalculate(ctx, uow, p[0], p[1], now)
		if err != nil {
			uow.Rollback()
			return failure(Classify(err))
		}
		snap, err := NewBudgetSnapshot(*period)
		if err != nil {
			uow.Rollback()
			return failure(Classify(err))
		}
		snapshot = &snap
	}

	if err := uow.Commit(); err != nil {
		uow.Rollback()
		return failure(Classify(err))
	}

	return success(snapshot, allocationChangesOf(value), value)
}

func allocationChangesOf(value any) []AllocationChange {
	if changes, ok := value.([]AllocationChange); ok {
		return changes
	}
	return nil
}

func periodOf(date time.Time) [2]int {
	return [2]int{date.Year(), int(date.Month())}
}

// CreateOutflow records an outflow and recalculates its month.
func (o *Orchestrator) CreateOutflow(ctx context.Context, accountID uuid.UUID, date time.Time, amount money.Money, payee string, envelopeID *uuid.UUID, splits []SplitInput, memo string) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		tx, err := o.txn.CreateOutflow(ctx, uow, accountID, date, amount, payee, envelopeID, splits, memo, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(tx.Date)}, tx, nil
	})
}

// CreateInflow records an inflow and recalculates its month.
func (o *Orchestrator) CreateInflow(ctx context.Context, accountID uuid.UUID, date time.Time, amount money.Money, payee, memo string) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		tx, err := o.txn.CreateInflow(ctx, uow, accountID, date, amount, payee, memo, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(tx.Date)}, tx, nil
	})
}

// CreateTransfer records a linked transfer pair and recalculates its month.
func (o *Orchestrator) CreateTransfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, date time.Time, amount money.Money, memo string) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		from, to, err := o.txn.CreateTransfer(ctx, uow, fromAccountID, toAccountID, date, amount, memo, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(from.Date)}, [2]*domain.Transaction{from, to}, nil
	})
}

// UpdateTransaction applies a patch, recalculating both the transaction's
// prior and (if the date changed) new month.
func (o *Orchestrator) UpdateTransaction(ctx context.Context, id uuid.UUID, patch TransactionPatch) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		existing, err := uow.Transactions().GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if existing == nil {
			return nil, nil, ValidationErrorf("id", "transaction %s not found", id)
		}
		before := periodOf(existing.Date)

		now := store.Now()
		tx, err := o.txn.UpdateTransaction(ctx, uow, id, patch, now)
		if err != nil {
			return nil, nil, err
		}

		after := periodOf(tx.Date)
		if after == before {
			return [][2]int{before}, tx, nil
		}
		return [][2]int{before, after}, tx, nil
	})
}

// DeleteTransaction soft-deletes a transaction and recalculates its month.
func (o *Orchestrator) DeleteTransaction(ctx context.Context, id uuid.UUID) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		tx, err := uow.Transactions().GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if tx == nil {
			return nil, nil, ValidationErrorf("id", "transaction %s not found", id)
		}
		period := periodOf(tx.Date)

		now := store.Now()
		if err := o.txn.DeleteTransaction(ctx, uow, id, now); err != nil {
			return nil, nil, err
		}
		return [][2]int{period}, nil, nil
	})
}

// MarkCleared marks a transaction cleared.
func (o *Orchestrator) MarkCleared(ctx context.Context, id uuid.UUID) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		tx, err := o.txn.MarkCleared(ctx, uow, id, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(tx.Date)}, tx, nil
	})
}

// MarkUncleared marks a transaction uncleared.
func (o *Orchestrator) MarkUncleared(ctx context.Context, id uuid.UUID) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		tx, err := o.txn.MarkUncleared(ctx, uow, id, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(tx.Date)}, tx, nil
	})
}

// AssignToEnvelope assigns an envelope to an existing transaction.
func (o *Orchestrator) AssignToEnvelope(ctx context.Context, id, envelopeID uuid.UUID) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		tx, err := o.txn.AssignToEnvelope(ctx, uow, id, envelopeID, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(tx.Date)}, tx, nil
	})
}

// SetAllocation sets an envelope's allocated amount for a month.
func (o *Orchestrator) SetAllocation(ctx context.Context, envelopeID uuid.UUID, amount money.Money, year, month int) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		alloc, err := o.alloc.SetAllocation(ctx, uow, envelopeID, amount, year, month, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{{year, month}}, alloc, nil
	})
}

// AdjustAllocation applies a signed delta to an envelope's allocation.
func (o *Orchestrator) AdjustAllocation(ctx context.Context, envelopeID uuid.UUID, delta money.Money, year, month int) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		alloc, err := o.alloc.AdjustAllocation(ctx, uow, envelopeID, delta, year, month, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{{year, month}}, alloc, nil
	})
}

// MoveAllocation moves allocated amount between two envelopes within a month.
func (o *Orchestrator) MoveAllocation(ctx context.Context, fromEnvelopeID, toEnvelopeID uuid.UUID, amount money.Money, year, month int) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		changes, err := o.alloc.Move(ctx, uow, fromEnvelopeID, toEnvelopeID, amount, year, month, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{{year, month}}, changes, nil
	})
}

// SetGoal sets or replaces an envelope's savings goal.
func (o *Orchestrator) SetGoal(ctx context.Context, envelopeID uuid.UUID, amount money.Money, targetDate *time.Time) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		env, err := o.alloc.SetGoal(ctx, uow, envelopeID, amount, targetDate, now)
		if err != nil {
			return nil, nil, err
		}
		return nil, env, nil
	})
}

// AutoAssignToGoals distributes ready-to-assign across goal envelopes for a month.
func (o *Orchestrator) AutoAssignToGoals(ctx context.Context, mode AutoAssignMode, year, month int) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		changes, err := o.alloc.AutoAssignToGoals(ctx, uow, mode, year, month, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{{year, month}}, changes, nil
	})
}

// Rollover closes a month and seeds the next one.
func (o *Orchestrator) Rollover(ctx context.Context, year, month int) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		next, err := o.alloc.Rollover(ctx, uow, year, month, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{{next.Year, next.Month}}, next, nil
	})
}

// Reconcile runs a statement reconciliation for an account.
func (o *Orchestrator) Reconcile(ctx context.Context, req ReconcileRequest) Result {
	return o.run(ctx, func(uow store.UnitOfWork) ([][2]int, any, error) {
		now := store.Now()
		res, err := o.recon.Reconcile(ctx, uow, req, now)
		if err != nil {
			return nil, nil, err
		}
		return [][2]int{periodOf(req.StatementDate)}, res, nil
	})
}

// PreviewImport parses and classifies a CSV file without mutating state. It
// opens a unit of work purely to run read queries against the store and
// always rolls it back.
func (o *Orchestrator) PreviewImport(ctx context.Context, accountID uuid.UUID, r io.Reader) Result {
	uow, err := o.store.Begin(ctx)
	if err != nil {
		return failure(UnexpectedErrorf(err))
	}
	defer uow.Rollback()

	preview, err := o.imp.Preview(ctx, uow, accountID, r)
	if err != nil {
		return failure(Classify(err))
	}
	return success(nil, nil, preview)
}

// CommitImport inserts the selected rows of a previously previewed CSV file
// and recalculates every month touched.
func (o *Orchestrator) CommitImport(ctx context.Context, req CommitRequest, r io.Reader) Result {
	uow, err := o.store.Begin(ctx)
	if err != nil {
		return failure(UnexpectedErrorf(err))
	}

	now := store.Now()
	res, err := o.imp.Commit(ctx, uow, req, r, now)
	if err != nil {
		uow.Rollback()
		return failure(Classify(err))
	}

	if err := uow.Commit(); err != nil {
		uow.Rollback()
		return failure(Classify(err))
	}

	return success(nil, nil, res)
}
