package engine

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/importcsv"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// PreviewRow mirrors an importcsv.Row after the store has been consulted for
// existing-fingerprint duplicates, which importcsv itself cannot check.
type PreviewRow struct {
	RowNumber   int
	Date        *time.Time
	Amount      *money.Money
	Payee       string
	Memo        string
	Status      importcsv.RowStatus
	Fingerprint string
	Error       string
}

// PreviewResult is the output of ImportService.Preview.
type PreviewResult struct {
	Rows           []PreviewRow
	NewCount       int
	DuplicateCount int
	InvalidCount   int
	MinDate        time.Time
	MaxDate        time.Time
}

// CommitRequest selects, from a previously previewed file, which rows to
// actually insert. Re-parsing on commit (rather than trusting the caller's
// copy of Preview's output) keeps the import idempotent against concurrent
// changes to the account's transaction history.
type CommitRequest struct {
	AccountID  uuid.UUID
	RowNumbers []int
}

// CommitResult reports what Commit actually did.
type CommitResult struct {
	InsertedCount         int
	SkippedDuplicateCount int
}

// ImportService implements component G: CSV preview and commit.
type ImportService struct {
	currency string
	txn      *TransactionService
	recalc   *RecalculationService
}

// NewImportService builds an ImportService.
func NewImportService(currency string, txn *TransactionService, recalc *RecalculationService) *ImportService {
	return &ImportService{currency: currency, txn: txn, recalc: recalc}
}

// Preview parses r and classifies every row, cross-checking fingerprints
// that importcsv marked New against the store's existing non-deleted
// transactions for the account within the file's date span. Preview never
// mutates state and does not begin a unit of work of its own; callers pass
// a read-only unit of work (or any store.UnitOfWork opened for the query).
func (s *ImportService) Preview(ctx context.Context, uow store.UnitOfWork, accountID uuid.UUID, r io.Reader) (*PreviewResult, error) {
	account, err := uow.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ValidationErrorf("accountId", "account %s not found", accountID)
	}

	parsed, err := importcsv.Parse(r, accountID, account.Currency)
	if err != nil {
		return nil, ValidationErrorf("file", "could not parse CSV: %s", err.Error())
	}

	result := &PreviewResult{MinDate: parsed.MinDate, MaxDate: parsed.MaxDate}

	var dateRange money.DateRange
	hasRange := !parsed.MinDate.IsZero()
	if hasRange {
		dateRange, err = money.NewDateRange(parsed.MinDate, parsed.MaxDate)
		if err != nil {
			return nil, err
		}
	}

	for _, row := range parsed.Rows {
		out := PreviewRow{
			RowNumber:   row.RowNumber,
			Date:        row.Date,
			Amount:      row.Amount,
			Payee:       row.Payee,
			Memo:        row.Memo,
			Status:      row.Status,
			Fingerprint: row.Fingerprint,
			Error:       row.Error,
		}

		if out.Status == importcsv.StatusNew && hasRange {
			exists, err := uow.Transactions().ExistsFingerprint(ctx, accountID, dateRange, row.Fingerprint)
			if err != nil {
				return nil, err
			}
			if exists {
				out.Status = importcsv.StatusDuplicate
			}
		}

		switch out.Status {
		case importcsv.StatusNew:
			result.NewCount++
		case importcsv.StatusDuplicate:
			result.DuplicateCount++
		case importcsv.StatusInvalid:
			result.InvalidCount++
		}

		result.Rows = append(result.Rows, out)
	}

	return result, nil
}

// Commit re-parses r, restricts to the rows named in req.RowNumbers, and
// inserts any that are still New (re-checked against the store and against
// an in-batch fingerprint set; Parse has already marked every repeated
// in-file fingerprint Duplicate, so such rows are skipped before that set is
// consulted). It recalculates every distinct (year, month)
// touched by an inserted row, in ascending chronological order, before
// returning.
func (s *ImportService) Commit(ctx context.Context, uow store.UnitOfWork, req CommitRequest, r io.Reader, now time.Time) (*CommitResult, error) {
	account, err := uow.Accounts().GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ValidationErrorf("accountId", "account %s not found", req.AccountID)
	}

	parsed, err := importcsv.Parse(r, req.AccountID, account.Currency)
	if err != nil {
		return nil, ValidationErrorf("file", "could not parse CSV: %s", err.Error())
	}

	selected := make(map[int]bool, len(req.RowNumbers))
	for _, n := range req.RowNumbers {
		selected[n] = true
	}

	var dateRange money.DateRange
	hasRange := !parsed.MinDate.IsZero()
	if hasRange {
		dateRange, err = money.NewDateRange(parsed.MinDate, parsed.MaxDate)
		if err != nil {
			return nil, err
		}
	}

	result := &CommitResult{}
	seenInBatch := make(map[string]bool)
	touchedPeriods := make(map[[2]int]bool)

	for _, row := range parsed.Rows {
		if !selected[row.RowNumber] || row.Status != importcsv.StatusNew {
			continue
		}

		if seenInBatch[row.Fingerprint] {
			result.SkippedDuplicateCount++
			continue
		}

		if hasRange {
			exists, err := uow.Transactions().ExistsFingerprint(ctx, req.AccountID, dateRange, row.Fingerprint)
			if err != nil {
				return nil, err
			}
			if exists {
				result.SkippedDuplicateCount++
				continue
			}
		}

		var tx *domain.Transaction
		if row.Amount.IsNegative() {
			tx, err = s.txn.CreateOutflow(ctx, uow, req.AccountID, *row.Date, row.Amount.Abs(), row.Payee, nil, nil, row.Memo, now)
		} else {
			tx, err = s.txn.CreateInflow(ctx, uow, req.AccountID, *row.Date, *row.Amount, row.Payee, row.Memo, now)
		}
		if err != nil {
			return nil, err
		}

		seenInBatch[row.Fingerprint] = true
		result.InsertedCount++
		touchedPeriods[[2]int{tx.Date.Year(), int(tx.Date.Month())}] = true
	}

	ordered := orderedPeriods(touchedPeriods)
	for _, p := range ordered {
		if _, err := s.recalc.Recalculate(ctx, uow, p[0], p[1], now); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func orderedPeriods(touched map[[2]int]bool) [][2]int {
	ordered := make([][2]int, 0, len(touched))
	for p := range touched {
		ordered = append(ordered, p)
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			a, b := ordered[j-1], ordered[j]
			if a[0] > b[0] || (a[0] == b[0] && a[1] > b[1]) {
				ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			} else {
				break
			}
		}
	}
	return ordered
}
