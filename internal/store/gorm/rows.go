// Package gormstore is the GORM/SQLite implementation of the store.Store
// contract (component C). It is the only package in the module that knows
// about table layout; the engine package only ever sees store.UnitOfWork.
package gormstore

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

type accountRow struct {
	ID               uuid.UUID `gorm:"type:text;primaryKey"`
	Name             string
	Type             int
	Balance          decimal.Decimal `gorm:"type:decimal(20,2)"`
	ClearedBalance   decimal.Decimal `gorm:"type:decimal(20,2)"`
	UnclearedBalance decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency         string
	IsActive         bool
	IsOnBudget       bool
	SortOrder        int
	Note             string
	LastReconciledAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (accountRow) TableName() string { return "accounts" }

func newAccountRow(a *domain.Account) accountRow {
	return accountRow{
		ID:               a.ID,
		Name:             a.Name,
		Type:             int(a.Type),
		Balance:          a.Balance.Amount(),
		ClearedBalance:   a.ClearedBalance.Amount(),
		UnclearedBalance: a.UnclearedBalance.Amount(),
		Currency:         a.Currency,
		IsActive:         a.IsActive,
		IsOnBudget:       a.IsOnBudget,
		SortOrder:        a.SortOrder,
		Note:             a.Note,
		LastReconciledAt: a.LastReconciledAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (r accountRow) toDomain() (*domain.Account, error) {
	balance, err := money.New(r.Balance, r.Currency)
	if err != nil {
		return nil, err
	}
	cleared, err := money.New(r.ClearedBalance, r.Currency)
	if err != nil {
		return nil, err
	}
	uncleared, err := money.New(r.UnclearedBalance, r.Currency)
	if err != nil {
		return nil, err
	}

	return domain.FromPersistedState(
		r.ID, r.Name, domain.AccountType(r.Type), balance, cleared, uncleared, r.Currency,
		r.IsActive, r.IsOnBudget, r.SortOrder, r.Note, r.LastReconciledAt, r.CreatedAt, r.UpdatedAt,
	), nil
}

type envelopeRow struct {
	ID            uuid.UUID `gorm:"type:text;primaryKey"`
	Name          string
	Group         string
	Color         string
	SortOrder     int
	IsActive      bool
	IsHidden      bool
	GoalAmount    decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	GoalCurrency  string
	GoalDate      *time.Time
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (envelopeRow) TableName() string { return "envelopes" }

func newEnvelopeRow(e *domain.Envelope) envelopeRow {
	row := envelopeRow{
		ID:        e.ID,
		Name:      e.Name,
		Group:     e.Group,
		Color:     e.Color,
		SortOrder: e.SortOrder,
		IsActive:  e.IsActive,
		IsHidden:  e.IsHidden,
		GoalDate:  e.GoalDate,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.GoalAmount != nil {
		row.GoalAmount = decimal.NullDecimal{Decimal: e.GoalAmount.Amount(), Valid: true}
		row.GoalCurrency = e.GoalAmount.Currency()
	}
	return row
}

func (r envelopeRow) toDomain() (*domain.Envelope, error) {
	var goalAmount *money.Money
	if r.GoalAmount.Valid {
		m, err := money.New(r.GoalAmount.Decimal, r.GoalCurrency)
		if err != nil {
			return nil, err
		}
		goalAmount = &m
	}

	return domain.EnvelopeFromPersistedState(
		r.ID, r.Name, r.Group, r.Color, r.SortOrder, r.IsActive, r.IsHidden,
		goalAmount, r.GoalDate, r.Note, r.CreatedAt, r.UpdatedAt,
	), nil
}

type transactionRow struct {
	ID                  uuid.UUID `gorm:"type:text;primaryKey"`
	AccountID           uuid.UUID `gorm:"type:text;index"`
	EnvelopeID          *uuid.UUID `gorm:"type:text;index"`
	TransferAccountID   *uuid.UUID `gorm:"type:text"`
	LinkedTransactionID *uuid.UUID `gorm:"type:text"`
	Date                time.Time `gorm:"index"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency            string
	Payee               string
	Memo                string
	Type                int
	IsCleared           bool
	IsReconciled        bool
	IsApproved          bool
	IsDeleted           bool `gorm:"index"`
	HasSplits           bool
	ImportFingerprint   string `gorm:"index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (transactionRow) TableName() string { return "transactions" }

func newTransactionRow(t *domain.Transaction, fingerprint string) transactionRow {
	return transactionRow{
		ID:                  t.ID,
		AccountID:           t.AccountID,
		EnvelopeID:          t.EnvelopeID,
		TransferAccountID:   t.TransferAccountID,
		LinkedTransactionID: t.LinkedTransactionID,
		Date:                t.Date,
		Amount:              t.Amount.Amount(),
		Currency:            t.Amount.Currency(),
		Payee:               t.Payee,
		Memo:                t.Memo,
		Type:                int(t.Type),
		IsCleared:           t.IsCleared,
		IsReconciled:        t.IsReconciled,
		IsApproved:          t.IsApproved,
		IsDeleted:           t.IsDeleted,
		HasSplits:           t.HasSplits,
		ImportFingerprint:   fingerprint,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func (r transactionRow) toDomain() (*domain.Transaction, error) {
	amount, err := money.New(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}

	return domain.TransactionFromPersistedState(
		r.ID, r.AccountID, r.EnvelopeID, r.TransferAccountID, r.LinkedTransactionID,
		r.Date, amount, r.Payee, r.Memo, domain.TransactionType(r.Type),
		r.IsCleared, r.IsReconciled, r.IsApproved, r.IsDeleted, r.HasSplits,
		r.CreatedAt, r.UpdatedAt,
	), nil
}

type splitLineRow struct {
	ID            uuid.UUID `gorm:"type:text;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:text;index"`
	EnvelopeID    uuid.UUID `gorm:"type:text;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency      string
	SortOrder     int
}

func (splitLineRow) TableName() string { return "transaction_splits" }

func newSplitLineRow(s *domain.SplitLine) splitLineRow {
	return splitLineRow{
		ID:            s.ID,
		TransactionID: s.TransactionID,
		EnvelopeID:    s.EnvelopeID,
		Amount:        s.Amount.Amount(),
		Currency:      s.Amount.Currency(),
		SortOrder:     s.SortOrder,
	}
}

func (r splitLineRow) toDomain() (*domain.SplitLine, error) {
	amount, err := money.New(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}
	return domain.SplitLineFromPersistedState(r.ID, r.TransactionID, r.EnvelopeID, amount, r.SortOrder), nil
}

type budgetPeriodRow struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey"`
	Year           int       `gorm:"uniqueIndex:idx_budget_period_year_month"`
	Month          int       `gorm:"uniqueIndex:idx_budget_period_year_month"`
	TotalIncome    decimal.Decimal `gorm:"type:decimal(20,2)"`
	TotalAllocated decimal.Decimal `gorm:"type:decimal(20,2)"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(20,2)"`
	CarriedOver    decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency       string
	IsClosed       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (budgetPeriodRow) TableName() string { return "budget_periods" }

func newBudgetPeriodRow(p *domain.BudgetPeriod) budgetPeriodRow {
	return budgetPeriodRow{
		ID:             p.ID,
		Year:           p.Year,
		Month:          p.Month,
		TotalIncome:    p.TotalIncome.Amount(),
		TotalAllocated: p.TotalAllocated.Amount(),
		TotalSpent:     p.TotalSpent.Amount(),
		CarriedOver:    p.CarriedOver.Amount(),
		Currency:       p.Currency,
		IsClosed:       p.IsClosed,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r budgetPeriodRow) toDomain() (*domain.BudgetPeriod, error) {
	income, err := money.New(r.TotalIncome, r.Currency)
	if err != nil {
		return nil, err
	}
	allocated, err := money.New(r.TotalAllocated, r.Currency)
	if err != nil {
		return nil, err
	}
	spent, err := money.New(r.TotalSpent, r.Currency)
	if err != nil {
		return nil, err
	}
	carried, err := money.New(r.CarriedOver, r.Currency)
	if err != nil {
		return nil, err
	}

	return domain.BudgetPeriodFromPersistedState(
		r.ID, r.Year, r.Month, income, allocated, spent, carried, r.Currency, r.IsClosed, r.CreatedAt, r.UpdatedAt,
	), nil
}

type envelopeAllocationRow struct {
	ID                   uuid.UUID `gorm:"type:text;primaryKey"`
	EnvelopeID           uuid.UUID `gorm:"type:text;uniqueIndex:idx_allocation_envelope_period"`
	BudgetPeriodID       uuid.UUID `gorm:"type:text;uniqueIndex:idx_allocation_envelope_period"`
	Allocated            decimal.Decimal `gorm:"type:decimal(20,2)"`
	RolloverFromPrevious decimal.Decimal `gorm:"type:decimal(20,2)"`
	Spent                decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (envelopeAllocationRow) TableName() string { return "envelope_allocations" }

func newEnvelopeAllocationRow(a *domain.EnvelopeAllocation) envelopeAllocationRow {
	return envelopeAllocationRow{
		ID:                   a.ID,
		EnvelopeID:           a.EnvelopeID,
		BudgetPeriodID:       a.BudgetPeriodID,
		Allocated:            a.Allocated.Amount(),
		RolloverFromPrevious: a.RolloverFromPrevious.Amount(),
		Spent:                a.Spent.Amount(),
		Currency:             a.Currency,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (r envelopeAllocationRow) toDomain() (*domain.EnvelopeAllocation, error) {
	allocated, err := money.New(r.Allocated, r.Currency)
	if err != nil {
		return nil, err
	}
	rollover, err := money.New(r.RolloverFromPrevious, r.Currency)
	if err != nil {
		return nil, err
	}
	spent, err := money.New(r.Spent, r.Currency)
	if err != nil {
		return nil, err
	}

	return domain.EnvelopeAllocationFromPersistedState(
		r.ID, r.EnvelopeID, r.BudgetPeriodID, allocated, rollover, spent, r.Currency, r.CreatedAt, r.UpdatedAt,
	), nil
}

type payeeRow struct {
	ID                uuid.UUID `gorm:"type:text;primaryKey"`
	Name              string
	NameKey           string `gorm:"uniqueIndex"`
	DefaultEnvelopeID *uuid.UUID `gorm:"type:text"`
	IsHidden          bool
	TransactionCount  int
	LastUsedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (payeeRow) TableName() string { return "payees" }

func newPayeeRow(p *domain.Payee) payeeRow {
	return payeeRow{
		ID:                p.ID,
		Name:              p.Name,
		NameKey:           normalizeKey(p.Name),
		DefaultEnvelopeID: p.DefaultEnvelopeID,
		IsHidden:          p.IsHidden,
		TransactionCount:  p.TransactionCount,
		LastUsedAt:        p.LastUsedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (r payeeRow) toDomain() *domain.Payee {
	return domain.PayeeFromPersistedState(
		r.ID, r.Name, r.DefaultEnvelopeID, r.IsHidden, r.TransactionCount, r.LastUsedAt, r.CreatedAt, r.UpdatedAt,
	)
}

// sumResult scans a COALESCE(SUM(...), 0) aggregate query result.
type sumResult struct {
	Total decimal.Decimal
}

func normalizeKey(name string) string {
	return strings.ToUpper(domain.NormalizePayeeName(name))
}
