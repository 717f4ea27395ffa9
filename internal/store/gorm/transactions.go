package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/importcsv"
	"github.com/budgetengine/core/internal/money"
)

type transactionRepository struct {
	db       *gorm.DB
	currency string
}

func (r transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var row transactionRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r transactionRepository) GetAll(ctx context.Context) ([]domain.Transaction, error) {
	var rows []transactionRow
	if err := r.db.WithContext(ctx).Where("is_deleted = ?", false).Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) Add(ctx context.Context, t *domain.Transaction) error {
	fingerprint := importcsv.Fingerprint(t.AccountID, t.Date, t.Amount.Amount(), t.Amount.Currency(), t.Payee, t.Memo)
	row := newTransactionRow(t, fingerprint)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	var existing transactionRow
	if err := r.db.WithContext(ctx).First(&existing, "id = ?", t.ID).Error; err != nil {
		return err
	}
	row := newTransactionRow(t, existing.ImportFingerprint)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&transactionRow{}, "id = ?", id).Error
}

func (r transactionRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&transactionRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r transactionRepository) ByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_deleted = ?", accountID, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) ByEnvelope(ctx context.Context, envelopeID uuid.UUID) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("envelope_id = ? AND is_deleted = ?", envelopeID, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) ByDateRange(ctx context.Context, dr money.DateRange) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ? AND is_deleted = ?", dr.Start, dr.End, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) ByAccountAndDateRange(ctx context.Context, accountID uuid.UUID, dr money.DateRange) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND date BETWEEN ? AND ? AND is_deleted = ?", accountID, dr.Start, dr.End, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) UnclearedByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_cleared = ? AND is_deleted = ?", accountID, false, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) Unassigned(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND type = ? AND envelope_id IS NULL AND has_splits = ? AND is_deleted = ?",
			accountID, int(domain.Outflow), false, false).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTransactions(rows)
}

func (r transactionRepository) EnvelopeSpentInRange(ctx context.Context, envelopeID uuid.UUID, dr money.DateRange) (money.Money, error) {
	var direct sumResult
	err := r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("envelope_id = ? AND type = ? AND is_deleted = ? AND date BETWEEN ? AND ?",
			envelopeID, int(domain.Outflow), false, dr.Start, dr.End).
		Select("COALESCE(SUM(-amount), 0) AS total").
		Scan(&direct).Error
	if err != nil {
		return money.Money{}, err
	}

	var split sumResult
	err = r.db.WithContext(ctx).Table("transaction_splits AS ts").
		Joins("JOIN transactions AS t ON t.id = ts.transaction_id").
		Where("ts.envelope_id = ? AND t.is_deleted = ? AND t.date BETWEEN ? AND ?",
			envelopeID, false, dr.Start, dr.End).
		Select("COALESCE(SUM(ts.amount), 0) AS total").
		Scan(&split).Error
	if err != nil {
		return money.Money{}, err
	}

	return money.New(direct.Total.Add(split.Total), r.currency)
}

func (r transactionRepository) TotalsForRange(ctx context.Context, dr money.DateRange) (income, spentAbs money.Money, err error) {
	var incomeSum sumResult
	err = r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("type = ? AND is_deleted = ? AND date BETWEEN ? AND ?", int(domain.Inflow), false, dr.Start, dr.End).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&incomeSum).Error
	if err != nil {
		return money.Money{}, money.Money{}, err
	}

	var spentSum sumResult
	err = r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("type = ? AND is_deleted = ? AND date BETWEEN ? AND ?", int(domain.Outflow), false, dr.Start, dr.End).
		Select("COALESCE(SUM(-amount), 0) AS total").
		Scan(&spentSum).Error
	if err != nil {
		return money.Money{}, money.Money{}, err
	}

	income, err = money.New(incomeSum.Total, r.currency)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}
	spentAbs, err = money.New(spentSum.Total, r.currency)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}
	return income, spentAbs, nil
}

func (r transactionRepository) ExistsFingerprint(ctx context.Context, accountID uuid.UUID, dr money.DateRange, fingerprint string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("account_id = ? AND is_deleted = ? AND import_fingerprint = ? AND date BETWEEN ? AND ?",
			accountID, false, fingerprint, dr.Start, dr.End).
		Count(&count).Error
	return count > 0, err
}

func (r transactionRepository) RecentEnvelopes(ctx context.Context, accountID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var rows []transactionRow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND envelope_id IS NOT NULL AND type = ? AND is_deleted = ?",
			accountID, int(domain.Outflow), false).
		Order("date DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, row := range rows {
		if row.EnvelopeID == nil || seen[*row.EnvelopeID] {
			continue
		}
		seen[*row.EnvelopeID] = true
		ids = append(ids, *row.EnvelopeID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func toTransactions(rows []transactionRow) ([]domain.Transaction, error) {
	transactions := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, nil
}
