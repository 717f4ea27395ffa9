package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

type accountRepository struct {
	db       *gorm.DB
	currency string
}

func (r accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var row accountRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r accountRepository) GetAll(ctx context.Context) ([]domain.Account, error) {
	var rows []accountRow
	if err := r.db.WithContext(ctx).Order("sort_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccounts(rows)
}

func (r accountRepository) Add(ctx context.Context, a *domain.Account) error {
	row := newAccountRow(a)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r accountRepository) Update(ctx context.Context, a *domain.Account) error {
	row := newAccountRow(a)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&accountRow{}, "id = ?", id).Error
}

func (r accountRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&accountRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r accountRepository) AccountBalance(ctx context.Context, id uuid.UUID) (money.Money, error) {
	return r.sumTransactions(ctx, id, false)
}

func (r accountRepository) AccountClearedBalance(ctx context.Context, id uuid.UUID) (money.Money, error) {
	return r.sumTransactions(ctx, id, true)
}

func (r accountRepository) sumTransactions(ctx context.Context, id uuid.UUID, clearedOnly bool) (money.Money, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return money.Money{}, err
	}
	if account == nil {
		return money.Money{}, nil
	}

	query := r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("account_id = ? AND is_deleted = ?", id, false)
	if clearedOnly {
		query = query.Where("is_cleared = ?", true)
	}

	var sum sumResult
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&sum).Error; err != nil {
		return money.Money{}, err
	}

	return money.New(sum.Total, account.Currency)
}

func toAccounts(rows []accountRow) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, nil
}
