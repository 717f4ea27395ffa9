package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
)

type payeeRepository struct {
	db *gorm.DB
}

func (r payeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payee, error) {
	var row payeeRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r payeeRepository) GetAll(ctx context.Context) ([]domain.Payee, error) {
	var rows []payeeRow
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayees(rows), nil
}

func (r payeeRepository) Add(ctx context.Context, p *domain.Payee) error {
	row := newPayeeRow(p)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r payeeRepository) Update(ctx context.Context, p *domain.Payee) error {
	row := newPayeeRow(p)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r payeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&payeeRow{}, "id = ?", id).Error
}

func (r payeeRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&payeeRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r payeeRepository) ByName(ctx context.Context, name string) (*domain.Payee, error) {
	var row payeeRow
	err := r.db.WithContext(ctx).First(&row, "name_key = ?", normalizeKey(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r payeeRepository) Search(ctx context.Context, query string) ([]domain.Payee, error) {
	var rows []payeeRow
	like := "%" + normalizeKey(query) + "%"
	err := r.db.WithContext(ctx).
		Where("name_key LIKE ?", like).
		Order("transaction_count DESC, name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toPayees(rows), nil
}

func toPayees(rows []payeeRow) []domain.Payee {
	payees := make([]domain.Payee, 0, len(rows))
	for _, row := range rows {
		payees = append(payees, *row.toDomain())
	}
	return payees
}
