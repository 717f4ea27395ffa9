package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
)

type budgetPeriodRepository struct {
	db *gorm.DB
}

func (r budgetPeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BudgetPeriod, error) {
	var row budgetPeriodRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r budgetPeriodRepository) GetAll(ctx context.Context) ([]domain.BudgetPeriod, error) {
	var rows []budgetPeriodRow
	if err := r.db.WithContext(ctx).Order("year, month").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toBudgetPeriods(rows)
}

func (r budgetPeriodRepository) Add(ctx context.Context, p *domain.BudgetPeriod) error {
	row := newBudgetPeriodRow(p)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r budgetPeriodRepository) Update(ctx context.Context, p *domain.BudgetPeriod) error {
	row := newBudgetPeriodRow(p)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r budgetPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&budgetPeriodRow{}, "id = ?", id).Error
}

func (r budgetPeriodRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&budgetPeriodRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r budgetPeriodRepository) ByYearMonth(ctx context.Context, year, month int) (*domain.BudgetPeriod, error) {
	var row budgetPeriodRow
	err := r.db.WithContext(ctx).First(&row, "year = ? AND month = ?", year, month).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func toBudgetPeriods(rows []budgetPeriodRow) ([]domain.BudgetPeriod, error) {
	periods := make([]domain.BudgetPeriod, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, nil
}
