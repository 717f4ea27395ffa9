package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

type envelopeAllocationRepository struct {
	db *gorm.DB
}

func (r envelopeAllocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EnvelopeAllocation, error) {
	var row envelopeAllocationRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r envelopeAllocationRepository) GetAll(ctx context.Context) ([]domain.EnvelopeAllocation, error) {
	var rows []envelopeAllocationRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAllocations(rows)
}

func (r envelopeAllocationRepository) Add(ctx context.Context, a *domain.EnvelopeAllocation) error {
	row := newEnvelopeAllocationRow(a)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r envelopeAllocationRepository) Update(ctx context.Context, a *domain.EnvelopeAllocation) error {
	row := newEnvelopeAllocationRow(a)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r envelopeAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&envelopeAllocationRow{}, "id = ?", id).Error
}

func (r envelopeAllocationRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&envelopeAllocationRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r envelopeAllocationRepository) ByEnvelopeAndPeriod(ctx context.Context, envelopeID, budgetPeriodID uuid.UUID) (*domain.EnvelopeAllocation, error) {
	var row envelopeAllocationRow
	err := r.db.WithContext(ctx).
		First(&row, "envelope_id = ? AND budget_period_id = ?", envelopeID, budgetPeriodID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r envelopeAllocationRepository) ByPeriod(ctx context.Context, budgetPeriodID uuid.UUID) ([]domain.EnvelopeAllocation, error) {
	var rows []envelopeAllocationRow
	err := r.db.WithContext(ctx).Where("budget_period_id = ?", budgetPeriodID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toAllocations(rows)
}

func (r envelopeAllocationRepository) PeriodTotalAllocated(ctx context.Context, budgetPeriodID uuid.UUID, currency string) (money.Money, error) {
	var sum sumResult
	err := r.db.WithContext(ctx).Model(&envelopeAllocationRow{}).
		Where("budget_period_id = ?", budgetPeriodID).
		Select("COALESCE(SUM(allocated), 0) AS total").
		Scan(&sum).Error
	if err != nil {
		return money.Money{}, err
	}
	return money.New(sum.Total, currency)
}

func toAllocations(rows []envelopeAllocationRow) ([]domain.EnvelopeAllocation, error) {
	allocations := make([]domain.EnvelopeAllocation, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, *a)
	}
	return allocations, nil
}
