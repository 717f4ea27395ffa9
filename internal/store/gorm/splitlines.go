package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
)

type splitLineRepository struct {
	db *gorm.DB
}

func (r splitLineRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SplitLine, error) {
	var row splitLineRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r splitLineRepository) GetAll(ctx context.Context) ([]domain.SplitLine, error) {
	var rows []splitLineRow
	if err := r.db.WithContext(ctx).Order("sort_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSplitLines(rows)
}

func (r splitLineRepository) Add(ctx context.Context, s *domain.SplitLine) error {
	row := newSplitLineRow(s)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r splitLineRepository) Update(ctx context.Context, s *domain.SplitLine) error {
	row := newSplitLineRow(s)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r splitLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&splitLineRow{}, "id = ?", id).Error
}

func (r splitLineRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&splitLineRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r splitLineRepository) ByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.SplitLine, error) {
	var rows []splitLineRow
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("sort_order").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toSplitLines(rows)
}

func (r splitLineRepository) ReplaceForTransaction(ctx context.Context, transactionID uuid.UUID, lines []domain.SplitLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&splitLineRow{}, "transaction_id = ?", transactionID).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		rows := make([]splitLineRow, len(lines))
		for i := range lines {
			rows[i] = newSplitLineRow(&lines[i])
		}
		return tx.Create(&rows).Error
	})
}

func toSplitLines(rows []splitLineRow) ([]domain.SplitLine, error) {
	lines := make([]domain.SplitLine, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, nil
}
