package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgetengine/core/internal/domain"
)

type envelopeRepository struct {
	db *gorm.DB
}

func (r envelopeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Envelope, error) {
	var row envelopeRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r envelopeRepository) GetAll(ctx context.Context) ([]domain.Envelope, error) {
	var rows []envelopeRow
	if err := r.db.WithContext(ctx).Order("sort_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEnvelopes(rows)
}

func (r envelopeRepository) Add(ctx context.Context, e *domain.Envelope) error {
	row := newEnvelopeRow(e)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r envelopeRepository) Update(ctx context.Context, e *domain.Envelope) error {
	row := newEnvelopeRow(e)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r envelopeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&envelopeRow{}, "id = ?", id).Error
}

func (r envelopeRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&envelopeRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r envelopeRepository) ListActiveWithGoals(ctx context.Context) ([]domain.Envelope, error) {
	var rows []envelopeRow
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_hidden = ? AND goal_amount IS NOT NULL", true, false).
		Order("sort_order").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEnvelopes(rows)
}

func (r envelopeRepository) ListByGroup(ctx context.Context) ([]domain.Envelope, error) {
	var rows []envelopeRow
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("\"group\", sort_order").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEnvelopes(rows)
}

func toEnvelopes(rows []envelopeRow) ([]domain.Envelope, error) {
	envelopes := make([]domain.Envelope, 0, len(rows))
	for _, row := range rows {
		e, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, *e)
	}
	return envelopes, nil
}
