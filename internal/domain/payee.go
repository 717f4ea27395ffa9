package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPayeeNameRequired is returned when a payee name normalizes to empty.
var ErrPayeeNameRequired = errors.New("domain: payee name is required")

// Payee is a counterparty a transaction was paid to or received from.
type Payee struct {
	ID                uuid.UUID
	Name              string
	DefaultEnvelopeID *uuid.UUID
	IsHidden          bool
	TransactionCount  int
	LastUsedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizePayeeName trims the string and collapses internal whitespace runs
// to a single space.
func NormalizePayeeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewPayee creates a payee with a normalized name.
func NewPayee(name string, now time.Time) (*Payee, error) {
	normalized := NormalizePayeeName(name)
	if normalized == "" {
		return nil, ErrPayeeNameRequired
	}

	return &Payee{
		ID:        uuid.New(),
		Name:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PayeeFromPersistedState reconstructs a Payee from fully-persisted fields,
// bypassing creation preconditions. Used exclusively by the store adapter
// when hydrating rows.
func PayeeFromPersistedState(id uuid.UUID, name string, defaultEnvelopeID *uuid.UUID, isHidden bool, transactionCount int, lastUsedAt *time.Time, createdAt, updatedAt time.Time) *Payee {
	return &Payee{
		ID:                id,
		Name:              name,
		DefaultEnvelopeID: defaultEnvelopeID,
		IsHidden:          isHidden,
		TransactionCount:  transactionCount,
		LastUsedAt:        lastUsedAt,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}

// RecordUsage increments the usage counter and stamps LastUsedAt.
func (p *Payee) RecordUsage(at time.Time) {
	p.TransactionCount++
	t := at
	p.LastUsedAt = &t
	p.UpdatedAt = at
}

// SetDefaultEnvelopeIfAbsent records which envelope this payee is usually assigned to,
// only if one is not already set.
func (p *Payee) SetDefaultEnvelopeIfAbsent(envelopeID uuid.UUID, now time.Time) {
	if p.DefaultEnvelopeID != nil {
		return
	}
	id := envelopeID
	p.DefaultEnvelopeID = &id
	p.UpdatedAt = now
}

// Hide marks the payee hidden from selection lists.
func (p *Payee) Hide(now time.Time) {
	p.IsHidden = true
	p.UpdatedAt = now
}
