package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/money"
)

var (
	ErrEnvelopeNameRequired  = errors.New("domain: envelope name is required")
	ErrGoalAmountNotPositive = errors.New("domain: goal amount must be positive")
)

// Envelope is a named virtual pocket that income is assigned to and spending
// is categorized against.
type Envelope struct {
	ID         uuid.UUID
	Name       string
	Group      string
	Color      string
	SortOrder  int
	IsActive   bool
	IsHidden   bool
	GoalAmount *money.Money
	GoalDate   *time.Time
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewEnvelope is the creation factory.
func NewEnvelope(name, group, color string, sortOrder int, now time.Time) (*Envelope, error) {
	if name == "" {
		return nil, ErrEnvelopeNameRequired
	}

	return &Envelope{
		ID:        uuid.New(),
		Name:      name,
		Group:     group,
		Color:     color,
		SortOrder: sortOrder,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// EnvelopeFromPersistedState reconstructs an Envelope from fully-persisted fields,
// bypassing creation preconditions. Used exclusively by the store adapter
// when hydrating rows.
func EnvelopeFromPersistedState(id uuid.UUID, name, group, color string, sortOrder int, isActive, isHidden bool, goalAmount *money.Money, goalDate *time.Time, note string, createdAt, updatedAt time.Time) *Envelope {
	return &Envelope{
		ID:         id,
		Name:       name,
		Group:      group,
		Color:      color,
		SortOrder:  sortOrder,
		IsActive:   isActive,
		IsHidden:   isHidden,
		GoalAmount: goalAmount,
		GoalDate:   goalDate,
		Note:       note,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// HasGoal reports whether a nonzero goal amount is set.
func (e Envelope) HasGoal() bool {
	return e.GoalAmount != nil && !e.GoalAmount.IsZero()
}

// SetGoal sets or replaces the envelope's savings goal. amount must be positive.
func (e *Envelope) SetGoal(amount money.Money, targetDate *time.Time, now time.Time) error {
	if !amount.IsPositive() {
		return ErrGoalAmountNotPositive
	}
	e.GoalAmount = &amount
	e.GoalDate = targetDate
	e.UpdatedAt = now
	return nil
}

// ClearGoal removes the envelope's savings goal.
func (e *Envelope) ClearGoal(now time.Time) {
	e.GoalAmount = nil
	e.GoalDate = nil
	e.UpdatedAt = now
}

// Archive hides the envelope from active use without deleting its history.
func (e *Envelope) Archive(now time.Time) {
	e.IsActive = false
	e.IsHidden = true
	e.UpdatedAt = now
}

// Unarchive restores an archived envelope to active use.
func (e *Envelope) Unarchive(now time.Time) {
	e.IsActive = true
	e.IsHidden = false
	e.UpdatedAt = now
}

// Rename changes the envelope's display name.
func (e *Envelope) Rename(name string, now time.Time) error {
	if name == "" {
		return ErrEnvelopeNameRequired
	}
	e.Name = name
	e.UpdatedAt = now
	return nil
}
