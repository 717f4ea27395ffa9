package engine

import (
	"github.com/google/uuid"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/money"
)

// BudgetSnapshot is a read-model of a single budget period, returned after
// every mutating orchestrator operation except SetGoal and CommitImport.
type BudgetSnapshot struct {
	Year           int
	Month          int
	IsClosed       bool
	CarriedOver    money.Money
	TotalIncome    money.Money
	TotalAllocated money.Money
	TotalSpent     money.Money
	ReadyToAssign  money.Money
}

// NewBudgetSnapshot builds a snapshot from a persisted BudgetPeriod.
func NewBudgetSnapshot(p domain.BudgetPeriod) (BudgetSnapshot, error) {
	rta, err := p.ReadyToAssign()
	if err != nil {
		return BudgetSnapshot{}, err
	}

	return BudgetSnapshot{
		Year:           p.Year,
		Month:          p.Month,
		IsClosed:       p.IsClosed,
		CarriedOver:    p.CarriedOver,
		TotalIncome:    p.TotalIncome,
		TotalAllocated: p.TotalAllocated,
		TotalSpent:     p.TotalSpent,
		ReadyToAssign:  rta,
	}, nil
}

// AllocationChange describes the before/after allocated amount for one
// envelope touched by an operation.
type AllocationChange struct {
	EnvelopeID      uuid.UUID
	EnvelopeName    string
	BeforeAllocated money.Money
	AfterAllocated  money.Money
}

// Delta returns AfterAllocated - BeforeAllocated.
func (c AllocationChange) Delta() (money.Money, error) {
	return c.AfterAllocated.Sub(c.BeforeAllocated)
}

// WireError is the {code, message, target?} shape returned on failure.
type WireError struct {
	Code    ErrorCode
	Message string
	Target  string
}

// Result is the uniform envelope every mutating orchestrator operation returns.
type Result struct {
	Success           bool
	Errors            []WireError
	Snapshot          *BudgetSnapshot
	AllocationChanges []AllocationChange
	Value             any
}

func failure(err *Error) Result {
	return Result{
		Success: false,
		Errors:  []WireError{{Code: err.Code, Message: err.Message, Target: err.Target}},
	}
}

func success(snapshot *BudgetSnapshot, changes []AllocationChange, value any) Result {
	return Result{
		Success:           true,
		Snapshot:          snapshot,
		AllocationChanges: changes,
		Value:             value,
	}
}
