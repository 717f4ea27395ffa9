// Package engine implements the budget engine's business logic: recalculation,
// transaction handling, envelope/allocation management, CSV import, statement
// reconciliation, and the orchestrating facade that wraps each of those in a
// unit of work.
package engine

import (
	"errors"
	"fmt"

	"github.com/budgetengine/core/internal/domain"
)

// ErrorCode is one of the stable codes the orchestrator surfaces on the wire.
type ErrorCode string

const (
	Validation       ErrorCode = "VALIDATION"
	InvalidOperation ErrorCode = "INVALID_OPERATION"
	NotImplemented   ErrorCode = "NOT_IMPLEMENTED"
	Unexpected       ErrorCode = "UNEXPECTED"
)

// Error is the engine's typed failure. Services return these (or plain Go
// errors, which the orchestrator classifies via Classify) for every business
// rule violation.
type Error struct {
	Code    ErrorCode
	Message string
	Target  string
}

func (e *Error) Error() string {
	return e.Message
}

// ValidationErrorf builds a VALIDATION error, optionally naming the offending parameter.
func ValidationErrorf(target, format string, args ...any) *Error {
	return &Error{Code: Validation, Message: fmt.Sprintf(format, args...), Target: target}
}

// InvalidOperationErrorf builds an INVALID_OPERATION error.
func InvalidOperationErrorf(format string, args ...any) *Error {
	return &Error{Code: InvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// NotImplementedErrorf builds a NOT_IMPLEMENTED error.
func NotImplementedErrorf(format string, args ...any) *Error {
	return &Error{Code: NotImplemented, Message: fmt.Sprintf(format, args...)}
}

// UnexpectedErrorf builds an UNEXPECTED error carrying the cause's message;
// the cause itself is not kept.
func UnexpectedErrorf(err error) *Error {
	return &Error{Code: Unexpected, Message: err.Error()}
}

// validationSentinels maps domain construction/mutation errors that represent
// malformed or out-of-range input to VALIDATION.
var validationSentinels = []error{
	domain.ErrAccountNameRequired,
	domain.ErrBalanceMismatch,
	domain.ErrEnvelopeNameRequired,
	domain.ErrGoalAmountNotPositive,
	domain.ErrPayeeRequired,
	domain.ErrAmountMustBePositive,
	domain.ErrSameAccountTransfer,
	domain.ErrSplitAmountNotPositive,
	domain.ErrInvalidMonth,
	domain.ErrAllocationNegative,
	domain.ErrPayeeNameRequired,
}

// invalidOperationSentinels maps domain state-machine violations to INVALID_OPERATION.
var invalidOperationSentinels = []error{
	domain.ErrAccountNotZeroToClose,
	domain.ErrAccountInactive,
	domain.ErrReconciledImmutable,
	domain.ErrNotCleared,
	domain.ErrTransferNoEnvelope,
	domain.ErrHasSplits,
	domain.ErrOnlyOutflowsSplit,
	domain.ErrPeriodClosed,
}

// Classify maps any error raised by a service into the stable wire taxonomy.
// Errors already of type *Error pass through unchanged. Domain sentinel
// errors are matched by identity. Anything else is UNEXPECTED.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return &Error{Code: Validation, Message: err.Error()}
		}
	}

	for _, sentinel := range invalidOperationSentinels {
		if errors.Is(err, sentinel) {
			return &Error{Code: InvalidOperation, Message: err.Error()}
		}
	}

	return UnexpectedErrorf(err)
}
