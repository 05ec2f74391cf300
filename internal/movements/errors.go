package movements

import (
	"errors"
	"fmt"
)

var (
	ErrRequestNotFound      = errors.New("Money request not found")
	ErrNotPending           = errors.New("Request is not awaiting approval")
	ErrForbiddenApprover    = errors.New("Role is not allowed to approve this request")
	ErrForbiddenCancel      = errors.New("Only the requester or a guardian can cancel this request")
	ErrInsufficientQuantity = errors.New("insufficient_quantity")
	ErrPositionConflict     = errors.New("Position was modified concurrently, retry the fill")
	ErrAccountNotFound      = errors.New("Account not found")
)

// BlockedError is returned when the guardrail decision vetoes the movement
// outright. Callers reject the request; nothing is persisted.
type BlockedError struct {
	ReasonCode string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Request blocked by guardrail: %s", e.ReasonCode)
}

// ExecutionError wraps a side-effect failure. The request row has already been
// marked failed with the reason; callers must commit their transaction and
// surface the wrapped error, never roll the record back.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
