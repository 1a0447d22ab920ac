package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the credit ledger and class workflow.
// Use with errors.Is(); structured variants below carry context.
var (
	// ErrNoIdentity is returned when an operation is attempted without an
	// acting authenticated identity.
	ErrNoIdentity = errors.New("no acting identity")

	// ErrInvalidAmount is returned for non-positive credit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance is returned when a deduction exceeds the
	// current balance. No partial deduction is ever applied.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotAvailable is returned when booking a slot that is already
	// booked or finished.
	ErrNotAvailable = errors.New("class not available")

	// ErrInvalidState is returned when a state-transition precondition is
	// violated, e.g. finishing a slot that was never booked.
	ErrInvalidState = errors.New("invalid class state")

	// ErrUnauthorized is returned when the actor lacks the required role
	// or ownership.
	ErrUnauthorized = errors.New("not authorized")

	// ErrClassNotFound is returned when the referenced slot does not exist.
	ErrClassNotFound = errors.New("class not found")
)

// InsufficientBalanceError reports a balance shortage on deduction.
type InsufficientBalanceError struct {
	UserID    string
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: available %d, requested %d",
		e.UserID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// NotAvailableError reports a booking attempt on a non-available slot.
type NotAvailableError struct {
	ClassID string
	Status  string
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("class %s is not available (status %s)", e.ClassID, e.Status)
}

func (e *NotAvailableError) Unwrap() error { return ErrNotAvailable }

// InvalidStateError reports a rejected lifecycle transition.
type InvalidStateError struct {
	ClassID string
	Status  string
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s class %s in status %s", e.Op, e.ClassID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// AuthorizationError reports a role/ownership check failure.
type AuthorizationError struct {
	UserID string
	Op     string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Op)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

// PersistenceError wraps a backing-store failure on a propagating path.
// Earnings accrual never returns one; wallet and class mutations do.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsClientError reports whether the error is recoverable client input
// rather than a backend failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNotAvailable) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidAmount)
}
