/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation errors - malformed or unbalanced input, rejected before any write
  2. Conflict errors   - illegal state transitions (double-post, closed period)
  3. Transient errors  - storage timeouts/contention, safe to retry
  4. Not-found errors  - missing accounts, entries, periods

Reconciliation problems (a balance sheet that does not balance) are NOT errors:
the statement generator returns the computed statement together with an explicit
imbalance amount, because hiding an out-of-balance ledger is worse than showing it.

USAGE:
  Callers classify with the helpers:

    if ledger.IsConflict(err) { ... 409 ... }
    if ledger.IsValidation(err) { ... 400 ... }
    if ledger.IsRetryable(err) { ... retry ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input-validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is the root of all illegal-state-transition failures.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks storage timeouts and contention. Mutations are
	// idempotent or fully atomic, so retrying after ErrTransient is safe.
	ErrTransient = errors.New("transient storage error")

	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEntryNotFound is returned when a referenced journal entry doesn't exist.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrPeriodNotFound is returned when a referenced fiscal period doesn't exist,
	// or when no period contains a given entry date.
	ErrPeriodNotFound = errors.New("fiscal period not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a single invariant violation in client input.
// Nothing is ever persisted when a ValidationError is returned.
type ValidationError struct {
	Code    string // e.g. "unbalanced", "inactive_account", "closed_period"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationf(code, format string, args ...any) error {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ConflictError describes a rejected state transition. The losing side of a
// concurrent race receives a ConflictError, never a corrupted double-write.
type ConflictError struct {
	Code    string // e.g. "already_posted", "period_closed", "account_referenced"
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func conflictf(code, format string, args ...any) error {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransientError wraps a storage-level failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return ErrTransient }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is an input-validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is a rejected state transition.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsRetryable reports whether the operation may succeed if retried.
func IsRetryable(err error) bool { return errors.Is(err, ErrTransient) }

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}
