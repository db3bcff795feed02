/*
errors.go - Centralized error types for the withdrawal engine

ERROR CATEGORIES:
  1. Validation errors - malformed input, rejected before any write
  2. Not-found errors  - missing employee/item/withdrawal
  3. Persistence errors - storage unavailable or transaction aborted
  4. Conflict errors   - duplicate submission, duplicate code, item in use

USAGE:
  Callers branch with errors.Is / errors.As:

    var verr *withdrawal.ValidationError
    if errors.As(err, &verr) {
        // verr.Field names the offending input
    }

  A PersistenceError from Record means nothing was written; the whole call
  may be retried.
*/
package withdrawal

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateSubmission is returned when a withdrawal reference was
	// already committed.
	ErrDuplicateSubmission = errors.New("duplicate withdrawal submission")

	// ErrDuplicateEmployeeCode is returned by the directory when the code is taken.
	ErrDuplicateEmployeeCode = errors.New("employee code already exists")

	// ErrUnknownItem is returned when a line references an item missing from the catalog.
	ErrUnknownItem = errors.New("unknown equipment item")

	// ErrItemInUse is returned when deleting a catalog item that has withdrawals.
	ErrItemInUse = errors.New("equipment item has withdrawals")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the input field at fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing record of the given kind.
type NotFoundError struct {
	Kind string // "employee", "item", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the category and the cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// DuplicateSubmissionError reports the header already holding the reference.
type DuplicateSubmissionError struct {
	Reference  string
	ExistingID WithdrawalID
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("withdrawal reference %q already recorded as #%d", e.Reference, e.ExistingID)
}

func (e *DuplicateSubmissionError) Unwrap() error {
	return ErrDuplicateSubmission
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrDuplicateEmployeeCode) ||
		errors.Is(err, ErrItemInUse)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if re-issuing the whole operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) && !errors.Is(err, ErrUnknownItem)
}
