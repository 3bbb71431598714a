// Package reschedule implements the task rescheduling engine: leave-triggered
// defers and day-boundary rollovers of a student's tasks, with idempotency
// enforced through the append-only schedule history ledger.
package reschedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
)

// Common error types for the reschedule service
var (
	// ErrDuplicateLeaveRequest indicates that leave is already recorded for
	// the date. The operation is aborted and no tasks are touched.
	ErrDuplicateLeaveRequest = errors.New("leave already requested for this date")

	// ErrPastDateLeave indicates a leave request for a date before today.
	ErrPastDateLeave = errors.New("leave date is in the past")

	// ErrLeaveTooFarAhead indicates a leave request beyond the student's
	// configured advance-days limit.
	ErrLeaveTooFarAhead = errors.New("leave date is beyond the advance limit")

	// ErrNoWorkDateFound indicates the calendar resolver exceeded its
	// lookahead bound without finding a work date. This is fatal for the
	// invocation and usually means a mis-configured calendar (for example an
	// indefinite rest streak); it needs manual intervention, not a retry.
	ErrNoWorkDateFound = errors.New("no work date found within lookahead bound")

	// ErrConcurrentConflict indicates that the ledger's unique constraint
	// detected a racing reschedule for the same (student, date, operation).
	// The loser's task moves are rolled back; callers treat this as
	// already-processed after re-checking the ledger.
	ErrConcurrentConflict = errors.New("concurrent reschedule detected")

	// ErrTransactionFailure indicates a database error during the move. The
	// whole batch was rolled back and the operation is safe to retry.
	ErrTransactionFailure = errors.New("reschedule transaction failed")
)

// DeferResult is the outcome of a leave-defer operation.
type DeferResult struct {
	// TargetDate is the work date the leave date's tasks were moved to.
	// Zero when the leave date had no tasks.
	TargetDate time.Time `json:"target_date"`

	// MovedCount is the number of tasks moved.
	MovedCount int `json:"moved_count"`
}

// RolloverResult is the outcome of a rollover operation.
type RolloverResult struct {
	// TargetDate is the first work date incomplete tasks were moved to.
	// Zero when nothing moved.
	TargetDate time.Time `json:"target_date"`

	// MovedCount is the number of tasks moved.
	MovedCount int `json:"moved_count"`

	// Skipped is true when the idempotency ledger showed a prior run and the
	// operation did not touch any tasks.
	Skipped bool `json:"skipped"`

	// LastRunAt carries the prior run's timestamp when Skipped is true.
	LastRunAt time.Time `json:"last_run_at,omitempty"`

	// Mode records how the tasks were distributed (carry or push_forward).
	// Empty when nothing moved.
	Mode schedule.Mode `json:"mode,omitempty"`
}

// Service is the task rescheduling engine's facade, consumed by the HTTP
// handlers and the rollover trigger.
type Service interface {
	// RequestLeaveDefer records leave for a student on a date and moves that
	// date's tasks to the next work date as one batch. The leave record
	// insert, the task moves and the ledger entry share one transaction.
	//
	// Returns:
	//   - ErrPastDateLeave when the date is before today
	//   - ErrDuplicateLeaveRequest when leave is already recorded for the date
	//   - ErrNoWorkDateFound when no work date exists within the lookahead
	//   - ErrTransactionFailure on database errors (safe to retry)
	RequestLeaveDefer(ctx context.Context, studentID string, date time.Time) (*DeferResult, error)

	// ProcessRollover moves a student's incomplete tasks from a past date
	// forward. Below the carry-over threshold they carry as one batch to the
	// next work date; at or above it the push-forward policy distributes
	// them, honoring the daily task limit. A prior ledger row within the
	// dedupe window short-circuits into a skipped result.
	//
	// Returns:
	//   - ErrNoWorkDateFound when no work date exists within the lookahead
	//   - ErrTransactionFailure on database errors (safe to retry)
	// Concurrent conflicts are resolved internally into a skipped result.
	ProcessRollover(ctx context.Context, studentID string, date time.Time) (*RolloverResult, error)

	// GetConfig returns the student's schedule configuration, falling back
	// to defaults when no row is stored.
	GetConfig(ctx context.Context, studentID string) (*domain.ScheduleConfig, error)

	// ListHistory returns up to limit ledger entries for a student, newest
	// first.
	ListHistory(ctx context.Context, studentID string, limit int) ([]*domain.ScheduleHistory, error)
}

// ServiceError wraps errors from the reschedule service with additional
// context, so consumers can differentiate failures with errors.As instead of
// string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "leave_defer", "rollover")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
