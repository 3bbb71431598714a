package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/schedule-api/internal/domain"
)

// TaskFilter narrows the task set returned by FindByStudentAndDate.
type TaskFilter struct {
	// OnlyIncomplete restricts the result to tasks with completed = false.
	OnlyIncomplete bool

	// ExcludeMarkers drops reserved rest/leave marker tasks from the result.
	ExcludeMarkers bool
}

// TaskStore defines the interface for task persistence as seen by the
// rescheduling engine. The engine never creates or deletes tasks; it only
// reads them and moves them across dates.
// Version: 1.0
type TaskStore interface {
	// FindByStudentAndDate retrieves a student's tasks on a date, narrowed
	// by the filter. Returns an empty slice when nothing matches.
	FindByStudentAndDate(
		ctx context.Context,
		studentID string,
		date time.Time,
		filter TaskFilter,
	) ([]*domain.Task, error)

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// CountScheduled returns the number of non-marker tasks a student has on
	// a date, regardless of completion. The push-forward policy uses this to
	// honor the daily task limit.
	CountScheduled(ctx context.Context, studentID string, date time.Time) (int, error)

	// HasBlockingMarker reports whether the student has a rest or leave
	// marker task on the date. Dates with markers are never work dates.
	HasBlockingMarker(ctx context.Context, studentID string, date time.Time) (bool, error)

	// StudentsWithIncompleteTasks lists the distinct students holding at
	// least one incomplete non-marker task on the date. The rollover trigger
	// uses it to enumerate who needs processing.
	StudentsWithIncompleteTasks(ctx context.Context, date time.Time) ([]string, error)

	// UpdateDateAndStatus moves a task to a new effective date with a new
	// status. originalDate is written only when the stored value is NULL, so
	// provenance survives any number of later moves.
	// Returns ErrTaskNotFound if the task does not exist.
	//
	// IMPORTANT: This method MUST be run within a transaction when moving a
	// batch, so that either every task of the batch moves or none do. Use
	// WithTxTaskStore together with store.RunInTransaction.
	UpdateDateAndStatus(
		ctx context.Context,
		id uuid.UUID,
		newDate time.Time,
		status domain.TaskStatus,
		originalDate time.Time,
	) error

	// WithTxTaskStore returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically the reschedule executor).
	WithTxTaskStore(tx *sql.Tx) TaskStore
}
