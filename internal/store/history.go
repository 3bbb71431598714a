package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
)

// ScheduleHistoryStore defines the interface for the append-only reschedule
// ledger. Rows are inserted and queried, never updated or deleted.
// Version: 1.0
type ScheduleHistoryStore interface {
	// Insert appends a ledger row. The (student, operation date, operation
	// type) tuple is unique; a second insert for the same tuple returns
	// ErrDuplicateHistory. That constraint is the serialization mechanism
	// for concurrent reschedule attempts, so Insert MUST run inside the same
	// transaction as the task moves it records.
	Insert(ctx context.Context, entry *domain.ScheduleHistory) error

	// LastFor retrieves the most recent ledger row for the given student,
	// operation date and operation type.
	// Returns ErrHistoryNotFound if no such row exists.
	LastFor(
		ctx context.Context,
		studentID string,
		operationDate time.Time,
		opType domain.OperationType,
	) (*domain.ScheduleHistory, error)

	// ListByStudent retrieves up to limit ledger rows for a student, newest
	// first. Used by the admin audit endpoint.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*domain.ScheduleHistory, error)

	// WithTxScheduleHistoryStore returns a new ScheduleHistoryStore instance
	// that uses the provided transaction.
	WithTxScheduleHistoryStore(tx *sql.Tx) ScheduleHistoryStore
}
