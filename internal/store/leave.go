package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
)

// LeaveStore defines the interface for leave record persistence.
// Version: 1.0
type LeaveStore interface {
	// Exists reports whether the student already has a leave record for the date.
	Exists(ctx context.Context, studentID string, date time.Time) (bool, error)

	// Insert saves a leave record. The (student, date) pair is unique;
	// inserting a second record for the same date returns ErrDuplicateLeave.
	Insert(ctx context.Context, record *domain.LeaveRecord) error

	// WithTxLeaveStore returns a new LeaveStore instance that uses the
	// provided transaction.
	WithTxLeaveStore(tx *sql.Tx) LeaveStore
}
