package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/platform/logger"
	"github.com/studytrack/schedule-api/internal/store"
)

// PostgresLeaveStore implements the store.LeaveStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLeaveStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLeaveStore creates a new PostgreSQL implementation of the LeaveStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLeaveStore(db store.DBTX, logger *slog.Logger) *PostgresLeaveStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLeaveStore{
		db:     db,
		logger: logger.With(slog.String("component", "leave_store")),
	}
}

// Ensure PostgresLeaveStore implements store.LeaveStore interface
var _ store.LeaveStore = (*PostgresLeaveStore)(nil)

// Exists implements store.LeaveStore.Exists
func (s *PostgresLeaveStore) Exists(
	ctx context.Context,
	studentID string,
	date time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_records
			WHERE student_id = $1 AND date = $2
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, studentID, domain.DateOnly(date)).Scan(&exists)
	if err != nil {
		return false, MapError(fmt.Errorf("failed to check leave record: %w", err))
	}

	return exists, nil
}

// Insert implements store.LeaveStore.Insert
// Returns store.ErrDuplicateLeave when a record for the same (student, date)
// pair already exists.
func (s *PostgresLeaveStore) Insert(ctx context.Context, record *domain.LeaveRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO leave_records (id, student_id, date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.StudentID,
		domain.DateOnly(record.Date),
		record.Reason,
		record.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate leave record rejected",
				slog.String("student_id", record.StudentID),
				slog.Time("date", record.Date))
			return MapUniqueViolation(err, store.ErrDuplicateLeave)
		}
		log.Error("failed to insert leave record",
			slog.String("student_id", record.StudentID),
			slog.String("error", err.Error()))
		return MapError(fmt.Errorf("failed to insert leave record: %w", err))
	}

	return nil
}

// WithTxLeaveStore implements store.LeaveStore.WithTxLeaveStore
func (s *PostgresLeaveStore) WithTxLeaveStore(tx *sql.Tx) store.LeaveStore {
	return &PostgresLeaveStore{
		db:     tx,
		logger: s.logger,
	}
}
