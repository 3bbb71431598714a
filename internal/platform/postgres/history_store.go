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

// PostgresScheduleHistoryStore implements the store.ScheduleHistoryStore
// interface using a PostgreSQL database as the storage backend.
type PostgresScheduleHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleHistoryStore creates a new PostgreSQL implementation of
// the ScheduleHistoryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_history_store")),
	}
}

// Ensure PostgresScheduleHistoryStore implements store.ScheduleHistoryStore interface
var _ store.ScheduleHistoryStore = (*PostgresScheduleHistoryStore)(nil)

const historyColumns = `id, student_id, operation_type, operation_date, affected_task_count, details, created_at`

// Insert implements store.ScheduleHistoryStore.Insert
// The unique constraint on (student_id, operation_date, operation_type)
// serializes concurrent reschedule attempts; violations surface as
// store.ErrDuplicateHistory.
func (s *PostgresScheduleHistoryStore) Insert(
	ctx context.Context,
	entry *domain.ScheduleHistory,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO schedule_history
			(id, student_id, operation_type, operation_date, affected_task_count, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.OperationType,
		domain.DateOnly(entry.OperationDate),
		entry.AffectedTaskCount,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("concurrent schedule history insert detected",
				slog.String("student_id", entry.StudentID),
				slog.String("operation_type", string(entry.OperationType)),
				slog.Time("operation_date", entry.OperationDate))
			return MapUniqueViolation(err, store.ErrDuplicateHistory)
		}
		log.Error("failed to insert schedule history",
			slog.String("student_id", entry.StudentID),
			slog.String("error", err.Error()))
		return MapError(fmt.Errorf("failed to insert schedule history: %w", err))
	}

	return nil
}

// LastFor implements store.ScheduleHistoryStore.LastFor
// Returns store.ErrHistoryNotFound when no matching row exists.
func (s *PostgresScheduleHistoryStore) LastFor(
	ctx context.Context,
	studentID string,
	operationDate time.Time,
	opType domain.OperationType,
) (*domain.ScheduleHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM schedule_history
		WHERE student_id = $1 AND operation_date = $2 AND operation_type = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, studentID, domain.DateOnly(operationDate), opType)
	entry, err := scanHistory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrHistoryNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get schedule history: %w", err))
	}

	return entry, nil
}

// ListByStudent implements store.ScheduleHistoryStore.ListByStudent
func (s *PostgresScheduleHistoryStore) ListByStudent(
	ctx context.Context,
	studentID string,
	limit int,
) ([]*domain.ScheduleHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + historyColumns + `
		FROM schedule_history
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, studentID, limit)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to list schedule history: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.ScheduleHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, MapError(fmt.Errorf("failed to scan schedule history row: %w", err))
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating schedule history rows: %w", err))
	}

	return entries, nil
}

// WithTxScheduleHistoryStore implements store.ScheduleHistoryStore.WithTxScheduleHistoryStore
func (s *PostgresScheduleHistoryStore) WithTxScheduleHistoryStore(tx *sql.Tx) store.ScheduleHistoryStore {
	return &PostgresScheduleHistoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanHistory reads one ledger row into a domain.ScheduleHistory.
func scanHistory(row rowScanner) (*domain.ScheduleHistory, error) {
	var entry domain.ScheduleHistory

	err := row.Scan(
		&entry.ID,
		&entry.StudentID,
		&entry.OperationType,
		&entry.OperationDate,
		&entry.AffectedTaskCount,
		&entry.Details,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.OperationDate = domain.DateOnly(entry.OperationDate)
	return &entry, nil
}
