package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/platform/logger"
	"github.com/studytrack/schedule-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the select list shared by all task queries.
const taskColumns = `id, student_id, date, original_date, kind, title, completed, status, created_at, updated_at`

// FindByStudentAndDate implements store.TaskStore.FindByStudentAndDate
func (s *PostgresTaskStore) FindByStudentAndDate(
	ctx context.Context,
	studentID string,
	date time.Time,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE student_id = $1 AND date = $2
	`
	if filter.OnlyIncomplete {
		query += ` AND completed = FALSE`
	}
	if filter.ExcludeMarkers {
		query += ` AND kind NOT IN ('rest', 'leave')`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, studentID, domain.DateOnly(date))
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
		return nil, MapError(fmt.Errorf("failed to query tasks: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("student_id", studentID),
				slog.String("error", err.Error()))
			return nil, MapError(fmt.Errorf("failed to scan task row: %w", err))
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating task rows: %w", err))
	}

	return tasks, nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get task by id: %w", err))
	}

	return task, nil
}

// CountScheduled implements store.TaskStore.CountScheduled
func (s *PostgresTaskStore) CountScheduled(
	ctx context.Context,
	studentID string,
	date time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE student_id = $1 AND date = $2 AND kind NOT IN ('rest', 'leave')
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, studentID, domain.DateOnly(date)).Scan(&count)
	if err != nil {
		return 0, MapError(fmt.Errorf("failed to count scheduled tasks: %w", err))
	}

	return count, nil
}

// HasBlockingMarker implements store.TaskStore.HasBlockingMarker
func (s *PostgresTaskStore) HasBlockingMarker(
	ctx context.Context,
	studentID string,
	date time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE student_id = $1 AND date = $2 AND kind IN ('rest', 'leave')
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, studentID, domain.DateOnly(date)).Scan(&exists)
	if err != nil {
		return false, MapError(fmt.Errorf("failed to check blocking marker: %w", err))
	}

	return exists, nil
}

// StudentsWithIncompleteTasks implements store.TaskStore.StudentsWithIncompleteTasks
func (s *PostgresTaskStore) StudentsWithIncompleteTasks(
	ctx context.Context,
	date time.Time,
) ([]string, error) {
	query := `
		SELECT DISTINCT student_id
		FROM tasks
		WHERE date = $1 AND completed = FALSE AND kind NOT IN ('rest', 'leave')
		ORDER BY student_id
	`

	rows, err := s.db.QueryContext(ctx, query, domain.DateOnly(date))
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to query students with incomplete tasks: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var studentIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(fmt.Errorf("failed to scan student id: %w", err))
		}
		studentIDs = append(studentIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating student rows: %w", err))
	}

	return studentIDs, nil
}

// UpdateDateAndStatus implements store.TaskStore.UpdateDateAndStatus
// original_date is written with COALESCE so a value set by an earlier move
// is never overwritten.
func (s *PostgresTaskStore) UpdateDateAndStatus(
	ctx context.Context,
	id uuid.UUID,
	newDate time.Time,
	status domain.TaskStatus,
	originalDate time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET date = $1,
		    status = $2,
		    original_date = COALESCE(original_date, $3),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.DateOnly(newDate),
		status,
		domain.DateOnly(originalDate),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update task date and status",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(fmt.Errorf("failed to update task: %w", err))
	}

	return CheckRowsAffected(result, "task")
}

// WithTxTaskStore implements store.TaskStore.WithTxTaskStore
func (s *PostgresTaskStore) WithTxTaskStore(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var originalDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.StudentID,
		&task.Date,
		&originalDate,
		&task.Kind,
		&task.Title,
		&task.Completed,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if originalDate.Valid {
		d := domain.DateOnly(originalDate.Time)
		task.OriginalDate = &d
	}
	task.Date = domain.DateOnly(task.Date)

	return &task, nil
}
