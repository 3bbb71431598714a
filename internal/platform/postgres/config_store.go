package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/store"
)

// PostgresScheduleConfigStore implements the store.ScheduleConfigStore
// interface using a PostgreSQL database as the storage backend.
type PostgresScheduleConfigStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleConfigStore creates a new PostgreSQL implementation of
// the ScheduleConfigStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleConfigStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleConfigStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleConfigStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_config_store")),
	}
}

// Ensure PostgresScheduleConfigStore implements store.ScheduleConfigStore interface
var _ store.ScheduleConfigStore = (*PostgresScheduleConfigStore)(nil)

// Get implements store.ScheduleConfigStore.Get
// Returns store.ErrConfigNotFound when the student has no stored row.
func (s *PostgresScheduleConfigStore) Get(
	ctx context.Context,
	studentID string,
) (*domain.ScheduleConfig, error) {
	query := `
		SELECT student_id, daily_task_limit, carry_over_threshold, advance_days_limit, auto_defer_time, updated_at
		FROM schedule_configs
		WHERE student_id = $1
	`

	var cfg domain.ScheduleConfig
	err := s.db.QueryRowContext(ctx, query, studentID).Scan(
		&cfg.StudentID,
		&cfg.DailyTaskLimit,
		&cfg.CarryOverThreshold,
		&cfg.AdvanceDaysLimit,
		&cfg.AutoDeferTime,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrConfigNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get schedule config: %w", err))
	}

	return &cfg, nil
}
