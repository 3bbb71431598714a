package store

import (
	"context"

	"github.com/studytrack/schedule-api/internal/domain"
)

// ScheduleConfigStore defines the read interface for per-student schedule
// policy parameters. The rescheduling engine only reads configs; mutation is
// an administrative operation outside this service.
// Version: 1.0
type ScheduleConfigStore interface {
	// Get retrieves the stored config for a student.
	// Returns ErrConfigNotFound if the student has no row; callers apply
	// domain.DefaultScheduleConfig in that case.
	Get(ctx context.Context, studentID string) (*domain.ScheduleConfig, error)
}
