package schedule

import (
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
)

// WithinAdvanceWindow reports whether a student is allowed to work on tasks
// scheduled for the given date, relative to today. A date is in the window
// if it is not in the future by more than the configured advance-days limit.
// Past dates are always in the window; completing overdue work is never
// restricted.
func WithinAdvanceWindow(cfg *domain.ScheduleConfig, today, date time.Time) bool {
	limit := domain.DefaultAdvanceDaysLimit
	if cfg != nil {
		limit = cfg.AdvanceDaysLimit
	}

	d := domain.DateOnly(date)
	horizon := domain.DateOnly(today).AddDate(0, 0, limit)
	return !d.After(horizon)
}
