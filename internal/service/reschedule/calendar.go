package reschedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
	"github.com/studytrack/schedule-api/internal/platform/logger"
)

// DefaultLookaheadDays bounds the forward scan of the calendar resolver.
const DefaultLookaheadDays = 60

// MarkerReader is the slice of the task store the calendar resolver needs:
// whether a date carries a rest/leave marker for a student.
type MarkerReader interface {
	HasBlockingMarker(ctx context.Context, studentID string, date time.Time) (bool, error)
}

// LeaveReader is the slice of the leave store the calendar resolver needs:
// whether leave is recorded for a student on a date.
type LeaveReader interface {
	Exists(ctx context.Context, studentID string, date time.Time) (bool, error)
}

// WorkCalendarResolver finds the next date a student can receive rescheduled
// work. A date is blocked when it carries a rest/leave marker task or a
// recorded leave. The resolver is a pure read over its stores and is safe to
// call repeatedly and concurrently.
type WorkCalendarResolver struct {
	markers       MarkerReader
	leaves        LeaveReader
	lookaheadDays int
	logger        *slog.Logger
}

// NewWorkCalendarResolver creates a resolver over the given marker and leave
// readers. A non-positive lookaheadDays falls back to DefaultLookaheadDays.
// If l is nil, a default logger will be used.
func NewWorkCalendarResolver(markers MarkerReader, leaves LeaveReader, lookaheadDays int, l *slog.Logger) *WorkCalendarResolver {
	if markers == nil {
		panic("markers cannot be nil")
	}
	if leaves == nil {
		panic("leaves cannot be nil")
	}

	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}

	if l == nil {
		l = slog.Default()
	}

	return &WorkCalendarResolver{
		markers:       markers,
		leaves:        leaves,
		lookaheadDays: lookaheadDays,
		logger:        l.With(slog.String("component", "work_calendar_resolver")),
	}
}

// Ensure the resolver satisfies the planning core's calendar dependency.
var _ schedule.Calendar = (*WorkCalendarResolver)(nil)

// FindNextWorkDate scans forward from the day after fromDate and returns the
// first date with no rest/leave marker and no recorded leave for the student.
// The scan is bounded by the configured lookahead; exceeding it returns
// ErrNoWorkDateFound.
func (r *WorkCalendarResolver) FindNextWorkDate(
	ctx context.Context,
	studentID string,
	fromDate time.Time,
) (time.Time, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	date := domain.DateOnly(fromDate)
	for i := 0; i < r.lookaheadDays; i++ {
		date = date.AddDate(0, 0, 1)

		blocked, err := r.markers.HasBlockingMarker(ctx, studentID, date)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to check work date: %w", err)
		}

		if !blocked {
			onLeave, err := r.leaves.Exists(ctx, studentID, date)
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to check leave record: %w", err)
			}
			if !onLeave {
				return date, nil
			}
		}

		log.Debug("skipping blocked date",
			slog.String("student_id", studentID),
			slog.Time("date", date))
	}

	log.Warn("no work date found within lookahead",
		slog.String("student_id", studentID),
		slog.Time("from_date", fromDate),
		slog.Int("lookahead_days", r.lookaheadDays))

	return time.Time{}, fmt.Errorf(
		"%w: scanned %d days from %s for student %s",
		ErrNoWorkDateFound,
		r.lookaheadDays,
		domain.DateOnly(fromDate).Format("2006-01-02"),
		studentID,
	)
}
