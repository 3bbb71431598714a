package reschedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/platform/logger"
	"github.com/studytrack/schedule-api/internal/store"
)

// IdempotencyLedger answers "has this operation already run?" by consulting
// the schedule history. It is advisory: the authoritative guard is the
// ledger table's unique constraint, enforced inside the move transaction.
// This pre-check exists to short-circuit obvious retries cheaply.
type IdempotencyLedger struct {
	history store.ScheduleHistoryStore

	// window controls the pre-check policy. Zero or negative means any
	// prior row for the exact (student, date, operation) tuple skips the
	// run, the policy of the canonical once-per-day midnight process. A
	// positive duration only short-circuits on rows recorded within the
	// window; an older row lets the caller proceed to the transaction,
	// where the unique constraint still rejects a second ledger insert and
	// the attempt resolves as a conflict-turned-skip rather than a re-run.
	// The window therefore changes how a retry is reported, never whether
	// tasks move twice.
	window time.Duration

	logger *slog.Logger
}

// NewIdempotencyLedger creates a ledger view over the schedule history store.
// If l is nil, a default logger will be used.
func NewIdempotencyLedger(history store.ScheduleHistoryStore, window time.Duration, l *slog.Logger) *IdempotencyLedger {
	if history == nil {
		panic("history store cannot be nil")
	}

	if l == nil {
		l = slog.Default()
	}

	return &IdempotencyLedger{
		history: history,
		window:  window,
		logger:  l.With(slog.String("component", "idempotency_ledger")),
	}
}

// ShouldSkip reports whether a reschedule operation for the given tuple has
// already run within the dedupe policy, along with the prior run's timestamp
// when one exists.
func (l *IdempotencyLedger) ShouldSkip(
	ctx context.Context,
	studentID string,
	date time.Time,
	opType domain.OperationType,
) (bool, time.Time, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	entry, err := l.history.LastFor(ctx, studentID, date, opType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("failed to query idempotency ledger: %w", err)
	}

	if l.window > 0 && time.Since(entry.CreatedAt) > l.window {
		log.Debug("prior run outside dedupe window",
			slog.String("student_id", studentID),
			slog.String("operation_type", string(opType)),
			slog.Time("last_run_at", entry.CreatedAt))
		return false, entry.CreatedAt, nil
	}

	log.Debug("operation already processed",
		slog.String("student_id", studentID),
		slog.String("operation_type", string(opType)),
		slog.Time("operation_date", date),
		slog.Time("last_run_at", entry.CreatedAt))

	return true, entry.CreatedAt, nil
}
