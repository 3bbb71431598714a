package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

// rolloverRunTimeout bounds one full scheduled rollover pass.
const rolloverRunTimeout = 5 * time.Minute

// rolloverScheduler runs the day-boundary rollover on a cron schedule. Each
// run enumerates the students who still hold incomplete tasks on the
// previous day and rolls them forward one by one.
type rolloverScheduler struct {
	cron    *cron.Cron
	tasks   store.TaskStore
	service reschedule.Service
	logger  *slog.Logger
}

func newRolloverScheduler(
	spec string,
	tasks store.TaskStore,
	service reschedule.Service,
	logger *slog.Logger,
) (*rolloverScheduler, error) {
	s := &rolloverScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		tasks:   tasks,
		service: service,
		logger:  logger.With(slog.String("component", "rollover_scheduler")),
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid rollover cron expression %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the cron loop in its own goroutine.
func (s *rolloverScheduler) Start() {
	s.cron.Start()
	s.logger.Info("rollover scheduler started")
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *rolloverScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("rollover scheduler stopped")
}

// runOnce executes one rollover pass over all affected students. A failure
// for one student is logged and does not stop the pass; the ledger makes a
// later re-run safe for already processed students.
func (s *rolloverScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), rolloverRunTimeout)
	defer cancel()

	// The pass fires just after midnight, so the source date is yesterday.
	sourceDate := time.Now().UTC().AddDate(0, 0, -1)

	students, err := s.tasks.StudentsWithIncompleteTasks(ctx, sourceDate)
	if err != nil {
		s.logger.Error("failed to enumerate students for rollover",
			"error", err,
			"date", sourceDate.Format("2006-01-02"))
		return
	}

	s.logger.Info("rollover pass started",
		"date", sourceDate.Format("2006-01-02"),
		"students", len(students))

	var processed, skipped, failed int
	for _, studentID := range students {
		result, err := s.service.ProcessRollover(ctx, studentID, sourceDate)
		if err != nil {
			failed++
			s.logger.Error("rollover failed for student",
				"error", err,
				"student_id", studentID,
				"date", sourceDate.Format("2006-01-02"))
			continue
		}
		if result.Skipped {
			skipped++
			continue
		}
		processed++
	}

	s.logger.Info("rollover pass completed",
		"date", sourceDate.Format("2006-01-02"),
		"processed", processed,
		"skipped", skipped,
		"failed", failed)
}
