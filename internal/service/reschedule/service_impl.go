package reschedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
	"github.com/studytrack/schedule-api/internal/events"
	"github.com/studytrack/schedule-api/internal/platform/logger"
	"github.com/studytrack/schedule-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*rescheduleServiceImpl)(nil)

// rescheduleServiceImpl implements the Service interface.
type rescheduleServiceImpl struct {
	db       *sql.DB
	tasks    store.TaskStore
	leaves   store.LeaveStore
	configs  store.ScheduleConfigStore
	resolver *WorkCalendarResolver
	engine   *schedule.Engine
	ledger   *IdempotencyLedger
	executor *Executor
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes the service.
type Option func(*options)

type options struct {
	lookaheadDays  int
	dedupeWindow   time.Duration
	rolloverPolicy schedule.RolloverPolicy
	now            func() time.Time
}

// WithLookaheadDays bounds the calendar resolver's forward scan.
func WithLookaheadDays(days int) Option {
	return func(o *options) { o.lookaheadDays = days }
}

// WithDedupeWindow sets the idempotency window. Zero (the default) means any
// prior ledger row for the tuple skips the run.
func WithDedupeWindow(window time.Duration) Option {
	return func(o *options) { o.dedupeWindow = window }
}

// WithRolloverPolicy replaces the default push-forward policy.
func WithRolloverPolicy(policy schedule.RolloverPolicy) Option {
	return func(o *options) { o.rolloverPolicy = policy }
}

// WithClock injects the time source used for "today" checks. Tests use this
// to pin dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewService creates the reschedule service.
// It returns an error if any of the required dependencies are nil.
func NewService(
	db *sql.DB,
	tasks store.TaskStore,
	leaves store.LeaveStore,
	history store.ScheduleHistoryStore,
	configs store.ScheduleConfigStore,
	emitter events.EventEmitter,
	l *slog.Logger,
	opts ...Option,
) (Service, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if leaves == nil {
		return nil, domain.NewValidationError("leaves", "cannot be nil", domain.ErrValidation)
	}
	if history == nil {
		return nil, domain.NewValidationError("history", "cannot be nil", domain.ErrValidation)
	}
	if configs == nil {
		return nil, domain.NewValidationError("configs", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}

	if l == nil {
		l = slog.Default()
	}

	o := &options{
		lookaheadDays: DefaultLookaheadDays,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	resolver := NewWorkCalendarResolver(tasks, leaves, o.lookaheadDays, l)

	engineOpts := []schedule.EngineOption{}
	if o.rolloverPolicy != nil {
		engineOpts = append(engineOpts, schedule.WithRolloverPolicy(o.rolloverPolicy))
	}
	engine := schedule.NewEngine(resolver, loadReader{tasks}, engineOpts...)

	return &rescheduleServiceImpl{
		db:       db,
		tasks:    tasks,
		leaves:   leaves,
		configs:  configs,
		resolver: resolver,
		engine:   engine,
		ledger:   NewIdempotencyLedger(history, o.dedupeWindow, l),
		executor: NewExecutor(db, tasks, history, emitter, l),
		now:      o.now,
		logger:   l.With(slog.String("component", "reschedule_service")),
	}, nil
}

// loadReader adapts the task store to the planning core's LoadReader.
type loadReader struct {
	tasks store.TaskStore
}

func (r loadReader) ScheduledCount(ctx context.Context, studentID string, date time.Time) (int, error) {
	return r.tasks.CountScheduled(ctx, studentID, date)
}

// RequestLeaveDefer implements Service.RequestLeaveDefer.
func (s *rescheduleServiceImpl) RequestLeaveDefer(
	ctx context.Context,
	studentID string,
	date time.Time,
) (*DeferResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	date = domain.DateOnly(date)
	today := domain.DateOnly(s.now())

	log.Debug("processing leave defer request",
		slog.String("student_id", studentID),
		slog.Time("date", date))

	if date.Before(today) {
		return nil, ErrPastDateLeave
	}

	cfg, err := s.GetConfig(ctx, studentID)
	if err != nil {
		return nil, NewServiceError("leave_defer", "failed to load schedule config", err)
	}
	if !schedule.WithinAdvanceWindow(cfg, today, date) {
		return nil, ErrLeaveTooFarAhead
	}

	// Cheap pre-checks; the unique constraints inside the transaction remain
	// the authoritative guards.
	exists, err := s.leaves.Exists(ctx, studentID, date)
	if err != nil {
		return nil, NewServiceError("leave_defer", "failed to check existing leave", err)
	}
	if exists {
		return nil, ErrDuplicateLeaveRequest
	}

	skip, _, err := s.ledger.ShouldSkip(ctx, studentID, date, domain.OperationLeaveDefer)
	if err != nil {
		return nil, NewServiceError("leave_defer", "failed to consult ledger", err)
	}
	if skip {
		return nil, ErrDuplicateLeaveRequest
	}

	record, err := domain.NewLeaveRecord(studentID, date, "")
	if err != nil {
		return nil, NewServiceError("leave_defer", "invalid leave record", err)
	}

	// Only real assignments move; markers stay where they are.
	dayTasks, err := s.tasks.FindByStudentAndDate(ctx, studentID, date, store.TaskFilter{
		ExcludeMarkers: true,
	})
	if err != nil {
		return nil, NewServiceError("leave_defer", "failed to load tasks", err)
	}

	plan := &schedule.Plan{Mode: schedule.ModeDefer}
	if len(dayTasks) > 0 {
		p, err := s.engine.PlanLeaveDefer(ctx, studentID, date, taskIDs(dayTasks))
		if err != nil {
			if errors.Is(err, ErrNoWorkDateFound) {
				return nil, err
			}
			return nil, NewServiceError("leave_defer", "failed to plan defer", err)
		}
		plan = p
	}

	// Leave record, task moves and ledger entry commit or roll back together.
	var result *Result
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.leaves.WithTxLeaveStore(tx).Insert(ctx, record); err != nil {
			return err
		}

		var txErr error
		result, txErr = s.executor.ExecuteInTx(ctx, tx, studentID, date, domain.OperationLeaveDefer, plan)
		return txErr
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateLeave):
			return nil, fmt.Errorf("%w: %v", ErrDuplicateLeaveRequest, err)
		case errors.Is(err, store.ErrDuplicateHistory):
			return nil, fmt.Errorf("%w: %v", ErrConcurrentConflict, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
		}
	}

	s.executor.InvalidateTaskLists(ctx, studentID)

	log.Info("leave defer completed",
		slog.String("student_id", studentID),
		slog.Time("leave_date", date),
		slog.Time("target_date", result.TargetDate),
		slog.Int("moved_count", result.MovedCount))

	return &DeferResult{
		TargetDate: result.TargetDate,
		MovedCount: result.MovedCount,
	}, nil
}

// ProcessRollover implements Service.ProcessRollover.
func (s *rescheduleServiceImpl) ProcessRollover(
	ctx context.Context,
	studentID string,
	date time.Time,
) (*RolloverResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	date = domain.DateOnly(date)

	log.Debug("processing rollover",
		slog.String("student_id", studentID),
		slog.Time("date", date))

	skip, lastRun, err := s.ledger.ShouldSkip(ctx, studentID, date, domain.OperationMidnightProcess)
	if err != nil {
		return nil, NewServiceError("rollover", "failed to consult ledger", err)
	}
	if skip {
		return &RolloverResult{Skipped: true, LastRunAt: lastRun}, nil
	}

	cfg, err := s.GetConfig(ctx, studentID)
	if err != nil {
		return nil, NewServiceError("rollover", "failed to load schedule config", err)
	}

	incomplete, err := s.tasks.FindByStudentAndDate(ctx, studentID, date, store.TaskFilter{
		OnlyIncomplete: true,
		ExcludeMarkers: true,
	})
	if err != nil {
		return nil, NewServiceError("rollover", "failed to load tasks", err)
	}

	// Nothing to move: no ledger entry is written, so a later trigger for
	// the same date (e.g. after a bulk import backfill) still runs.
	if len(incomplete) == 0 {
		log.Debug("no incomplete tasks to roll over",
			slog.String("student_id", studentID),
			slog.Time("date", date))
		return &RolloverResult{}, nil
	}

	plan, err := s.engine.PlanRollover(ctx, studentID, date, taskIDs(incomplete), cfg)
	if err != nil {
		if errors.Is(err, ErrNoWorkDateFound) || errors.Is(err, schedule.ErrNoCapacity) {
			return nil, err
		}
		return nil, NewServiceError("rollover", "failed to plan rollover", err)
	}

	result, err := s.executor.Execute(ctx, studentID, date, domain.OperationMidnightProcess, plan)
	if err != nil {
		if errors.Is(err, ErrConcurrentConflict) {
			// A racing trigger won; confirm via the ledger and report skipped.
			_, lastRun, ledgerErr := s.ledger.ShouldSkip(ctx, studentID, date, domain.OperationMidnightProcess)
			if ledgerErr != nil {
				log.Warn("ledger re-check after conflict failed",
					slog.String("student_id", studentID),
					slog.String("error", ledgerErr.Error()))
			}
			log.Info("rollover lost race to concurrent trigger",
				slog.String("student_id", studentID),
				slog.Time("date", date))
			return &RolloverResult{Skipped: true, LastRunAt: lastRun}, nil
		}
		return nil, err
	}

	log.Info("rollover completed",
		slog.String("student_id", studentID),
		slog.Time("source_date", date),
		slog.Time("target_date", result.TargetDate),
		slog.Int("moved_count", result.MovedCount),
		slog.String("mode", string(plan.Mode)))

	return &RolloverResult{
		TargetDate: result.TargetDate,
		MovedCount: result.MovedCount,
		Mode:       plan.Mode,
	}, nil
}

// GetConfig implements Service.GetConfig.
func (s *rescheduleServiceImpl) GetConfig(
	ctx context.Context,
	studentID string,
) (*domain.ScheduleConfig, error) {
	cfg, err := s.configs.Get(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.DefaultScheduleConfig(studentID), nil
		}
		return nil, fmt.Errorf("failed to get schedule config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		// A corrupt row must not wedge rescheduling for the student.
		s.logger.Warn("stored schedule config invalid, using defaults",
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
		return domain.DefaultScheduleConfig(studentID), nil
	}

	return cfg, nil
}

// ListHistory implements Service.ListHistory.
func (s *rescheduleServiceImpl) ListHistory(
	ctx context.Context,
	studentID string,
	limit int,
) ([]*domain.ScheduleHistory, error) {
	entries, err := s.executor.history.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, NewServiceError("list_history", "failed to list schedule history", err)
	}
	return entries, nil
}

// taskIDs extracts the ids of a task slice, preserving order.
func taskIDs(tasks []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
