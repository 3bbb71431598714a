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

// Result summarizes an executed reschedule.
type Result struct {
	// MovedCount is the number of tasks actually moved. It can be smaller
	// than the plan when tasks changed between planning and execution.
	MovedCount int

	// TargetDate is the earliest date tasks were moved to; zero when
	// nothing moved.
	TargetDate time.Time
}

// Executor applies a reschedule plan transactionally: it re-validates and
// moves each task, initializes provenance, and appends the ledger entry
// whose unique constraint serializes racing attempts. After a successful
// commit it emits a cache-invalidation event for the student's task lists.
type Executor struct {
	db      *sql.DB
	tasks   store.TaskStore
	history store.ScheduleHistoryStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewExecutor creates a reschedule executor.
// If l is nil, a default logger will be used.
func NewExecutor(
	db *sql.DB,
	tasks store.TaskStore,
	history store.ScheduleHistoryStore,
	emitter events.EventEmitter,
	l *slog.Logger,
) *Executor {
	if db == nil {
		panic("db cannot be nil")
	}
	if tasks == nil {
		panic("task store cannot be nil")
	}
	if history == nil {
		panic("history store cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}

	if l == nil {
		l = slog.Default()
	}

	return &Executor{
		db:      db,
		tasks:   tasks,
		history: history,
		emitter: emitter,
		logger:  l.With(slog.String("component", "reschedule_executor")),
	}
}

// Execute runs the plan inside its own transaction and, on success, emits
// the cache invalidation for the student.
//
// Failure semantics: any error inside the transaction aborts the whole move;
// no partial batches. A ledger unique violation surfaces as
// ErrConcurrentConflict, everything else as ErrTransactionFailure.
// Idempotency is enforced by the caller via the ledger pre-check plus the
// constraint, not by this component.
func (e *Executor) Execute(
	ctx context.Context,
	studentID string,
	sourceDate time.Time,
	opType domain.OperationType,
	plan *schedule.Plan,
) (*Result, error) {
	var result *Result

	err := store.RunInTransaction(ctx, e.db, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		result, txErr = e.ExecuteInTx(ctx, tx, studentID, sourceDate, opType, plan)
		return txErr
	})
	if err != nil {
		return nil, e.mapExecutionError(err)
	}

	e.InvalidateTaskLists(ctx, studentID)

	return result, nil
}

// ExecuteInTx applies the plan on an existing transaction. Callers that need
// additional writes in the same transaction (the leave flow inserts its
// leave record alongside the moves) use this directly and are responsible
// for the surrounding commit, error mapping and cache invalidation.
func (e *Executor) ExecuteInTx(
	ctx context.Context,
	tx *sql.Tx,
	studentID string,
	sourceDate time.Time,
	opType domain.OperationType,
	plan *schedule.Plan,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	txTasks := e.tasks.WithTxTaskStore(tx)
	txHistory := e.history.WithTxScheduleHistoryStore(tx)

	status := domain.TaskStatusCarried
	if opType == domain.OperationLeaveDefer {
		status = domain.TaskStatusDeferred
	}

	moved := 0
	var targets []domain.HistoryTarget
	for _, assignment := range plan.Assignments {
		target := domain.HistoryTarget{Date: assignment.Date}

		for _, id := range assignment.TaskIDs {
			ok, err := e.moveTask(ctx, txTasks, studentID, sourceDate, opType, id, assignment.Date, status)
			if err != nil {
				return nil, err
			}
			if ok {
				target.TaskIDs = append(target.TaskIDs, id)
				moved++
			}
		}

		if len(target.TaskIDs) > 0 {
			targets = append(targets, target)
		}
	}

	entry, err := domain.NewScheduleHistory(studentID, opType, sourceDate, moved, domain.HistoryDetails{
		Mode:    string(plan.Mode),
		Targets: targets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule history entry: %w", err)
	}

	if err := txHistory.Insert(ctx, entry); err != nil {
		return nil, err
	}

	log.Info("reschedule executed",
		slog.String("student_id", studentID),
		slog.String("operation_type", string(opType)),
		slog.Time("operation_date", sourceDate),
		slog.String("mode", string(plan.Mode)),
		slog.Int("moved_count", moved))

	result := &Result{MovedCount: moved}
	if len(targets) > 0 {
		result.TargetDate = targets[0].Date
	}
	return result, nil
}

// moveTask re-fetches one task and moves it when it still qualifies.
// Returns false without error when the task changed between planning and
// execution: it no longer exists, belongs to someone else, left the source
// date, or (for rollover) was completed in the meantime. Skipping such tasks
// is the race guard against the concurrent completion endpoint.
func (e *Executor) moveTask(
	ctx context.Context,
	txTasks store.TaskStore,
	studentID string,
	sourceDate time.Time,
	opType domain.OperationType,
	id uuid.UUID,
	targetDate time.Time,
	status domain.TaskStatus,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	task, err := txTasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("planned task no longer exists, skipping",
				slog.String("task_id", id.String()))
			return false, nil
		}
		return false, err
	}

	stillEligible := task.StudentID == studentID &&
		domain.SameDay(task.Date, sourceDate) &&
		!task.IsMarker() &&
		(opType != domain.OperationMidnightProcess || !task.Completed)
	if !stillEligible {
		log.Debug("planned task changed since planning, skipping",
			slog.String("task_id", id.String()),
			slog.Bool("completed", task.Completed),
			slog.Time("current_date", task.Date))
		return false, nil
	}

	// originalDate is the task's pre-move date; the store only writes it
	// when no earlier move has set it.
	if err := txTasks.UpdateDateAndStatus(ctx, id, targetDate, status, task.Date); err != nil {
		return false, err
	}

	return true, nil
}

// InvalidateTaskLists emits the fire-and-forget cache invalidation for a
// student's task-list keys.
func (e *Executor) InvalidateTaskLists(ctx context.Context, studentID string) {
	e.emitter.EmitEvent(ctx, events.NewCacheInvalidationEvent(TaskListKeyPattern(studentID)))
}

// mapExecutionError translates transaction failures into the service error
// taxonomy.
func (e *Executor) mapExecutionError(err error) error {
	if errors.Is(err, store.ErrDuplicateHistory) {
		return fmt.Errorf("%w: %v", ErrConcurrentConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailure, err)
}

// TaskListKeyPattern is the student-scoped cache key pattern for task lists.
func TaskListKeyPattern(studentID string) string {
	return fmt.Sprintf("tasks:%s:*", studentID)
}
