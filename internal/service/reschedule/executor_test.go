package reschedule_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func makeTask(t *testing.T, studentID string, date time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(studentID, date, "math", "exercise set")
	require.NoError(t, err)
	return task
}

func singleAssignmentPlan(mode schedule.Mode, target time.Time, taskIDs ...uuid.UUID) *schedule.Plan {
	return &schedule.Plan{
		Mode:        mode,
		Assignments: []schedule.Assignment{{Date: target, TaskIDs: taskIDs}},
	}
}

func TestExecutorExecuteInTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sourceDate := day("2026-03-02")
	targetDate := day("2026-03-03")

	newExecutor := func(tasks *MockTaskStore, history *MockHistoryStore) *reschedule.Executor {
		return reschedule.NewExecutor(&sql.DB{}, tasks, history, &recordingEmitter{}, nil)
	}

	t.Run("moves eligible tasks and appends ledger entry", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		t1 := makeTask(t, "student-1", sourceDate)
		t2 := makeTask(t, "student-1", sourceDate)
		plan := singleAssignmentPlan(schedule.ModeDefer, targetDate, t1.ID, t2.ID)

		tasks.On("GetByID", ctx, t1.ID).Return(t1, nil)
		tasks.On("GetByID", ctx, t2.ID).Return(t2, nil)
		tasks.On("UpdateDateAndStatus", ctx, t1.ID, targetDate, domain.TaskStatusDeferred, sourceDate).Return(nil)
		tasks.On("UpdateDateAndStatus", ctx, t2.ID, targetDate, domain.TaskStatusDeferred, sourceDate).Return(nil)

		var inserted *domain.ScheduleHistory
		history.On("Insert", ctx, mock.AnythingOfType("*domain.ScheduleHistory")).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).(*domain.ScheduleHistory)
			}).
			Return(nil)

		result, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationLeaveDefer, plan)
		require.NoError(t, err)

		assert.Equal(t, 2, result.MovedCount)
		assert.Equal(t, targetDate, result.TargetDate)

		require.NotNil(t, inserted)
		assert.Equal(t, domain.OperationLeaveDefer, inserted.OperationType)
		assert.Equal(t, sourceDate, inserted.OperationDate)
		assert.Equal(t, 2, inserted.AffectedTaskCount)

		details, err := inserted.UnmarshalDetails()
		require.NoError(t, err)
		assert.Equal(t, string(schedule.ModeDefer), details.Mode)
		require.Len(t, details.Targets, 1)
		assert.ElementsMatch(t, []uuid.UUID{t1.ID, t2.ID}, details.Targets[0].TaskIDs)

		tasks.AssertExpectations(t)
		history.AssertExpectations(t)
	})

	t.Run("rollover marks tasks carried", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		task := makeTask(t, "student-1", sourceDate)
		plan := singleAssignmentPlan(schedule.ModeCarry, targetDate, task.ID)

		tasks.On("GetByID", ctx, task.ID).Return(task, nil)
		tasks.On("UpdateDateAndStatus", ctx, task.ID, targetDate, domain.TaskStatusCarried, sourceDate).Return(nil)
		history.On("Insert", ctx, mock.Anything).Return(nil)

		result, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationMidnightProcess, plan)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MovedCount)

		tasks.AssertExpectations(t)
	})

	t.Run("skips tasks that vanished or changed", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		gone := uuid.New()
		completed := makeTask(t, "student-1", sourceDate)
		completed.Completed = true
		moved := makeTask(t, "student-1", day("2026-03-05"))
		eligible := makeTask(t, "student-1", sourceDate)

		plan := singleAssignmentPlan(schedule.ModeCarry, targetDate,
			gone, completed.ID, moved.ID, eligible.ID)

		tasks.On("GetByID", ctx, gone).Return(nil, store.ErrTaskNotFound)
		tasks.On("GetByID", ctx, completed.ID).Return(completed, nil)
		tasks.On("GetByID", ctx, moved.ID).Return(moved, nil)
		tasks.On("GetByID", ctx, eligible.ID).Return(eligible, nil)
		tasks.On("UpdateDateAndStatus", ctx, eligible.ID, targetDate, domain.TaskStatusCarried, sourceDate).Return(nil)

		var inserted *domain.ScheduleHistory
		history.On("Insert", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).(*domain.ScheduleHistory)
			}).
			Return(nil)

		result, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationMidnightProcess, plan)
		require.NoError(t, err)

		assert.Equal(t, 1, result.MovedCount)
		assert.Equal(t, 1, inserted.AffectedTaskCount)

		tasks.AssertExpectations(t)
	})

	t.Run("completed task still moves on leave defer", func(t *testing.T) {
		t.Parallel()

		// Completion only blocks rollover moves; a leave defer moves the
		// whole day regardless.
		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		task := makeTask(t, "student-1", sourceDate)
		task.Completed = true
		plan := singleAssignmentPlan(schedule.ModeDefer, targetDate, task.ID)

		tasks.On("GetByID", ctx, task.ID).Return(task, nil)
		tasks.On("UpdateDateAndStatus", ctx, task.ID, targetDate, domain.TaskStatusDeferred, sourceDate).Return(nil)
		history.On("Insert", ctx, mock.Anything).Return(nil)

		result, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationLeaveDefer, plan)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MovedCount)
	})

	t.Run("update failure aborts without ledger insert", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		task := makeTask(t, "student-1", sourceDate)
		plan := singleAssignmentPlan(schedule.ModeCarry, targetDate, task.ID)

		updateErr := errors.New("connection reset")
		tasks.On("GetByID", ctx, task.ID).Return(task, nil)
		tasks.On("UpdateDateAndStatus", ctx, task.ID, targetDate, domain.TaskStatusCarried, sourceDate).
			Return(updateErr)

		_, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationMidnightProcess, plan)
		assert.ErrorIs(t, err, updateErr)

		history.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("ledger conflict surfaces duplicate error", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		task := makeTask(t, "student-1", sourceDate)
		plan := singleAssignmentPlan(schedule.ModeCarry, targetDate, task.ID)

		tasks.On("GetByID", ctx, task.ID).Return(task, nil)
		tasks.On("UpdateDateAndStatus", ctx, task.ID, targetDate, domain.TaskStatusCarried, sourceDate).Return(nil)
		history.On("Insert", ctx, mock.Anything).Return(store.ErrDuplicateHistory)

		_, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationMidnightProcess, plan)
		assert.ErrorIs(t, err, store.ErrDuplicateHistory)
	})

	t.Run("empty plan still records a zero-count entry", func(t *testing.T) {
		t.Parallel()

		tasks := new(MockTaskStore)
		history := new(MockHistoryStore)
		executor := newExecutor(tasks, history)

		var inserted *domain.ScheduleHistory
		history.On("Insert", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).(*domain.ScheduleHistory)
			}).
			Return(nil)

		result, err := executor.ExecuteInTx(
			ctx, nil, "student-1", sourceDate, domain.OperationLeaveDefer,
			&schedule.Plan{Mode: schedule.ModeDefer})
		require.NoError(t, err)

		assert.Equal(t, 0, result.MovedCount)
		assert.True(t, result.TargetDate.IsZero())
		assert.Equal(t, 0, inserted.AffectedTaskCount)
	})
}

func TestInvalidateTaskLists(t *testing.T) {
	t.Parallel()

	emitter := &recordingEmitter{}
	executor := reschedule.NewExecutor(
		&sql.DB{}, new(MockTaskStore), new(MockHistoryStore), emitter, nil)

	executor.InvalidateTaskLists(context.Background(), "ST001")

	require.Len(t, emitter.patterns, 1)
	assert.Equal(t, "tasks:ST001:*", emitter.patterns[0])
}

func TestTaskListKeyPattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tasks:ST042:*", reschedule.TaskListKeyPattern("ST042"))
}
