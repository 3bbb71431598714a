package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/schedule-api/internal/domain"
)

// Common planning errors
var (
	// ErrNoTasks is returned when a plan is requested for an empty task set.
	ErrNoTasks = errors.New("no tasks to plan")

	// ErrNilConfig is returned when a rollover plan is requested without a
	// schedule configuration.
	ErrNilConfig = errors.New("schedule config cannot be nil")

	// ErrNoCapacity is returned when the push-forward policy cannot place
	// every task on a work date within its scan bound. Nothing is moved in
	// that case; the condition indicates a calendar or limit mis-configuration
	// and needs manual intervention.
	ErrNoCapacity = errors.New("no capacity on upcoming work dates")
)

// maxPushForwardDates bounds how many successive work dates the push-forward
// policy will examine before giving up with ErrNoCapacity.
const maxPushForwardDates = 60

// Calendar yields the next work date for a student after a given date.
// Implementations must never return a date carrying a rest or leave marker.
type Calendar interface {
	FindNextWorkDate(ctx context.Context, studentID string, from time.Time) (time.Time, error)
}

// LoadReader reports how many real (non-marker) tasks a student already has
// scheduled on a date. The push-forward policy uses it to honor the daily
// task limit.
type LoadReader interface {
	ScheduledCount(ctx context.Context, studentID string, date time.Time) (int, error)
}

// PolicyInput carries everything a rollover policy needs to place tasks.
type PolicyInput struct {
	StudentID  string
	SourceDate time.Time
	TaskIDs    []uuid.UUID
	Config     *domain.ScheduleConfig
	Calendar   Calendar
	Load       LoadReader
}

// RolloverPolicy decides where incomplete tasks land when their count is at
// or above the carry-over threshold. The behavior at the threshold boundary
// is a product decision, so it is isolated behind this function type;
// DistributePolicy is the default. A policy must place every task it is
// given or fail; it may never drop tasks.
type RolloverPolicy func(ctx context.Context, in PolicyInput) (*Plan, error)

// Engine is the deferral policy engine. It plans leave defers and rollovers
// but never touches task rows itself.
type Engine struct {
	calendar    Calendar
	load        LoadReader
	pushForward RolloverPolicy
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRolloverPolicy replaces the default push-forward policy.
func WithRolloverPolicy(policy RolloverPolicy) EngineOption {
	return func(e *Engine) {
		e.pushForward = policy
	}
}

// NewEngine creates a deferral policy engine over the given calendar and
// load reader. The default push-forward policy is DistributePolicy.
func NewEngine(calendar Calendar, load LoadReader, opts ...EngineOption) *Engine {
	if calendar == nil {
		panic("calendar cannot be nil")
	}
	if load == nil {
		panic("load reader cannot be nil")
	}

	e := &Engine{
		calendar:    calendar,
		load:        load,
		pushForward: DistributePolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlanLeaveDefer plans the move of a leave date's tasks: all of them go as
// one batch to the next work date after the leave date.
func (e *Engine) PlanLeaveDefer(
	ctx context.Context,
	studentID string,
	leaveDate time.Time,
	taskIDs []uuid.UUID,
) (*Plan, error) {
	if len(taskIDs) == 0 {
		return nil, ErrNoTasks
	}

	target, err := e.calendar.FindNextWorkDate(ctx, studentID, leaveDate)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Mode: ModeDefer,
		Assignments: []Assignment{
			{Date: target, TaskIDs: taskIDs},
		},
	}, nil
}

// PlanRollover plans the day-boundary move of a source date's incomplete
// tasks. Below the carry-over threshold the whole batch is carried to the
// next work date; at or above it, the configured push-forward policy
// distributes the batch.
func (e *Engine) PlanRollover(
	ctx context.Context,
	studentID string,
	sourceDate time.Time,
	taskIDs []uuid.UUID,
	cfg *domain.ScheduleConfig,
) (*Plan, error) {
	if len(taskIDs) == 0 {
		return nil, ErrNoTasks
	}
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if len(taskIDs) < cfg.CarryOverThreshold {
		target, err := e.calendar.FindNextWorkDate(ctx, studentID, sourceDate)
		if err != nil {
			return nil, err
		}
		return &Plan{
			Mode: ModeCarry,
			Assignments: []Assignment{
				{Date: target, TaskIDs: taskIDs},
			},
		}, nil
	}

	return e.pushForward(ctx, PolicyInput{
		StudentID:  studentID,
		SourceDate: sourceDate,
		TaskIDs:    taskIDs,
		Config:     cfg,
		Calendar:   e.calendar,
		Load:       e.load,
	})
}

// DistributePolicy is the default push-forward policy: it walks successive
// work dates and fills each up to the daily task limit, counting tasks
// already scheduled there. Dates with no free slots are skipped. If tasks
// remain unplaced after maxPushForwardDates work dates, it fails with
// ErrNoCapacity rather than dropping them.
func DistributePolicy(ctx context.Context, in PolicyInput) (*Plan, error) {
	remaining := in.TaskIDs
	cursor := in.SourceDate

	var assignments []Assignment
	for scanned := 0; len(remaining) > 0; scanned++ {
		if scanned >= maxPushForwardDates {
			return nil, ErrNoCapacity
		}

		date, err := in.Calendar.FindNextWorkDate(ctx, in.StudentID, cursor)
		if err != nil {
			return nil, err
		}

		scheduled, err := in.Load.ScheduledCount(ctx, in.StudentID, date)
		if err != nil {
			return nil, err
		}

		free := in.Config.DailyTaskLimit - scheduled
		if free > 0 {
			n := free
			if n > len(remaining) {
				n = len(remaining)
			}
			assignments = append(assignments, Assignment{
				Date:    date,
				TaskIDs: remaining[:n],
			})
			remaining = remaining[n:]
		}

		cursor = date
	}

	return &Plan{
		Mode:        ModePushForward,
		Assignments: assignments,
	}, nil
}
