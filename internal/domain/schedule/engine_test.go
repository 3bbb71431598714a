package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
)

// fakeCalendar resolves the next work date by skipping the configured
// blocked dates.
type fakeCalendar struct {
	blocked map[string]bool
	err     error
}

func (c *fakeCalendar) FindNextWorkDate(
	_ context.Context,
	_ string,
	from time.Time,
) (time.Time, error) {
	if c.err != nil {
		return time.Time{}, c.err
	}

	date := domain.DateOnly(from)
	for i := 0; i < 366; i++ {
		date = date.AddDate(0, 0, 1)
		if !c.blocked[date.Format("2006-01-02")] {
			return date, nil
		}
	}
	return time.Time{}, errors.New("no work date in a year")
}

// fakeLoad reports the pre-existing task count per date.
type fakeLoad struct {
	counts map[string]int
	err    error
}

func (l *fakeLoad) ScheduledCount(_ context.Context, _ string, date time.Time) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	return l.counts[date.Format("2006-01-02")], nil
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func testConfig() *domain.ScheduleConfig {
	return domain.DefaultScheduleConfig("student-1")
}

func TestPlanLeaveDefer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("moves all tasks to next day when unblocked", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})
		taskIDs := ids(3)

		plan, err := engine.PlanLeaveDefer(ctx, "student-1", day("2026-03-02"), taskIDs)
		require.NoError(t, err)

		assert.Equal(t, schedule.ModeDefer, plan.Mode)
		require.Len(t, plan.Assignments, 1)
		assert.Equal(t, day("2026-03-03"), plan.Assignments[0].Date)
		assert.Equal(t, taskIDs, plan.Assignments[0].TaskIDs)
	})

	t.Run("skips rest and leave days", func(t *testing.T) {
		t.Parallel()

		calendar := &fakeCalendar{blocked: map[string]bool{
			"2026-03-03": true,
			"2026-03-04": true,
		}}
		engine := schedule.NewEngine(calendar, &fakeLoad{})

		plan, err := engine.PlanLeaveDefer(ctx, "student-1", day("2026-03-02"), ids(2))
		require.NoError(t, err)

		require.Len(t, plan.Assignments, 1)
		assert.Equal(t, day("2026-03-05"), plan.Assignments[0].Date)
	})

	t.Run("keeps the batch together", func(t *testing.T) {
		t.Parallel()

		// Defers never split, even far beyond the daily task limit.
		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})
		taskIDs := ids(12)

		plan, err := engine.PlanLeaveDefer(ctx, "student-1", day("2026-03-02"), taskIDs)
		require.NoError(t, err)

		require.Len(t, plan.Assignments, 1)
		assert.Equal(t, len(taskIDs), plan.TaskCount())
	})

	t.Run("empty task set", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})

		_, err := engine.PlanLeaveDefer(ctx, "student-1", day("2026-03-02"), nil)
		assert.ErrorIs(t, err, schedule.ErrNoTasks)
	})

	t.Run("propagates calendar errors", func(t *testing.T) {
		t.Parallel()

		calErr := errors.New("calendar unavailable")
		engine := schedule.NewEngine(&fakeCalendar{err: calErr}, &fakeLoad{})

		_, err := engine.PlanLeaveDefer(ctx, "student-1", day("2026-03-02"), ids(1))
		assert.ErrorIs(t, err, calErr)
	})
}

func TestPlanRollover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("below threshold carries as one batch", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})
		cfg := testConfig() // threshold 3
		taskIDs := ids(2)

		plan, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), taskIDs, cfg)
		require.NoError(t, err)

		assert.Equal(t, schedule.ModeCarry, plan.Mode)
		require.Len(t, plan.Assignments, 1)
		assert.Equal(t, day("2026-03-02"), plan.Assignments[0].Date)
		assert.Equal(t, taskIDs, plan.Assignments[0].TaskIDs)
	})

	t.Run("at threshold distributes across work dates", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})
		cfg := testConfig() // threshold 3, daily limit 4
		taskIDs := ids(6)

		plan, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), taskIDs, cfg)
		require.NoError(t, err)

		assert.Equal(t, schedule.ModePushForward, plan.Mode)
		require.Len(t, plan.Assignments, 2)
		assert.Equal(t, day("2026-03-02"), plan.Assignments[0].Date)
		assert.Len(t, plan.Assignments[0].TaskIDs, 4)
		assert.Equal(t, day("2026-03-03"), plan.Assignments[1].Date)
		assert.Len(t, plan.Assignments[1].TaskIDs, 2)
		assert.Equal(t, len(taskIDs), plan.TaskCount())
	})

	t.Run("push forward counts existing load", func(t *testing.T) {
		t.Parallel()

		load := &fakeLoad{counts: map[string]int{
			"2026-03-02": 3, // one free slot
			"2026-03-03": 4, // full, skipped
		}}
		engine := schedule.NewEngine(&fakeCalendar{}, load)
		taskIDs := ids(4)

		plan, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), taskIDs, testConfig())
		require.NoError(t, err)

		require.Len(t, plan.Assignments, 2)
		assert.Equal(t, day("2026-03-02"), plan.Assignments[0].Date)
		assert.Len(t, plan.Assignments[0].TaskIDs, 1)
		assert.Equal(t, day("2026-03-04"), plan.Assignments[1].Date)
		assert.Len(t, plan.Assignments[1].TaskIDs, 3)
	})

	t.Run("conserves every task id exactly once", func(t *testing.T) {
		t.Parallel()

		load := &fakeLoad{counts: map[string]int{
			"2026-03-02": 2,
			"2026-03-04": 1,
		}}
		calendar := &fakeCalendar{blocked: map[string]bool{"2026-03-03": true}}
		engine := schedule.NewEngine(calendar, load)
		taskIDs := ids(9)

		plan, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), taskIDs, testConfig())
		require.NoError(t, err)

		seen := make(map[uuid.UUID]int)
		for _, a := range plan.Assignments {
			for _, id := range a.TaskIDs {
				seen[id]++
			}
		}
		require.Len(t, seen, len(taskIDs))
		for _, id := range taskIDs {
			assert.Equal(t, 1, seen[id])
		}
	})

	t.Run("fails with ErrNoCapacity when every date is full", func(t *testing.T) {
		t.Parallel()

		counts := make(map[string]int)
		date := day("2026-03-01")
		for i := 0; i < 400; i++ {
			date = date.AddDate(0, 0, 1)
			counts[date.Format("2006-01-02")] = 4
		}
		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{counts: counts})

		_, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), ids(5), testConfig())
		assert.ErrorIs(t, err, schedule.ErrNoCapacity)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})

		_, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), ids(1), nil)
		assert.ErrorIs(t, err, schedule.ErrNilConfig)
	})

	t.Run("empty task set", func(t *testing.T) {
		t.Parallel()

		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{})

		_, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), nil, testConfig())
		assert.ErrorIs(t, err, schedule.ErrNoTasks)
	})

	t.Run("custom rollover policy replaces push forward", func(t *testing.T) {
		t.Parallel()

		fixed := day("2026-04-01")
		custom := func(_ context.Context, in schedule.PolicyInput) (*schedule.Plan, error) {
			return &schedule.Plan{
				Mode:        schedule.ModePushForward,
				Assignments: []schedule.Assignment{{Date: fixed, TaskIDs: in.TaskIDs}},
			}, nil
		}
		engine := schedule.NewEngine(&fakeCalendar{}, &fakeLoad{}, schedule.WithRolloverPolicy(custom))

		plan, err := engine.PlanRollover(ctx, "student-1", day("2026-03-01"), ids(5), testConfig())
		require.NoError(t, err)

		require.Len(t, plan.Assignments, 1)
		assert.Equal(t, fixed, plan.Assignments[0].Date)
	})
}

func TestPlanHelpers(t *testing.T) {
	t.Parallel()

	taskIDs := ids(3)
	plan := &schedule.Plan{
		Mode: schedule.ModePushForward,
		Assignments: []schedule.Assignment{
			{Date: day("2026-03-02"), TaskIDs: taskIDs[:2]},
			{Date: day("2026-03-03"), TaskIDs: taskIDs[2:]},
		},
	}

	assert.Equal(t, 3, plan.TaskCount())
	assert.Equal(t, day("2026-03-02"), plan.FirstTarget())

	targets := plan.HistoryTargets()
	require.Len(t, targets, 2)
	assert.Equal(t, taskIDs[:2], targets[0].TaskIDs)

	empty := &schedule.Plan{Mode: schedule.ModeDefer}
	assert.Equal(t, 0, empty.TaskCount())
	assert.True(t, empty.FirstTarget().IsZero())
}
