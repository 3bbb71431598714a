package reschedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/schedule-api/internal/service/reschedule"
)

func TestWorkCalendarResolver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns the next day when unblocked", func(t *testing.T) {
		t.Parallel()

		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-03")).Return(false, nil)
		leaves := new(MockLeaveStore)
		leaves.On("Exists", ctx, "student-1", day("2026-03-03")).Return(false, nil)

		resolver := reschedule.NewWorkCalendarResolver(markers, leaves, 10, nil)

		got, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		require.NoError(t, err)
		assert.Equal(t, day("2026-03-03"), got)
	})

	t.Run("skips consecutive blocked dates", func(t *testing.T) {
		t.Parallel()

		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-03")).Return(true, nil)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-04")).Return(true, nil)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-05")).Return(false, nil)
		leaves := new(MockLeaveStore)
		leaves.On("Exists", ctx, "student-1", day("2026-03-05")).Return(false, nil)

		resolver := reschedule.NewWorkCalendarResolver(markers, leaves, 10, nil)

		got, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		require.NoError(t, err)
		assert.Equal(t, day("2026-03-05"), got)
		markers.AssertExpectations(t)
	})

	t.Run("skips dates with a recorded leave", func(t *testing.T) {
		t.Parallel()

		// A leave may exist only as a LeaveRecord, without a marker task on
		// the date. Such dates must not receive rescheduled work.
		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", mock.AnythingOfType("time.Time")).
			Return(false, nil)
		leaves := new(MockLeaveStore)
		leaves.On("Exists", ctx, "student-1", day("2026-03-03")).Return(true, nil)
		leaves.On("Exists", ctx, "student-1", day("2026-03-04")).Return(false, nil)

		resolver := reschedule.NewWorkCalendarResolver(markers, leaves, 10, nil)

		got, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		require.NoError(t, err)
		assert.Equal(t, day("2026-03-04"), got)
		leaves.AssertExpectations(t)
	})

	t.Run("normalizes the from date", func(t *testing.T) {
		t.Parallel()

		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-03")).Return(false, nil)
		leaves := new(MockLeaveStore)
		leaves.On("Exists", ctx, "student-1", day("2026-03-03")).Return(false, nil)

		resolver := reschedule.NewWorkCalendarResolver(markers, leaves, 10, nil)

		from := day("2026-03-02").Add(22 * time.Hour) // late evening, same day
		got, err := resolver.FindNextWorkDate(ctx, "student-1", from)
		require.NoError(t, err)
		assert.Equal(t, day("2026-03-03"), got)
	})

	t.Run("fails after exhausting the lookahead", func(t *testing.T) {
		t.Parallel()

		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", mock.AnythingOfType("time.Time")).Return(true, nil)

		resolver := reschedule.NewWorkCalendarResolver(markers, new(MockLeaveStore), 3, nil)

		_, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		assert.ErrorIs(t, err, reschedule.ErrNoWorkDateFound)
		markers.AssertNumberOfCalls(t, "HasBlockingMarker", 3)
	})

	t.Run("propagates marker store errors", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("query timeout")
		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-03")).Return(false, storeErr)

		resolver := reschedule.NewWorkCalendarResolver(markers, new(MockLeaveStore), 10, nil)

		_, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("propagates leave store errors", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("query timeout")
		markers := new(MockTaskStore)
		markers.On("HasBlockingMarker", ctx, "student-1", day("2026-03-03")).Return(false, nil)
		leaves := new(MockLeaveStore)
		leaves.On("Exists", ctx, "student-1", day("2026-03-03")).Return(false, storeErr)

		resolver := reschedule.NewWorkCalendarResolver(markers, leaves, 10, nil)

		_, err := resolver.FindNextWorkDate(ctx, "student-1", day("2026-03-02"))
		assert.ErrorIs(t, err, storeErr)
	})
}
