package reschedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

func ledgerEntry(t *testing.T, createdAt time.Time) *domain.ScheduleHistory {
	t.Helper()
	entry, err := domain.NewScheduleHistory(
		"student-1", domain.OperationMidnightProcess, day("2026-03-02"), 2,
		domain.HistoryDetails{Mode: "carry"})
	require.NoError(t, err)
	entry.CreatedAt = createdAt
	return entry
}

func TestIdempotencyLedgerShouldSkip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	date := day("2026-03-02")
	op := domain.OperationMidnightProcess

	t.Run("no prior run", func(t *testing.T) {
		t.Parallel()

		history := new(MockHistoryStore)
		history.On("LastFor", ctx, "student-1", date, op).Return(nil, store.ErrHistoryNotFound)

		ledger := reschedule.NewIdempotencyLedger(history, 0, nil)

		skip, lastRun, err := ledger.ShouldSkip(ctx, "student-1", date, op)
		require.NoError(t, err)
		assert.False(t, skip)
		assert.True(t, lastRun.IsZero())
	})

	t.Run("zero window skips on any prior run", func(t *testing.T) {
		t.Parallel()

		ranAt := time.Now().UTC().Add(-48 * time.Hour)
		history := new(MockHistoryStore)
		history.On("LastFor", ctx, "student-1", date, op).Return(ledgerEntry(t, ranAt), nil)

		ledger := reschedule.NewIdempotencyLedger(history, 0, nil)

		skip, lastRun, err := ledger.ShouldSkip(ctx, "student-1", date, op)
		require.NoError(t, err)
		assert.True(t, skip)
		assert.Equal(t, ranAt, lastRun)
	})

	t.Run("recent run inside window skips", func(t *testing.T) {
		t.Parallel()

		ranAt := time.Now().UTC().Add(-time.Minute)
		history := new(MockHistoryStore)
		history.On("LastFor", ctx, "student-1", date, op).Return(ledgerEntry(t, ranAt), nil)

		ledger := reschedule.NewIdempotencyLedger(history, 10*time.Minute, nil)

		skip, _, err := ledger.ShouldSkip(ctx, "student-1", date, op)
		require.NoError(t, err)
		assert.True(t, skip)
	})

	t.Run("stale run outside window does not skip", func(t *testing.T) {
		t.Parallel()

		ranAt := time.Now().UTC().Add(-time.Hour)
		history := new(MockHistoryStore)
		history.On("LastFor", ctx, "student-1", date, op).Return(ledgerEntry(t, ranAt), nil)

		ledger := reschedule.NewIdempotencyLedger(history, 10*time.Minute, nil)

		skip, lastRun, err := ledger.ShouldSkip(ctx, "student-1", date, op)
		require.NoError(t, err)
		assert.False(t, skip)
		assert.Equal(t, ranAt, lastRun)
	})

	t.Run("store error propagates", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("connection refused")
		history := new(MockHistoryStore)
		history.On("LastFor", ctx, "student-1", date, op).Return(nil, storeErr)

		ledger := reschedule.NewIdempotencyLedger(history, 0, nil)

		_, _, err := ledger.ShouldSkip(ctx, "student-1", date, op)
		assert.ErrorIs(t, err, storeErr)
	})
}
