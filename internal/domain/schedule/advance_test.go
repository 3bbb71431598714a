package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
)

func TestWithinAdvanceWindow(t *testing.T) {
	t.Parallel()

	today := day("2026-03-10")
	cfg := domain.DefaultScheduleConfig("student-1") // limit 5

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"today", "2026-03-10", true},
		{"yesterday", "2026-03-09", true},
		{"far in the past", "2025-01-01", true},
		{"at the limit", "2026-03-15", true},
		{"one past the limit", "2026-03-16", false},
		{"far in the future", "2026-06-01", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, schedule.WithinAdvanceWindow(cfg, today, day(tt.date)))
		})
	}

	t.Run("nil config falls back to default limit", func(t *testing.T) {
		t.Parallel()
		assert.True(t, schedule.WithinAdvanceWindow(nil, today, day("2026-03-15")))
		assert.False(t, schedule.WithinAdvanceWindow(nil, today, day("2026-03-16")))
	})
}
