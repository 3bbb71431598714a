package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/schedule-api/internal/config"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SCHEDULE_DATABASE_URL", "postgres://localhost:5432/schedule_test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/schedule_test", cfg.Database.URL)

	// Defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Schedule.LookaheadDays)
	assert.Equal(t, time.Duration(0), cfg.Schedule.DedupeWindow)
	assert.Equal(t, "0 0 * * *", cfg.Schedule.RolloverCron)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCHEDULE_DATABASE_URL", "postgres://localhost:5432/schedule_test")
	t.Setenv("SCHEDULE_SERVER_PORT", "9090")
	t.Setenv("SCHEDULE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SCHEDULE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SCHEDULE_SCHEDULE_LOOKAHEAD_DAYS", "14")
	t.Setenv("SCHEDULE_SCHEDULE_DEDUPE_WINDOW", "5m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 14, cfg.Schedule.LookaheadDays)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.DedupeWindow)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("SCHEDULE_DATABASE_URL", "")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("SCHEDULE_DATABASE_URL", "postgres://localhost:5432/x")
		t.Setenv("SCHEDULE_SERVER_LOG_LEVEL", "verbose")

		_, err := config.Load()
		assert.Error(t, err)
	})
}
