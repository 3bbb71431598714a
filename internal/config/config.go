package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig configures the task-list cache invalidation collaborator.
// When Addr is empty, cache invalidation is disabled and moves are logged only.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// ScheduleConfig contains the rescheduling engine's operational settings.
type ScheduleConfig struct {
	// LookaheadDays bounds the work-date scan of the calendar resolver.
	LookaheadDays int `mapstructure:"lookahead_days" validate:"required,gt=0,lte=366"`

	// DedupeWindow is the idempotency window for reschedule operations.
	// Zero means any prior ledger row for the same (student, date, operation)
	// skips the run; a positive duration only skips runs recorded within the
	// window. The canonical midnight rollover uses zero; a short window
	// (minutes) suits externally retried triggers.
	DedupeWindow time.Duration `mapstructure:"dedupe_window"`

	// RolloverCron is the cron expression for the day-boundary rollover job.
	RolloverCron string `mapstructure:"rollover_cron" validate:"required"`
}
