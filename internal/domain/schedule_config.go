package domain

import (
	"errors"
	"time"
)

// ScheduleConfig validation errors
var (
	// ErrConfigStudentIDEmpty is returned when a config row's student ID is empty.
	ErrConfigStudentIDEmpty = errors.New("schedule config student ID cannot be empty")

	// ErrConfigLimitInvalid is returned when a per-day or lookahead limit is
	// zero or negative.
	ErrConfigLimitInvalid = errors.New("schedule config limits must be positive")
)

// Default schedule policy parameters, applied when a student has no
// stored configuration row.
const (
	DefaultDailyTaskLimit     = 4
	DefaultCarryOverThreshold = 3
	DefaultAdvanceDaysLimit   = 5
	DefaultAutoDeferTime      = "00:00"
)

// ScheduleConfig holds the per-student policy parameters consumed by the
// rescheduling engine: how many tasks fit on a day, at which incomplete-task
// count rollover switches from batch carry to push-forward, how far ahead a
// student may work, and the wall-clock time the rollover is expected to run.
type ScheduleConfig struct {
	StudentID          string    `json:"student_id"`
	DailyTaskLimit     int       `json:"daily_task_limit"`
	CarryOverThreshold int       `json:"carry_over_threshold"`
	AdvanceDaysLimit   int       `json:"advance_days_limit"`
	AutoDeferTime      string    `json:"auto_defer_time"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultScheduleConfig returns the configuration used for students without
// a stored row.
func DefaultScheduleConfig(studentID string) *ScheduleConfig {
	return &ScheduleConfig{
		StudentID:          studentID,
		DailyTaskLimit:     DefaultDailyTaskLimit,
		CarryOverThreshold: DefaultCarryOverThreshold,
		AdvanceDaysLimit:   DefaultAdvanceDaysLimit,
		AutoDeferTime:      DefaultAutoDeferTime,
		UpdatedAt:          time.Now().UTC(),
	}
}

// Validate checks if the ScheduleConfig has valid data.
func (c *ScheduleConfig) Validate() error {
	if c.StudentID == "" {
		return ErrConfigStudentIDEmpty
	}

	if c.DailyTaskLimit < 1 || c.CarryOverThreshold < 1 || c.AdvanceDaysLimit < 1 {
		return ErrConfigLimitInvalid
	}

	return nil
}
