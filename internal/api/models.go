package api

import (
	"encoding/json"
	"time"

	"github.com/studytrack/schedule-api/internal/domain"
)

// DateLayout is the wire format for dates in request and response bodies.
const DateLayout = "2006-01-02"

// LeaveDeferRequest defines the payload for the leave-defer endpoint.
type LeaveDeferRequest struct {
	Date   string `json:"date"   validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"max=500"`
}

// LeaveDeferResponse defines the successful response for the leave-defer
// endpoint.
type LeaveDeferResponse struct {
	StudentID  string `json:"student_id"`
	Date       string `json:"date"`
	TargetDate string `json:"target_date,omitempty"`
	MovedCount int    `json:"moved_count"`
}

// RolloverRequest defines the payload for the admin rollover trigger.
// Date is the source date whose incomplete tasks roll forward; it defaults
// to yesterday when omitted.
type RolloverRequest struct {
	StudentID string `json:"student_id" validate:"required,min=1,max=64"`
	Date      string `json:"date"       validate:"omitempty,datetime=2006-01-02"`
}

// RolloverResponse defines the successful response for the rollover trigger.
type RolloverResponse struct {
	StudentID  string `json:"student_id"`
	Date       string `json:"date"`
	TargetDate string `json:"target_date,omitempty"`
	MovedCount int    `json:"moved_count"`
	Mode       string `json:"mode,omitempty"`
	Skipped    bool   `json:"skipped"`
	LastRunAt  string `json:"last_run_at,omitempty"`
}

// HistoryEntryResponse represents one schedule history ledger entry.
type HistoryEntryResponse struct {
	ID                string          `json:"id"`
	OperationType     string          `json:"operation_type"`
	OperationDate     string          `json:"operation_date"`
	AffectedTaskCount int             `json:"affected_task_count"`
	Details           json.RawMessage `json:"details,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ScheduleConfigResponse represents a student's schedule configuration.
type ScheduleConfigResponse struct {
	StudentID          string `json:"student_id"`
	DailyTaskLimit     int    `json:"daily_task_limit"`
	CarryOverThreshold int    `json:"carry_over_threshold"`
	AdvanceDaysLimit   int    `json:"advance_days_limit"`
	AutoDeferTime      string `json:"auto_defer_time"`
}

func historyToResponse(h *domain.ScheduleHistory) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:                h.ID.String(),
		OperationType:     string(h.OperationType),
		OperationDate:     h.OperationDate.Format(DateLayout),
		AffectedTaskCount: h.AffectedTaskCount,
		Details:           h.Details,
		CreatedAt:         h.CreatedAt,
	}
}

func configToResponse(cfg *domain.ScheduleConfig) ScheduleConfigResponse {
	return ScheduleConfigResponse{
		StudentID:          cfg.StudentID,
		DailyTaskLimit:     cfg.DailyTaskLimit,
		CarryOverThreshold: cfg.CarryOverThreshold,
		AdvanceDaysLimit:   cfg.AdvanceDaysLimit,
		AutoDeferTime:      cfg.AutoDeferTime,
	}
}
