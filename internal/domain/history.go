package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScheduleHistory-specific validation errors
var (
	// ErrHistoryIDEmpty is returned when a history entry ID is empty or nil.
	ErrHistoryIDEmpty = errors.New("schedule history ID cannot be empty")

	// ErrHistoryStudentIDEmpty is returned when a history entry's student ID is empty.
	ErrHistoryStudentIDEmpty = errors.New("schedule history student ID cannot be empty")

	// ErrHistoryOperationInvalid is returned when the operation type is unknown.
	ErrHistoryOperationInvalid = errors.New("schedule history operation type is invalid")

	// ErrHistoryDateZero is returned when the operation date is unset.
	ErrHistoryDateZero = errors.New("schedule history operation date cannot be zero")

	// ErrHistoryCountNegative is returned when the affected task count is negative.
	ErrHistoryCountNegative = errors.New("schedule history task count cannot be negative")
)

// OperationType identifies which rescheduling operation a history entry
// records. The (StudentID, OperationDate, OperationType) tuple is unique in
// the ledger and doubles as the idempotency key.
type OperationType string

const (
	// OperationLeaveDefer records a leave-triggered defer of a day's tasks.
	OperationLeaveDefer OperationType = "leave_defer"

	// OperationMidnightProcess records the day-boundary rollover of
	// incomplete tasks.
	OperationMidnightProcess OperationType = "midnight_process"
)

// IsValid reports whether the operation type is one of the known values.
func (o OperationType) IsValid() bool {
	switch o {
	case OperationLeaveDefer, OperationMidnightProcess:
		return true
	default:
		return false
	}
}

// HistoryTarget is one target date and the ids of the tasks moved onto it.
type HistoryTarget struct {
	Date    time.Time   `json:"date"`
	TaskIDs []uuid.UUID `json:"task_ids"`
}

// HistoryDetails is the structured payload stored with a ledger entry:
// which mode the move used and where each task landed.
type HistoryDetails struct {
	Mode    string          `json:"mode"`
	Targets []HistoryTarget `json:"targets"`
}

// ScheduleHistory is one append-only ledger row describing a completed
// reschedule operation. Rows are never mutated after insertion.
type ScheduleHistory struct {
	ID                uuid.UUID       `json:"id"`
	StudentID         string          `json:"student_id"`
	OperationType     OperationType   `json:"operation_type"`
	OperationDate     time.Time       `json:"operation_date"`
	AffectedTaskCount int             `json:"affected_task_count"`
	Details           json.RawMessage `json:"details"`
	CreatedAt         time.Time       `json:"created_at"`
}

// NewScheduleHistory creates a ledger entry for a reschedule operation on
// the given source date. The details payload is serialized to JSON.
// Returns an error if validation fails or the details cannot be serialized.
func NewScheduleHistory(
	studentID string,
	opType OperationType,
	operationDate time.Time,
	affectedTaskCount int,
	details HistoryDetails,
) (*ScheduleHistory, error) {
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	entry := &ScheduleHistory{
		ID:                uuid.New(),
		StudentID:         studentID,
		OperationType:     opType,
		OperationDate:     DateOnly(operationDate),
		AffectedTaskCount: affectedTaskCount,
		Details:           payload,
		CreatedAt:         time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ScheduleHistory has valid data.
func (h *ScheduleHistory) Validate() error {
	if h.ID == uuid.Nil {
		return ErrHistoryIDEmpty
	}

	if h.StudentID == "" {
		return ErrHistoryStudentIDEmpty
	}

	if !h.OperationType.IsValid() {
		return ErrHistoryOperationInvalid
	}

	if h.OperationDate.IsZero() {
		return ErrHistoryDateZero
	}

	if h.AffectedTaskCount < 0 {
		return ErrHistoryCountNegative
	}

	return nil
}

// UnmarshalDetails decodes the structured payload of the entry.
func (h *ScheduleHistory) UnmarshalDetails() (*HistoryDetails, error) {
	var details HistoryDetails
	if err := json.Unmarshal(h.Details, &details); err != nil {
		return nil, err
	}
	return &details, nil
}
