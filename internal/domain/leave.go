package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LeaveRecord-specific validation errors
var (
	// ErrLeaveIDEmpty is returned when a leave record ID is empty or nil.
	ErrLeaveIDEmpty = errors.New("leave record ID cannot be empty")

	// ErrLeaveStudentIDEmpty is returned when a leave record's student ID is empty.
	ErrLeaveStudentIDEmpty = errors.New("leave record student ID cannot be empty")

	// ErrLeaveDateZero is returned when a leave record's date is unset.
	ErrLeaveDateZero = errors.New("leave record date cannot be zero")
)

// LeaveRecord is one row per (student, date) leave request. The pair is
// unique: a second request for the same date is rejected at the store layer.
type LeaveRecord struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLeaveRecord creates a new LeaveRecord for the given student and date.
// Returns an error if validation fails.
func NewLeaveRecord(studentID string, date time.Time, reason string) (*LeaveRecord, error) {
	record := &LeaveRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		Date:      DateOnly(date),
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the LeaveRecord has valid data.
func (r *LeaveRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrLeaveIDEmpty
	}

	if r.StudentID == "" {
		return ErrLeaveStudentIDEmpty
	}

	if r.Date.IsZero() {
		return ErrLeaveDateZero
	}

	return nil
}
