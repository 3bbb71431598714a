package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskStudentIDEmpty is returned when a task's student ID is empty.
	ErrTaskStudentIDEmpty = errors.New("task student ID cannot be empty")

	// ErrTaskDateZero is returned when a task's scheduled date is unset.
	ErrTaskDateZero = errors.New("task date cannot be zero")

	// ErrTaskKindEmpty is returned when a task's kind is empty.
	ErrTaskKindEmpty = errors.New("task kind cannot be empty")

	// ErrTaskTitleEmpty is returned when a non-marker task has no title.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskStatusInvalid is returned when a task's status is not a known value.
	ErrTaskStatusInvalid = errors.New("task status must be normal, deferred or carried")
)

// TaskKind identifies the subject or category of a task. Most values are
// free-form subject names ("math", "english"). Two values are reserved
// calendar markers rather than real assignments: KindRest and KindLeave.
// A date carrying a marker task is never a valid target for rescheduling.
type TaskKind string

const (
	// KindRest marks a date as a rest day for the student.
	KindRest TaskKind = "rest"

	// KindLeave marks a date the student has taken leave for.
	KindLeave TaskKind = "leave"
)

// IsScheduleBlocking reports whether tasks of this kind block their date
// from receiving rescheduled work. Only the reserved marker kinds block.
func (k TaskKind) IsScheduleBlocking() bool {
	return k == KindRest || k == KindLeave
}

// TaskStatus tracks how a task arrived at its currently effective date.
type TaskStatus string

const (
	// TaskStatusNormal is the status of a task on its originally scheduled date.
	TaskStatusNormal TaskStatus = "normal"

	// TaskStatusDeferred marks a task moved by a leave-defer operation.
	TaskStatusDeferred TaskStatus = "deferred"

	// TaskStatusCarried marks an incomplete task rolled over at day boundary.
	TaskStatusCarried TaskStatus = "carried"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusNormal, TaskStatusDeferred, TaskStatusCarried:
		return true
	default:
		return false
	}
}

// Task represents one assignment for one student on one date.
//
// Date is the currently effective date and changes when the rescheduling
// engine moves the task. OriginalDate is provenance: it is nil until the
// first move, is initialized to the pre-move date at that point, and is
// never overwritten by later moves.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	StudentID    string     `json:"student_id"`
	Date         time.Time  `json:"date"`
	OriginalDate *time.Time `json:"original_date,omitempty"`
	Kind         TaskKind   `json:"kind"`
	Title        string     `json:"title"`
	Completed    bool       `json:"completed"`
	Status       TaskStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTask creates a new Task scheduled for the given date with status normal.
// It generates a new UUID for the task ID and normalizes the date to a
// calendar day. Returns an error if validation fails.
func NewTask(studentID string, date time.Time, kind TaskKind, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		StudentID: studentID,
		Date:      DateOnly(date),
		Kind:      kind,
		Title:     title,
		Completed: false,
		Status:    TaskStatusNormal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.StudentID == "" {
		return ErrTaskStudentIDEmpty
	}

	if t.Date.IsZero() {
		return ErrTaskDateZero
	}

	if t.Kind == "" {
		return ErrTaskKindEmpty
	}

	// Marker tasks carry no assignment content; everything else needs a title.
	if !t.Kind.IsScheduleBlocking() && t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if !t.Status.IsValid() {
		return ErrTaskStatusInvalid
	}

	return nil
}

// IsMarker reports whether the task is a reserved rest/leave calendar marker
// rather than a real assignment.
func (t *Task) IsMarker() bool {
	return t.Kind.IsScheduleBlocking()
}

// ProvenanceDate returns the date the task was first scheduled on: the
// recorded OriginalDate if a move has already set it, otherwise the
// currently effective date.
func (t *Task) ProvenanceDate() time.Time {
	if t.OriginalDate != nil {
		return *t.OriginalDate
	}
	return t.Date
}

// DateOnly truncates a timestamp to its calendar day in UTC. All dates
// handled by the rescheduling engine are stored in this normalized form so
// that equality checks compare days, not instants.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
