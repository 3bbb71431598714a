// Package schedule contains the pure planning core of the task rescheduling
// engine: given a student's calendar and policy configuration, it decides
// where a set of tasks should land. It performs no writes; executing a plan
// is the responsibility of the reschedule service.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/schedule-api/internal/domain"
)

// Mode describes how a plan distributes its tasks.
type Mode string

const (
	// ModeDefer moves a leave date's tasks as one batch to the next work date.
	ModeDefer Mode = "defer"

	// ModeCarry moves a small batch of incomplete tasks to the next work date.
	ModeCarry Mode = "carry"

	// ModePushForward distributes a large batch of incomplete tasks across
	// successive work dates, respecting the daily task limit.
	ModePushForward Mode = "push_forward"
)

// Assignment is one target date together with the ids of the tasks that
// should move onto it.
type Assignment struct {
	Date    time.Time
	TaskIDs []uuid.UUID
}

// Plan is the outcome of a planning call: which mode applies and where each
// task lands. Assignments are ordered by ascending date.
type Plan struct {
	Mode        Mode
	Assignments []Assignment
}

// TaskCount returns the total number of tasks the plan moves.
func (p *Plan) TaskCount() int {
	n := 0
	for _, a := range p.Assignments {
		n += len(a.TaskIDs)
	}
	return n
}

// FirstTarget returns the earliest target date of the plan, or the zero time
// if the plan moves nothing.
func (p *Plan) FirstTarget() time.Time {
	if len(p.Assignments) == 0 {
		return time.Time{}
	}
	return p.Assignments[0].Date
}

// HistoryTargets converts the plan's assignments into the ledger's details
// payload form.
func (p *Plan) HistoryTargets() []domain.HistoryTarget {
	targets := make([]domain.HistoryTarget, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		targets = append(targets, domain.HistoryTarget{
			Date:    a.Date,
			TaskIDs: a.TaskIDs,
		})
	}
	return targets
}
