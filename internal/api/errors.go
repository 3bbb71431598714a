package api

import (
	"errors"
	"net/http"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/domain/schedule"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErr *domain.ValidationError

	switch {
	// Conflict errors
	case errors.Is(err, reschedule.ErrDuplicateLeaveRequest),
		errors.Is(err, reschedule.ErrConcurrentConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, reschedule.ErrPastDateLeave),
		errors.Is(err, reschedule.ErrLeaveTooFarAhead),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &validationErr):
		return http.StatusBadRequest

	// Schedule exhaustion: the request was well formed but the calendar or
	// capacity rules make it impossible to satisfy.
	case errors.Is(err, reschedule.ErrNoWorkDateFound),
		errors.Is(err, schedule.ErrNoCapacity):
		return http.StatusUnprocessableEntity

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrHistoryNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, reschedule.ErrDuplicateLeaveRequest):
		return "Leave already requested for this date"

	case errors.Is(err, reschedule.ErrConcurrentConflict):
		return "Schedule was already processed for this date"

	case errors.Is(err, reschedule.ErrPastDateLeave):
		return "Leave date cannot be in the past"

	case errors.Is(err, reschedule.ErrLeaveTooFarAhead):
		return "Leave date is too far in the future"

	case errors.Is(err, reschedule.ErrNoWorkDateFound):
		return "No available work date found for rescheduling"

	case errors.Is(err, schedule.ErrNoCapacity):
		return "No free capacity on upcoming work dates"

	case errors.As(err, &validationErr):
		return validationErr.Message

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, reschedule.ErrTransactionFailure):
		return "Failed to reschedule tasks"

	default:
		return "An unexpected error occurred"
	}
}
