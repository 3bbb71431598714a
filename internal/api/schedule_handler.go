// Package api provides HTTP handlers for the schedule API.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studytrack/schedule-api/internal/api/shared"
	"github.com/studytrack/schedule-api/internal/platform/logger"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

const (
	// defaultHistoryLimit bounds history listings when no limit is given.
	defaultHistoryLimit = 20

	// maxHistoryLimit is the hard ceiling for a single history page.
	maxHistoryLimit = 100

	// maxStudentIDLength bounds the student path parameter.
	maxStudentIDLength = 64
)

// ScheduleHandler handles schedule-related HTTP requests.
type ScheduleHandler struct {
	rescheduleService reschedule.Service
	now               func() time.Time
	logger            *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(
	rescheduleService reschedule.Service,
	log *slog.Logger,
) *ScheduleHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ScheduleHandler")
	}
	if rescheduleService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reschedule service cannot be nil for ScheduleHandler")
	}

	return &ScheduleHandler{
		rescheduleService: rescheduleService,
		now:               time.Now,
		logger:            log.With(slog.String("component", "schedule_handler")),
	}
}

// RequestLeaveDefer handles POST /students/{studentID}/leave requests.
// It records leave for the date in the body and moves that date's tasks to
// the next work date.
func (h *ScheduleHandler) RequestLeaveDefer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studentID, ok := h.studentIDFromPath(w, r, log)
	if !ok {
		return
	}

	var req LeaveDeferRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid leave request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		log.Debug("leave request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
		return
	}

	date, err := time.ParseInLocation(DateLayout, req.Date, time.UTC)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
		return
	}

	log.Debug("processing leave defer request",
		slog.String("student_id", studentID),
		slog.String("date", req.Date))

	result, err := h.rescheduleService.RequestLeaveDefer(r.Context(), studentID, date)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := LeaveDeferResponse{
		StudentID:  studentID,
		Date:       req.Date,
		MovedCount: result.MovedCount,
	}
	if !result.TargetDate.IsZero() {
		resp.TargetDate = result.TargetDate.Format(DateLayout)
	}

	log.Info("leave defer processed",
		slog.String("student_id", studentID),
		slog.String("date", req.Date),
		slog.Int("moved_count", result.MovedCount))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// TriggerRollover handles POST /admin/rollover requests. It runs the
// day-boundary rollover for one student, typically invoked for recovery when
// the scheduled midnight run needs a manual re-run.
func (h *ScheduleHandler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RolloverRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid rollover request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		log.Debug("rollover request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid rollover request")
		return
	}

	// Default to yesterday: the date whose incomplete tasks a midnight run
	// would roll forward.
	date := h.now().UTC().AddDate(0, 0, -1)
	if req.Date != "" {
		parsed, err := time.ParseInLocation(DateLayout, req.Date, time.UTC)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
			return
		}
		date = parsed
	}

	log.Debug("processing rollover trigger",
		slog.String("student_id", req.StudentID),
		slog.String("date", date.Format(DateLayout)))

	result, err := h.rescheduleService.ProcessRollover(r.Context(), req.StudentID, date)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := RolloverResponse{
		StudentID:  req.StudentID,
		Date:       date.Format(DateLayout),
		MovedCount: result.MovedCount,
		Mode:       string(result.Mode),
		Skipped:    result.Skipped,
	}
	if !result.TargetDate.IsZero() {
		resp.TargetDate = result.TargetDate.Format(DateLayout)
	}
	if !result.LastRunAt.IsZero() {
		resp.LastRunAt = result.LastRunAt.Format(time.RFC3339)
	}

	log.Info("rollover processed",
		slog.String("student_id", req.StudentID),
		slog.String("date", resp.Date),
		slog.Int("moved_count", result.MovedCount),
		slog.Bool("skipped", result.Skipped))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListHistory handles GET /students/{studentID}/schedule/history requests.
// It returns the student's reschedule ledger entries, newest first. The
// optional limit query parameter caps the page size.
func (h *ScheduleHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studentID, ok := h.studentIDFromPath(w, r, log)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.rescheduleService.ListHistory(r.Context(), studentID, limit)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, historyToResponse(entry))
	}

	log.Debug("listed schedule history",
		slog.String("student_id", studentID),
		slog.Int("count", len(resp)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetScheduleConfig handles GET /students/{studentID}/schedule/config
// requests. Students without a stored configuration get the defaults.
func (h *ScheduleHandler) GetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studentID, ok := h.studentIDFromPath(w, r, log)
	if !ok {
		return
	}

	cfg, err := h.rescheduleService.GetConfig(r.Context(), studentID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, configToResponse(cfg))
}

// studentIDFromPath extracts and bounds-checks the studentID path parameter.
// It writes an error response and returns false when the parameter is
// missing or oversized.
func (h *ScheduleHandler) studentIDFromPath(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (string, bool) {
	studentID := chi.URLParam(r, "studentID")
	if studentID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Student ID is required")
		return "", false
	}
	if len(studentID) > maxStudentIDLength {
		log.Debug("oversized student ID in path", slog.Int("length", len(studentID)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Student ID is too long")
		return "", false
	}
	return studentID, true
}
