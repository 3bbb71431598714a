package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/studytrack/schedule-api/internal/api"
	apiMiddleware "github.com/studytrack/schedule-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	scheduleHandler := api.NewScheduleHandler(app.rescheduleService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Post("/leave", scheduleHandler.RequestLeaveDefer)
			r.Get("/schedule/history", scheduleHandler.ListHistory)
			r.Get("/schedule/config", scheduleHandler.GetScheduleConfig)
		})

		// Manual rollover trigger for re-running a missed midnight pass.
		r.Post("/admin/rollover", scheduleHandler.TriggerRollover)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
