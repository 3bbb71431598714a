package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/studytrack/schedule-api/internal/config"
	"github.com/studytrack/schedule-api/internal/events"
	"github.com/studytrack/schedule-api/internal/platform/postgres"
	"github.com/studytrack/schedule-api/internal/platform/rediscache"
	"github.com/studytrack/schedule-api/internal/service/reschedule"
	"github.com/studytrack/schedule-api/internal/store"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore    store.TaskStore
	leaveStore   store.LeaveStore
	historyStore store.ScheduleHistoryStore
	configStore  store.ScheduleConfigStore

	rescheduleService reschedule.Service

	// Event system
	eventEmitter *events.InMemoryEventEmitter
	redisClient  interface{ Close() error }

	// Midnight rollover scheduling
	rollover *rolloverScheduler
}

// newApplication creates an application instance with all dependencies
// initialized. It accepts the core dependencies that must be established
// before application wiring.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.leaveStore = postgres.NewPostgresLeaveStore(db, logger)
	app.historyStore = postgres.NewPostgresScheduleHistoryStore(db, logger)
	app.configStore = postgres.NewPostgresScheduleConfigStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Task-list cache invalidation runs through Redis when configured and
	// degrades to log-only otherwise.
	if cfg.Redis.Addr != "" {
		client := rediscache.NewClient(cfg.Redis.Addr)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		app.redisClient = client
		invalidator := rediscache.NewInvalidator(client, logger)
		app.eventEmitter.RegisterHandler(events.NewCacheInvalidationHandler(invalidator, logger))
		logger.Info("redis cache invalidation enabled", "addr", cfg.Redis.Addr)
	} else {
		app.eventEmitter.RegisterHandler(events.NewLoggingInvalidationHandler(logger))
		logger.Info("redis not configured, cache invalidation is log-only")
	}

	var err error
	app.rescheduleService, err = reschedule.NewService(
		db,
		app.taskStore,
		app.leaveStore,
		app.historyStore,
		app.configStore,
		app.eventEmitter,
		logger,
		reschedule.WithLookaheadDays(cfg.Schedule.LookaheadDays),
		reschedule.WithDedupeWindow(cfg.Schedule.DedupeWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reschedule service: %w", err)
	}

	app.rollover, err = newRolloverScheduler(
		cfg.Schedule.RolloverCron,
		app.taskStore,
		app.rescheduleService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up rollover scheduler: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the rollover scheduler and the HTTP server, handling lifecycle
// and cleanup.
func (app *application) Run(ctx context.Context) error {
	app.rollover.Start()

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.rollover != nil {
		app.rollover.Stop()
	}

	// Let in-flight cache invalidations drain before closing Redis.
	if app.eventEmitter != nil {
		app.eventEmitter.Wait()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
