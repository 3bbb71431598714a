package reschedule_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/studytrack/schedule-api/internal/domain"
	"github.com/studytrack/schedule-api/internal/events"
	"github.com/studytrack/schedule-api/internal/store"
)

// MockTaskStore is a mock implementation of the store.TaskStore interface.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) FindByStudentAndDate(
	ctx context.Context,
	studentID string,
	date time.Time,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	args := m.Called(ctx, studentID, date, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) CountScheduled(
	ctx context.Context,
	studentID string,
	date time.Time,
) (int, error) {
	args := m.Called(ctx, studentID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) HasBlockingMarker(
	ctx context.Context,
	studentID string,
	date time.Time,
) (bool, error) {
	args := m.Called(ctx, studentID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) StudentsWithIncompleteTasks(
	ctx context.Context,
	date time.Time,
) ([]string, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskStore) UpdateDateAndStatus(
	ctx context.Context,
	id uuid.UUID,
	newDate time.Time,
	status domain.TaskStatus,
	originalDate time.Time,
) error {
	args := m.Called(ctx, id, newDate, status, originalDate)
	return args.Error(0)
}

func (m *MockTaskStore) WithTxTaskStore(tx *sql.Tx) store.TaskStore {
	// Tests run the executor against a nil transaction; the mock is its own
	// transactional view.
	return m
}

// MockLeaveStore is a mock implementation of the store.LeaveStore interface.
type MockLeaveStore struct {
	mock.Mock
}

func (m *MockLeaveStore) Exists(ctx context.Context, studentID string, date time.Time) (bool, error) {
	args := m.Called(ctx, studentID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaveStore) Insert(ctx context.Context, record *domain.LeaveRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLeaveStore) WithTxLeaveStore(tx *sql.Tx) store.LeaveStore {
	return m
}

// MockHistoryStore is a mock implementation of the
// store.ScheduleHistoryStore interface.
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Insert(ctx context.Context, entry *domain.ScheduleHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryStore) LastFor(
	ctx context.Context,
	studentID string,
	operationDate time.Time,
	opType domain.OperationType,
) (*domain.ScheduleHistory, error) {
	args := m.Called(ctx, studentID, operationDate, opType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleHistory), args.Error(1)
}

func (m *MockHistoryStore) ListByStudent(
	ctx context.Context,
	studentID string,
	limit int,
) ([]*domain.ScheduleHistory, error) {
	args := m.Called(ctx, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleHistory), args.Error(1)
}

func (m *MockHistoryStore) WithTxScheduleHistoryStore(tx *sql.Tx) store.ScheduleHistoryStore {
	return m
}

// MockConfigStore is a mock implementation of the store.ScheduleConfigStore
// interface.
type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) Get(ctx context.Context, studentID string) (*domain.ScheduleConfig, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleConfig), args.Error(1)
}

// recordingEmitter captures emitted cache invalidation events synchronously.
type recordingEmitter struct {
	patterns []string
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.CacheInvalidationEvent) {
	e.patterns = append(e.patterns, event.Pattern)
}
