package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"classroom_service/internal/domain"
	"classroom_service/internal/service"
	"classroom_service/pkg/logging"
)

type mockAssignmentFinder struct {
	mock.Mock
}

func (m *mockAssignmentFinder) CreateBatch(ctx context.Context, assignments []*domain.Assignment) error {
	args := m.Called(ctx, assignments)
	return args.Error(0)
}

func (m *mockAssignmentFinder) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *mockAssignmentFinder) ListViewsByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentAssignmentView, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentAssignmentView), args.Error(1)
}

func (m *mockAssignmentFinder) ListViewsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.TeacherAssignmentView, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TeacherAssignmentView), args.Error(1)
}

func (m *mockAssignmentFinder) FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Assignment), args.Error(1)
}

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Send(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func TestReminderWorker_ProcessReminders(t *testing.T) {
	logger := logging.New(zap.NewNop())
	window := 24 * time.Hour

	t.Run("publishes one reminder per due assignment", func(t *testing.T) {
		due := []*domain.Assignment{
			{ID: uuid.New(), StudentID: uuid.New(), TeacherID: uuid.New(), LessonID: uuid.New()},
			{ID: uuid.New(), StudentID: uuid.New(), TeacherID: uuid.New(), LessonID: uuid.New()},
		}

		assignments := new(mockAssignmentFinder)
		assignments.On("FindDueSoon", mock.Anything, window).Return(due, nil)
		producer := new(mockProducer)
		producer.On("Send", mock.Anything, service.TopicReminder, mock.Anything).Return(nil).Twice()

		worker := NewReminderWorker(assignments, producer, logger, time.Minute, window)
		worker.processReminders(context.Background())

		producer.AssertExpectations(t)
	})

	t.Run("send failure does not stop the batch", func(t *testing.T) {
		due := []*domain.Assignment{
			{ID: uuid.New()},
			{ID: uuid.New()},
		}

		assignments := new(mockAssignmentFinder)
		assignments.On("FindDueSoon", mock.Anything, window).Return(due, nil)
		producer := new(mockProducer)
		producer.On("Send", mock.Anything, service.TopicReminder, mock.Anything).
			Return(errors.New("broker down")).Twice()

		worker := NewReminderWorker(assignments, producer, logger, time.Minute, window)
		worker.processReminders(context.Background())

		producer.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("lookup failure publishes nothing", func(t *testing.T) {
		assignments := new(mockAssignmentFinder)
		assignments.On("FindDueSoon", mock.Anything, window).Return(nil, errors.New("db down"))
		producer := new(mockProducer)

		worker := NewReminderWorker(assignments, producer, logger, time.Minute, window)
		worker.processReminders(context.Background())

		producer.AssertNotCalled(t, "Send")
	})
}

func TestReminderWorker_StopsOnContextCancel(t *testing.T) {
	assignments := new(mockAssignmentFinder)
	producer := new(mockProducer)
	worker := NewReminderWorker(assignments, producer, logging.New(zap.NewNop()), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	assert.Empty(t, producer.Calls)
}
