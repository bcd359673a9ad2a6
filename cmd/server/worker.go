package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classroom_service/internal/service"
	"classroom_service/pkg/logging"
)

// ReminderWorker periodically publishes a reminder event for every assignment
// that is due within the window and still has no submission.
type ReminderWorker struct {
	assignments service.AssignmentRepository
	producer    service.EventProducer
	logger      *logging.Logger
	interval    time.Duration
	window      time.Duration
}

func NewReminderWorker(
	assignments service.AssignmentRepository,
	producer service.EventProducer,
	logger *logging.Logger,
	interval time.Duration,
	window time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		assignments: assignments,
		producer:    producer,
		logger:      logger,
		interval:    interval,
		window:      window,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "reminder worker stopped")
			return
		case <-ticker.C:
			w.processReminders(ctx)
		}
	}
}

func (w *ReminderWorker) processReminders(ctx context.Context) {
	assignments, err := w.assignments.FindDueSoon(ctx, w.window)
	if err != nil {
		w.logger.Error(ctx, "failed to find assignments due soon", zap.Error(err))
		return
	}

	for _, assignment := range assignments {
		message := map[string]interface{}{
			"assignment_id": assignment.ID,
			"student_id":    assignment.StudentID,
			"teacher_id":    assignment.TeacherID,
			"lesson_id":     assignment.LessonID,
			"due_date":      assignment.DueDate,
		}

		if err := w.producer.Send(ctx, service.TopicReminder, message); err != nil {
			w.logger.Error(ctx, "failed to send reminder",
				zap.String("assignment_id", assignment.ID.String()),
				zap.Error(err),
			)
			continue
		}
	}
}
