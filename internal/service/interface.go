package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"classroom_service/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetStudentByCode(ctx context.Context, code string) (*domain.User, error)
	GetTeacherByUsername(ctx context.Context, username string) (*domain.User, error)
	ListStudentsByGrade(ctx context.Context, grade int) ([]*domain.User, error)
}

type LessonRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)
	ListByGrade(ctx context.Context, grade int) ([]*domain.Lesson, error)
}

type AssignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []*domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	ListViewsByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentAssignmentView, error)
	ListViewsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.TeacherAssignmentView, error)
	FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	GetByAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error)
}

// ScreenshotStore persists an uploaded file and returns the stored path.
type ScreenshotStore interface {
	Save(ctx context.Context, assignmentID uuid.UUID, filename string, src io.Reader) (string, error)
}

// EventProducer publishes homework events. A nil producer disables publishing.
type EventProducer interface {
	Send(ctx context.Context, topic string, message interface{}) error
}
