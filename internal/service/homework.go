package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classroom_service/internal/domain"
	"classroom_service/internal/errdefs"
	"classroom_service/internal/repository"
	"classroom_service/pkg/ctxdata"
	"classroom_service/pkg/logging"
)

// Kafka topics for homework events.
const (
	TopicAssigned  = "homework.assigned"
	TopicSubmitted = "homework.submitted"
	TopicReminder  = "homework.reminder"
)

type AssignInput struct {
	LessonID   uuid.UUID
	StudentIDs []uuid.UUID
	DueDate    time.Time
}

type Upload struct {
	Filename string
	Content  io.Reader
}

type SubmitInput struct {
	AssignmentID uuid.UUID
	Answers      map[string]string
	Screenshot   *Upload
}

type HomeworkService struct {
	users       UserRepository
	lessons     LessonRepository
	assignments AssignmentRepository
	submissions SubmissionRepository
	screenshots ScreenshotStore
	producer    EventProducer
}

func NewHomeworkService(
	users UserRepository,
	lessons LessonRepository,
	assignments AssignmentRepository,
	submissions SubmissionRepository,
	screenshots ScreenshotStore,
	producer EventProducer,
) *HomeworkService {
	return &HomeworkService{
		users:       users,
		lessons:     lessons,
		assignments: assignments,
		submissions: submissions,
		screenshots: screenshots,
		producer:    producer,
	}
}

// ListStudentAssignments returns the calling student's assignments with
// lesson and derived status.
func (s *HomeworkService) ListStudentAssignments(ctx context.Context) ([]*domain.StudentAssignmentView, error) {
	student, err := s.currentUser(ctx, domain.RoleStudent)
	if err != nil {
		return nil, err
	}
	return s.assignments.ListViewsByStudent(ctx, student.ID)
}

// ListTeacherStudents returns the students in the calling teacher's grade.
func (s *HomeworkService) ListTeacherStudents(ctx context.Context) ([]*domain.User, error) {
	teacher, err := s.currentUser(ctx, domain.RoleTeacher)
	if err != nil {
		return nil, err
	}
	return s.users.ListStudentsByGrade(ctx, teacher.Grade)
}

// ListTeacherLessons returns the lessons for the calling teacher's grade.
func (s *HomeworkService) ListTeacherLessons(ctx context.Context) ([]*domain.Lesson, error) {
	teacher, err := s.currentUser(ctx, domain.RoleTeacher)
	if err != nil {
		return nil, err
	}
	return s.lessons.ListByGrade(ctx, teacher.Grade)
}

// ListTeacherAssignments returns the assignments the calling teacher issued,
// joined with student, lesson and status.
func (s *HomeworkService) ListTeacherAssignments(ctx context.Context) ([]*domain.TeacherAssignmentView, error) {
	teacher, err := s.currentUser(ctx, domain.RoleTeacher)
	if err != nil {
		return nil, err
	}
	return s.assignments.ListViewsByTeacher(ctx, teacher.ID)
}

// Assign creates one assignment per requested student that exists in the
// teacher's grade. Invalid ids are skipped without error; the caller sees
// only the created count. Duplicate assignments for the same student and
// lesson are permitted.
func (s *HomeworkService) Assign(ctx context.Context, input *AssignInput) (int, error) {
	teacher, err := s.currentUser(ctx, domain.RoleTeacher)
	if err != nil {
		return 0, err
	}

	lesson, err := s.lessons.GetByID(ctx, input.LessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, errdefs.ErrLessonNotFound
		}
		return 0, err
	}
	if lesson.Grade != teacher.Grade {
		return 0, errdefs.ErrLessonNotFound
	}

	now := time.Now()
	var assignments []*domain.Assignment
	for _, studentID := range input.StudentIDs {
		student, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return 0, err
		}
		if student.Role != domain.RoleStudent || student.Grade != teacher.Grade {
			continue
		}

		assignments = append(assignments, &domain.Assignment{
			TeacherID:  teacher.ID,
			StudentID:  student.ID,
			LessonID:   lesson.ID,
			DueDate:    input.DueDate,
			AssignedAt: now,
		})
	}

	if err := s.assignments.CreateBatch(ctx, assignments); err != nil {
		return 0, err
	}

	for _, a := range assignments {
		s.publish(ctx, TopicAssigned, map[string]interface{}{
			"assignment_id": a.ID,
			"teacher_id":    a.TeacherID,
			"student_id":    a.StudentID,
			"lesson_id":     a.LessonID,
			"due_date":      a.DueDate,
		})
	}

	return len(assignments), nil
}

// Submit records the calling student's answers for an assignment. An
// assignment that does not exist and one that belongs to another student are
// indistinguishable to the caller.
func (s *HomeworkService) Submit(ctx context.Context, input *SubmitInput) error {
	student, err := s.currentUser(ctx, domain.RoleStudent)
	if err != nil {
		return err
	}

	assignment, err := s.assignments.GetByID(ctx, input.AssignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errdefs.ErrAssignmentNotFound
		}
		return err
	}
	if assignment.StudentID != student.ID {
		return errdefs.ErrAssignmentNotFound
	}

	if _, err := s.submissions.GetByAssignment(ctx, assignment.ID); err == nil {
		return errdefs.ErrAlreadySubmitted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var screenshotPath *string
	if input.Screenshot != nil {
		path, err := s.screenshots.Save(ctx, assignment.ID, input.Screenshot.Filename, input.Screenshot.Content)
		if err != nil {
			return err
		}
		screenshotPath = &path
	}

	submission := &domain.Submission{
		AssignmentID:   assignment.ID,
		StudentID:      student.ID,
		Answers:        input.Answers,
		ScreenshotPath: screenshotPath,
		SubmittedAt:    time.Now(),
	}

	// The race between the existence check above and this insert is closed by
	// the UNIQUE constraint: the losing writer gets ErrAlreadySubmitted.
	if err := s.submissions.Create(ctx, submission); err != nil {
		return err
	}

	s.publish(ctx, TopicSubmitted, map[string]interface{}{
		"assignment_id": assignment.ID,
		"student_id":    student.ID,
		"submitted_at":  submission.SubmittedAt,
	})

	return nil
}

// currentUser resolves the authenticated identity from the context and
// enforces the required role. Every protected operation goes through here.
func (s *HomeworkService) currentUser(ctx context.Context, required domain.Role) (*domain.User, error) {
	id, ok := ctxdata.GetUserID(ctx)
	if !ok {
		return nil, errdefs.ErrInvalidToken
	}

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, errdefs.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errdefs.ErrUserNotFound
		}
		return nil, err
	}

	if user.Role != required {
		return nil, errdefs.ErrPermissionDenied
	}

	return user, nil
}

// publish is best effort: a broker failure never fails the request.
func (s *HomeworkService) publish(ctx context.Context, topic string, message interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Send(ctx, topic, message); err != nil {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "failed to publish event", zap.String("topic", topic), zap.Error(err))
		}
	}
}
