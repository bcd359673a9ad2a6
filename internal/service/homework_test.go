package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"classroom_service/internal/domain"
	"classroom_service/internal/errdefs"
	"classroom_service/internal/repository"
	"classroom_service/pkg/ctxdata"
)

type homeworkMocks struct {
	users       *MockUserRepository
	lessons     *MockLessonRepository
	assignments *MockAssignmentRepository
	submissions *MockSubmissionRepository
	screenshots *MockScreenshotStore
	producer    *MockEventProducer
}

func newHomeworkService() (*HomeworkService, *homeworkMocks) {
	m := &homeworkMocks{
		users:       new(MockUserRepository),
		lessons:     new(MockLessonRepository),
		assignments: new(MockAssignmentRepository),
		submissions: new(MockSubmissionRepository),
		screenshots: new(MockScreenshotStore),
		producer:    new(MockEventProducer),
	}
	svc := NewHomeworkService(m.users, m.lessons, m.assignments, m.submissions, m.screenshots, m.producer)
	return svc, m
}

func ctxForUser(user *domain.User) context.Context {
	return ctxdata.WithUserID(context.Background(), user.ID.String())
}

func newTeacher(grade int) *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Teacher", Role: domain.RoleTeacher, Grade: grade}
}

func newStudent(grade int) *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Student", Role: domain.RoleStudent, Grade: grade}
}

func TestHomeworkService_Assign(t *testing.T) {
	teacher := newTeacher(3)
	lesson := &domain.Lesson{ID: uuid.New(), Grade: 3, Title: "Fractions"}
	due := time.Now().Add(48 * time.Hour)

	t.Run("skips invalid and out of grade students", func(t *testing.T) {
		svc, m := newHomeworkService()

		inGrade := newStudent(3)
		otherGrade := newStudent(4)
		missingID := uuid.New()

		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)
		m.users.On("GetByID", mock.Anything, inGrade.ID).Return(inGrade, nil)
		m.users.On("GetByID", mock.Anything, otherGrade.ID).Return(otherGrade, nil)
		m.users.On("GetByID", mock.Anything, missingID).Return(nil, repository.ErrNotFound)
		m.lessons.On("GetByID", mock.Anything, lesson.ID).Return(lesson, nil)
		m.assignments.On("CreateBatch", mock.Anything, mock.MatchedBy(func(as []*domain.Assignment) bool {
			return len(as) == 1 && as[0].StudentID == inGrade.ID && as[0].LessonID == lesson.ID
		})).Return(nil)
		m.producer.On("Send", mock.Anything, TopicAssigned, mock.Anything).Return(nil)

		count, err := svc.Assign(ctxForUser(teacher), &AssignInput{
			LessonID:   lesson.ID,
			StudentIDs: []uuid.UUID{inGrade.ID, otherGrade.ID, missingID},
			DueDate:    due,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		m.assignments.AssertExpectations(t)
	})

	t.Run("lesson outside teacher grade", func(t *testing.T) {
		svc, m := newHomeworkService()

		otherLesson := &domain.Lesson{ID: uuid.New(), Grade: 5, Title: "Algebra"}
		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)
		m.lessons.On("GetByID", mock.Anything, otherLesson.ID).Return(otherLesson, nil)

		_, err := svc.Assign(ctxForUser(teacher), &AssignInput{LessonID: otherLesson.ID, DueDate: due})

		assert.ErrorIs(t, err, errdefs.ErrLessonNotFound)
		m.assignments.AssertNotCalled(t, "CreateBatch")
	})

	t.Run("lesson missing", func(t *testing.T) {
		svc, m := newHomeworkService()

		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)
		m.lessons.On("GetByID", mock.Anything, lesson.ID).Return(nil, repository.ErrNotFound)

		_, err := svc.Assign(ctxForUser(teacher), &AssignInput{LessonID: lesson.ID, DueDate: due})

		assert.ErrorIs(t, err, errdefs.ErrLessonNotFound)
	})

	t.Run("student caller rejected", func(t *testing.T) {
		svc, m := newHomeworkService()

		student := newStudent(3)
		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)

		_, err := svc.Assign(ctxForUser(student), &AssignInput{LessonID: lesson.ID, DueDate: due})

		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("missing identity", func(t *testing.T) {
		svc, _ := newHomeworkService()

		_, err := svc.Assign(context.Background(), &AssignInput{LessonID: lesson.ID, DueDate: due})

		assert.ErrorIs(t, err, errdefs.ErrInvalidToken)
	})
}

func TestHomeworkService_Submit(t *testing.T) {
	student := newStudent(2)
	assignment := &domain.Assignment{
		ID:        uuid.New(),
		TeacherID: uuid.New(),
		StudentID: student.ID,
		LessonID:  uuid.New(),
	}
	answers := map[string]string{"q1": "4"}

	t.Run("success without screenshot", func(t *testing.T) {
		svc, m := newHomeworkService()

		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, assignment.ID).Return(assignment, nil)
		m.submissions.On("GetByAssignment", mock.Anything, assignment.ID).Return(nil, repository.ErrNotFound)
		m.submissions.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Submission) bool {
			return s.AssignmentID == assignment.ID && s.StudentID == student.ID && s.ScreenshotPath == nil
		})).Return(nil)
		m.producer.On("Send", mock.Anything, TopicSubmitted, mock.Anything).Return(nil)

		err := svc.Submit(ctxForUser(student), &SubmitInput{AssignmentID: assignment.ID, Answers: answers})

		require.NoError(t, err)
		m.submissions.AssertExpectations(t)
		m.screenshots.AssertNotCalled(t, "Save")
	})

	t.Run("success with screenshot", func(t *testing.T) {
		svc, m := newHomeworkService()

		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, assignment.ID).Return(assignment, nil)
		m.submissions.On("GetByAssignment", mock.Anything, assignment.ID).Return(nil, repository.ErrNotFound)
		m.screenshots.On("Save", mock.Anything, assignment.ID, "work.png", mock.Anything).Return("uploads/saved.png", nil)
		m.submissions.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Submission) bool {
			return s.ScreenshotPath != nil && *s.ScreenshotPath == "uploads/saved.png"
		})).Return(nil)
		m.producer.On("Send", mock.Anything, TopicSubmitted, mock.Anything).Return(nil)

		err := svc.Submit(ctxForUser(student), &SubmitInput{
			AssignmentID: assignment.ID,
			Answers:      answers,
			Screenshot:   &Upload{Filename: "work.png", Content: strings.NewReader("png-bytes")},
		})

		require.NoError(t, err)
		m.screenshots.AssertExpectations(t)
	})

	t.Run("already submitted", func(t *testing.T) {
		svc, m := newHomeworkService()

		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, assignment.ID).Return(assignment, nil)
		m.submissions.On("GetByAssignment", mock.Anything, assignment.ID).
			Return(&domain.Submission{ID: uuid.New(), AssignmentID: assignment.ID}, nil)

		err := svc.Submit(ctxForUser(student), &SubmitInput{AssignmentID: assignment.ID, Answers: answers})

		assert.ErrorIs(t, err, errdefs.ErrAlreadySubmitted)
		m.submissions.AssertNotCalled(t, "Create")
	})

	t.Run("lost insert race", func(t *testing.T) {
		svc, m := newHomeworkService()

		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, assignment.ID).Return(assignment, nil)
		m.submissions.On("GetByAssignment", mock.Anything, assignment.ID).Return(nil, repository.ErrNotFound)
		m.submissions.On("Create", mock.Anything, mock.Anything).Return(errdefs.ErrAlreadySubmitted)

		err := svc.Submit(ctxForUser(student), &SubmitInput{AssignmentID: assignment.ID, Answers: answers})

		assert.ErrorIs(t, err, errdefs.ErrAlreadySubmitted)
	})

	t.Run("foreign assignment indistinguishable from missing", func(t *testing.T) {
		svc, m := newHomeworkService()

		other := &domain.Assignment{ID: uuid.New(), StudentID: uuid.New()}
		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, other.ID).Return(other, nil)

		err := svc.Submit(ctxForUser(student), &SubmitInput{AssignmentID: other.ID, Answers: answers})

		assert.ErrorIs(t, err, errdefs.ErrAssignmentNotFound)
	})

	t.Run("missing assignment", func(t *testing.T) {
		svc, m := newHomeworkService()

		id := uuid.New()
		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("GetByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

		err := svc.Submit(ctxForUser(student), &SubmitInput{AssignmentID: id, Answers: answers})

		assert.ErrorIs(t, err, errdefs.ErrAssignmentNotFound)
	})

	t.Run("teacher caller rejected", func(t *testing.T) {
		svc, m := newHomeworkService()

		teacher := newTeacher(2)
		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)

		err := svc.Submit(ctxForUser(teacher), &SubmitInput{AssignmentID: assignment.ID, Answers: answers})

		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})
}

func TestHomeworkService_Listings(t *testing.T) {
	t.Run("student assignments", func(t *testing.T) {
		svc, m := newHomeworkService()

		student := newStudent(1)
		views := []*domain.StudentAssignmentView{
			{Assignment: domain.Assignment{ID: uuid.New(), StudentID: student.ID}, Status: domain.AssignmentStatusPending},
		}
		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)
		m.assignments.On("ListViewsByStudent", mock.Anything, student.ID).Return(views, nil)

		got, err := svc.ListStudentAssignments(ctxForUser(student))

		require.NoError(t, err)
		assert.Equal(t, views, got)
	})

	t.Run("teacher students scoped to grade", func(t *testing.T) {
		svc, m := newHomeworkService()

		teacher := newTeacher(2)
		students := []*domain.User{newStudent(2), newStudent(2)}
		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)
		m.users.On("ListStudentsByGrade", mock.Anything, 2).Return(students, nil)

		got, err := svc.ListTeacherStudents(ctxForUser(teacher))

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("teacher lessons scoped to grade", func(t *testing.T) {
		svc, m := newHomeworkService()

		teacher := newTeacher(4)
		lessons := []*domain.Lesson{{ID: uuid.New(), Grade: 4, Title: "Geometry"}}
		m.users.On("GetByID", mock.Anything, teacher.ID).Return(teacher, nil)
		m.lessons.On("ListByGrade", mock.Anything, 4).Return(lessons, nil)

		got, err := svc.ListTeacherLessons(ctxForUser(teacher))

		require.NoError(t, err)
		assert.Equal(t, lessons, got)
	})

	t.Run("student denied teacher listing", func(t *testing.T) {
		svc, m := newHomeworkService()

		student := newStudent(1)
		m.users.On("GetByID", mock.Anything, student.ID).Return(student, nil)

		_, err := svc.ListTeacherAssignments(ctxForUser(student))

		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})
}
