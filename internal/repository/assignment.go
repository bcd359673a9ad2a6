package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classroom_service/internal/domain"
)

type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CreateBatch inserts one assignment record per entry inside a single
// transaction and fills in generated IDs.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []*domain.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO assignments (id, teacher_id, student_id, lesson_id, due_date, assigned_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, a := range assignments {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query,
			id,
			a.TeacherID,
			a.StudentID,
			a.LessonID,
			a.DueDate,
			a.AssignedAt,
			time.Now(),
		); err != nil {
			return handleError(err)
		}

		a.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `
		SELECT id, teacher_id, student_id, lesson_id, due_date, assigned_at, created_at
		FROM assignments
		WHERE id = $1
	`

	var a domain.Assignment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.TeacherID,
		&a.StudentID,
		&a.LessonID,
		&a.DueDate,
		&a.AssignedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, handleError(err)
	}

	return &a, nil
}

const viewColumns = `
	a.id, a.teacher_id, a.student_id, a.lesson_id, a.due_date, a.assigned_at, a.created_at,
	l.id, l.title, l.description, l.grade, l.questions, l.created_at,
	s.submitted_at
`

// ListViewsByStudent returns the student's assignments joined with their
// lesson and the derived completion status in one query. There are no foreign
// keys, so a dangling lesson reference yields a view without a lesson.
func (r *AssignmentRepository) ListViewsByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentAssignmentView, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM assignments a
		LEFT JOIN lessons l ON l.id = a.lesson_id
		LEFT JOIN submissions s ON s.assignment_id = a.id
		WHERE a.student_id = $1
		ORDER BY a.assigned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, handleError(err)
	}
	defer func() { _ = rows.Close() }()

	var views []*domain.StudentAssignmentView
	for rows.Next() {
		var v domain.StudentAssignmentView
		lesson, submittedAt, err := scanAssignmentRow(rows, &v.Assignment)
		if err != nil {
			return nil, err
		}
		v.Lesson = lesson
		v.SubmittedAt = submittedAt
		v.Status = statusFor(submittedAt)
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return views, nil
}

// ListViewsByTeacher additionally joins the student record for each
// assignment the teacher issued.
func (r *AssignmentRepository) ListViewsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.TeacherAssignmentView, error) {
	query := `
		SELECT ` + viewColumns + `,
			u.id, u.name, u.role, u.grade, u.student_code, u.created_at
		FROM assignments a
		LEFT JOIN lessons l ON l.id = a.lesson_id
		LEFT JOIN submissions s ON s.assignment_id = a.id
		LEFT JOIN users u ON u.id = a.student_id
		WHERE a.teacher_id = $1
		ORDER BY a.assigned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, handleError(err)
	}
	defer func() { _ = rows.Close() }()

	var views []*domain.TeacherAssignmentView
	for rows.Next() {
		var v domain.TeacherAssignmentView
		var (
			lessonID    *uuid.UUID
			title       *string
			description *string
			grade       *int
			questions   []byte
			lessonAt    *time.Time
			submittedAt *time.Time

			studentID   *uuid.UUID
			studentName *string
			studentRole *string
			stuGrade    *int
			studentCode *string
			studentAt   *time.Time
		)

		if err := rows.Scan(
			&v.ID, &v.TeacherID, &v.StudentID, &v.LessonID, &v.DueDate, &v.AssignedAt, &v.CreatedAt,
			&lessonID, &title, &description, &grade, &questions, &lessonAt,
			&submittedAt,
			&studentID, &studentName, &studentRole, &stuGrade, &studentCode, &studentAt,
		); err != nil {
			return nil, handleError(err)
		}

		if lessonID != nil {
			lesson, err := buildLesson(*lessonID, *title, *description, *grade, questions, *lessonAt)
			if err != nil {
				return nil, err
			}
			v.Lesson = lesson
		}
		if studentID != nil {
			v.Student = &domain.User{
				ID:          *studentID,
				Name:        *studentName,
				Role:        domain.Role(*studentRole),
				Grade:       *stuGrade,
				StudentCode: studentCode,
				CreatedAt:   *studentAt,
			}
		}
		v.SubmittedAt = submittedAt
		v.Status = statusFor(submittedAt)
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return views, nil
}

// FindDueSoon returns assignments due within the window that have no
// submission yet. Used by the reminder worker.
func (r *AssignmentRepository) FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	query := `
		SELECT a.id, a.teacher_id, a.student_id, a.lesson_id, a.due_date, a.assigned_at, a.created_at
		FROM assignments a
		LEFT JOIN submissions s ON s.assignment_id = a.id
		WHERE a.due_date BETWEEN NOW() AND $1 AND s.id IS NULL
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now().Add(window))
	if err != nil {
		return nil, handleError(err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(
			&a.ID, &a.TeacherID, &a.StudentID, &a.LessonID, &a.DueDate, &a.AssignedAt, &a.CreatedAt,
		); err != nil {
			return nil, handleError(err)
		}
		assignments = append(assignments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return assignments, nil
}

func scanAssignmentRow(rows *sql.Rows, a *domain.Assignment) (*domain.Lesson, *time.Time, error) {
	var (
		lessonID    *uuid.UUID
		title       *string
		description *string
		grade       *int
		questions   []byte
		lessonAt    *time.Time
		submittedAt *time.Time
	)

	if err := rows.Scan(
		&a.ID, &a.TeacherID, &a.StudentID, &a.LessonID, &a.DueDate, &a.AssignedAt, &a.CreatedAt,
		&lessonID, &title, &description, &grade, &questions, &lessonAt,
		&submittedAt,
	); err != nil {
		return nil, nil, handleError(err)
	}

	if lessonID == nil {
		return nil, submittedAt, nil
	}

	lesson, err := buildLesson(*lessonID, *title, *description, *grade, questions, *lessonAt)
	if err != nil {
		return nil, nil, err
	}
	return lesson, submittedAt, nil
}

func buildLesson(id uuid.UUID, title, description string, grade int, questions []byte, createdAt time.Time) (*domain.Lesson, error) {
	lesson := &domain.Lesson{
		ID:          id,
		Title:       title,
		Description: description,
		Grade:       grade,
		CreatedAt:   createdAt,
	}
	if err := json.Unmarshal(questions, &lesson.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions for lesson %s: %w", id, err)
	}
	return lesson, nil
}

func statusFor(submittedAt *time.Time) domain.AssignmentStatus {
	if submittedAt != nil {
		return domain.AssignmentStatusCompleted
	}
	return domain.AssignmentStatusPending
}
