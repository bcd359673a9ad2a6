package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"classroom_service/internal/domain"
)

type LessonRepository struct {
	db *sql.DB
}

func NewLessonRepository(db *sql.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) Create(ctx context.Context, lesson *domain.Lesson) error {
	// Malformed lessons are rejected here, not propagated to readers.
	if err := lesson.Validate(); err != nil {
		return err
	}

	questions, err := json.Marshal(lesson.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO lessons (id, title, description, grade, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.Title,
		lesson.Description,
		lesson.Grade,
		questions,
		lesson.CreatedAt,
	)
	if err != nil {
		return handleError(err)
	}

	return nil
}

func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	query := `
		SELECT id, title, description, grade, questions, created_at
		FROM lessons
		WHERE id = $1
	`

	var lesson domain.Lesson
	var questions []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Description,
		&lesson.Grade,
		&questions,
		&lesson.CreatedAt,
	)
	if err != nil {
		return nil, handleError(err)
	}

	if err := json.Unmarshal(questions, &lesson.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions for lesson %s: %w", lesson.ID, err)
	}

	return &lesson, nil
}

func (r *LessonRepository) ListByGrade(ctx context.Context, grade int) ([]*domain.Lesson, error) {
	query := `
		SELECT id, title, description, grade, questions, created_at
		FROM lessons
		WHERE grade = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, grade)
	if err != nil {
		return nil, handleError(err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []*domain.Lesson
	for rows.Next() {
		var lesson domain.Lesson
		var questions []byte
		if err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.Description,
			&lesson.Grade,
			&questions,
			&lesson.CreatedAt,
		); err != nil {
			return nil, handleError(err)
		}
		if err := json.Unmarshal(questions, &lesson.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions for lesson %s: %w", lesson.ID, err)
		}
		lessons = append(lessons, &lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return lessons, nil
}
