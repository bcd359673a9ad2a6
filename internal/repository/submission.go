package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classroom_service/internal/domain"
	"classroom_service/internal/errdefs"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists the submission. The UNIQUE constraint on assignment_id turns
// a concurrent duplicate into ErrAlreadySubmitted instead of a second record.
func (r *SubmissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	answers, err := json.Marshal(submission.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	query := `
		INSERT INTO submissions (id, assignment_id, student_id, answers, screenshot_path, submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		submission.AssignmentID,
		submission.StudentID,
		answers,
		submission.ScreenshotPath,
		submission.SubmittedAt,
		time.Now(),
	)
	if err != nil {
		err = handleError(err)
		if errors.Is(err, ErrUniqueViolation) {
			return errdefs.ErrAlreadySubmitted
		}
		return err
	}

	submission.ID = id
	return nil
}

func (r *SubmissionRepository) GetByAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error) {
	query := `
		SELECT id, assignment_id, student_id, answers, screenshot_path, submitted_at, created_at
		FROM submissions
		WHERE assignment_id = $1
	`

	var submission domain.Submission
	var answers []byte
	err := r.db.QueryRowContext(ctx, query, assignmentID).Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&answers,
		&submission.ScreenshotPath,
		&submission.SubmittedAt,
		&submission.CreatedAt,
	)
	if err != nil {
		return nil, handleError(err)
	}

	if err := json.Unmarshal(answers, &submission.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers for submission %s: %w", submission.ID, err)
	}

	return &submission, nil
}
