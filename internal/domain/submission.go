package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission records a student's answers for one assignment. Answers map
// question id to the student's response. ScreenshotPath references the stored
// file, never the raw bytes.
type Submission struct {
	ID             uuid.UUID
	AssignmentID   uuid.UUID
	StudentID      uuid.UUID
	Answers        map[string]string
	ScreenshotPath *string
	SubmittedAt    time.Time
	CreatedAt      time.Time
}
