package domain

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID         uuid.UUID
	TeacherID  uuid.UUID
	StudentID  uuid.UUID
	LessonID   uuid.UUID
	DueDate    time.Time
	AssignedAt time.Time
	CreatedAt  time.Time
}

// AssignmentStatus is derived from submission existence at read time,
// never persisted.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// StudentAssignmentView is the composite the student list endpoint returns:
// the assignment joined with its lesson and derived status.
type StudentAssignmentView struct {
	Assignment
	Lesson      *Lesson
	Status      AssignmentStatus
	SubmittedAt *time.Time
}

// TeacherAssignmentView additionally joins the student record.
type TeacherAssignmentView struct {
	Assignment
	Student     *User
	Lesson      *Lesson
	Status      AssignmentStatus
	SubmittedAt *time.Time
}
