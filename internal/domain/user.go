package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User covers both roles. Students carry a login code and a reference to their
// teacher; teachers carry a username and a bcrypt password hash.
type User struct {
	ID           uuid.UUID
	Name         string
	Role         Role
	Grade        int
	StudentCode  *string
	Username     *string
	PasswordHash *string
	TeacherID    *uuid.UUID
	CreatedAt    time.Time
}
