package errdefs

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAlreadySubmitted   = errors.New("assignment already submitted")
	ErrValidation         = errors.New("validation error")
)
