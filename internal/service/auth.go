package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"classroom_service/internal/domain"
	"classroom_service/internal/errdefs"
	"classroom_service/internal/repository"
	"classroom_service/pkg/token"
)

// LoginResult carries the signed session token and the authenticated user.
type LoginResult struct {
	AccessToken string
	User        *domain.User
}

type AuthService struct {
	users  UserRepository
	tokens *token.Manager
}

func NewAuthService(users UserRepository, tokens *token.Manager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// StudentLogin authenticates by opaque student code. Any miss surfaces as
// ErrInvalidCredentials with no detail about what was wrong.
func (s *AuthService) StudentLogin(ctx context.Context, studentCode string) (*LoginResult, error) {
	if studentCode == "" {
		return nil, errdefs.ErrInvalidCredentials
	}

	user, err := s.users.GetStudentByCode(ctx, studentCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errdefs.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issue(user)
}

// TeacherLogin authenticates by username and password against the stored
// bcrypt hash. Username misses and password misses are indistinguishable.
func (s *AuthService) TeacherLogin(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, errdefs.ErrInvalidCredentials
	}

	user, err := s.users.GetTeacherByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errdefs.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, errdefs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, errdefs.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*LoginResult, error) {
	signed, err := s.tokens.Issue(user.ID, user.Role.String())
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: signed, User: user}, nil
}
