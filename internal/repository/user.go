package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"classroom_service/internal/domain"
)

const userColumns = `id, name, role, grade, student_code, username, password_hash, teacher_id, created_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if !user.Role.IsValid() {
		return fmt.Errorf("invalid role %q", user.Role)
	}

	query := `
		INSERT INTO users (id, name, role, grade, student_code, username, password_hash, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Role,
		user.Grade,
		user.StudentCode,
		user.Username,
		user.PasswordHash,
		user.TeacherID,
		user.CreatedAt,
	)
	if err != nil {
		return handleError(err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetStudentByCode(ctx context.Context, code string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE student_code = $1 AND role = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code, domain.RoleStudent))
}

func (r *UserRepository) GetTeacherByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND role = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username, domain.RoleTeacher))
}

func (r *UserRepository) ListStudentsByGrade(ctx context.Context, grade int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND grade = $2 ORDER BY student_code`

	rows, err := r.db.QueryContext(ctx, query, domain.RoleStudent, grade)
	if err != nil {
		return nil, handleError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, handleError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Grade,
		&user.StudentCode,
		&user.Username,
		&user.PasswordHash,
		&user.TeacherID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, handleError(err)
	}
	return &user, nil
}
