// Package seed provisions demo users and lessons for classroom trials. The
// running service never writes users or lessons itself.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"classroom_service/internal/domain"
	"classroom_service/internal/repository"
)

const (
	gradeCount       = 5
	studentsPerGrade = 5
	lessonsPerGrade  = 3
)

// Run is idempotent: it does nothing when any user already exists.
func Run(ctx context.Context, users *repository.UserRepository, lessons *repository.LessonRepository, bcryptCost int) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	teachers, err := seedTeachers(ctx, users, bcryptCost)
	if err != nil {
		return err
	}
	if err := seedStudents(ctx, users, teachers); err != nil {
		return err
	}
	return seedLessons(ctx, lessons)
}

func seedTeachers(ctx context.Context, users *repository.UserRepository, bcryptCost int) ([]*domain.User, error) {
	entries := []struct {
		name     string
		username string
		grade    int
	}{
		{"Mrs. Priya Sharma", "teacher1", 1},
		{"Mr. Rajesh Patil", "teacher2", 2},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	passwordHash := string(hash)

	teachers := make([]*domain.User, 0, len(entries))
	for _, entry := range entries {
		username := entry.username
		teacher := &domain.User{
			ID:           uuid.New(),
			Name:         entry.name,
			Role:         domain.RoleTeacher,
			Grade:        entry.grade,
			Username:     &username,
			PasswordHash: &passwordHash,
			CreatedAt:    time.Now(),
		}
		if err := users.Create(ctx, teacher); err != nil {
			return nil, fmt.Errorf("failed to create teacher %s: %w", entry.username, err)
		}
		teachers = append(teachers, teacher)
	}

	return teachers, nil
}

func seedStudents(ctx context.Context, users *repository.UserRepository, teachers []*domain.User) error {
	for grade := 1; grade <= gradeCount; grade++ {
		teacherID := teachers[0].ID
		if grade > 2 {
			teacherID = teachers[1].ID
		}

		for i := 1; i <= studentsPerGrade; i++ {
			code := fmt.Sprintf("ST%d%02d", grade, i)
			student := &domain.User{
				ID:          uuid.New(),
				Name:        fmt.Sprintf("Student %d Grade %d", i, grade),
				Role:        domain.RoleStudent,
				Grade:       grade,
				StudentCode: &code,
				TeacherID:   &teacherID,
				CreatedAt:   time.Now(),
			}
			if err := users.Create(ctx, student); err != nil {
				return fmt.Errorf("failed to create student %s: %w", code, err)
			}
		}
	}

	return nil
}

func seedLessons(ctx context.Context, lessons *repository.LessonRepository) error {
	for grade := 1; grade <= gradeCount; grade++ {
		for num := 1; num <= lessonsPerGrade; num++ {
			lesson := &domain.Lesson{
				ID:          uuid.New(),
				Title:       fmt.Sprintf("Lesson %d - Grade %d", num, grade),
				Description: fmt.Sprintf("Practice lesson %d for grade %d", num, grade),
				Grade:       grade,
				Questions:   sampleQuestions(grade, num),
				CreatedAt:   time.Now(),
			}
			if err := lessons.Create(ctx, lesson); err != nil {
				return fmt.Errorf("failed to create lesson %q: %w", lesson.Title, err)
			}
		}
	}

	return nil
}

func sampleQuestions(grade, lessonNum int) []domain.Question {
	questions := make([]domain.Question, 0, 5)

	for q := 1; q <= 3; q++ {
		correct := "Answer 1"
		questions = append(questions, domain.Question{
			ID:            uuid.New(),
			Prompt:        fmt.Sprintf("Grade %d lesson %d question %d: pick the right answer", grade, lessonNum, q),
			Type:          domain.QuestionTypeMultipleChoice,
			Options:       []string{"Answer 1", "Answer 2", "Answer 3", "Answer 4"},
			CorrectAnswer: &correct,
		})
	}

	for q := 4; q <= 5; q++ {
		questions = append(questions, domain.Question{
			ID:     uuid.New(),
			Prompt: fmt.Sprintf("Grade %d lesson %d question %d: write your answer in full sentences", grade, lessonNum, q),
			Type:   domain.QuestionTypeText,
		})
	}

	return questions
}
