package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"classroom_service/internal/domain"
	"classroom_service/internal/errdefs"
	"classroom_service/pkg/logging"
)

// Cache fronts cacheable read endpoints. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

func mapErr(err error) int {
	switch {
	case errors.Is(err, errdefs.ErrInvalidCredentials),
		errors.Is(err, errdefs.ErrInvalidToken),
		errors.Is(err, errdefs.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errdefs.ErrLessonNotFound),
		errors.Is(err, errdefs.ErrAssignmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, errdefs.ErrAlreadySubmitted),
		errors.Is(err, errdefs.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	_, _ = w.Write(resp)
}

// writeDomainError maps the error taxonomy to a status. Anything outside the
// taxonomy is a server fault: logged, answered generically.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := mapErr(err)
	if statusCode == http.StatusInternalServerError {
		if logger, ok := logging.GetFromContext(r.Context()); ok {
			logger.Error(r.Context(), "request failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		writeErrorJSON(w, statusCode, http.StatusText(statusCode))
		return
	}
	writeErrorJSON(w, statusCode, err.Error())
}

// ── response shapes ─────────────────────────────────────────────────
//
// Responses are assembled from explicit structs so credential material and
// storage-only fields never leak.

type userResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Grade       int     `json:"grade"`
	StudentCode *string `json:"student_code,omitempty"`
	Username    *string `json:"username,omitempty"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Name:        u.Name,
		Role:        u.Role.String(),
		Grade:       u.Grade,
		StudentCode: u.StudentCode,
		Username:    u.Username,
	}
}

type lessonResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Grade       int               `json:"grade"`
	Questions   []domain.Question `json:"questions"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newLessonResponse(l *domain.Lesson) lessonResponse {
	return lessonResponse{
		ID:          l.ID.String(),
		Title:       l.Title,
		Description: l.Description,
		Grade:       l.Grade,
		Questions:   l.Questions,
		CreatedAt:   l.CreatedAt,
	}
}

type studentAssignmentResponse struct {
	ID          string          `json:"id"`
	TeacherID   string          `json:"teacher_id"`
	LessonID    string          `json:"lesson_id"`
	DueDate     time.Time       `json:"due_date"`
	AssignedAt  time.Time       `json:"assigned_at"`
	Lesson      *lessonResponse `json:"lesson,omitempty"`
	Status      string          `json:"status"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
}

func newStudentAssignmentResponse(v *domain.StudentAssignmentView) studentAssignmentResponse {
	resp := studentAssignmentResponse{
		ID:          v.ID.String(),
		TeacherID:   v.TeacherID.String(),
		LessonID:    v.LessonID.String(),
		DueDate:     v.DueDate,
		AssignedAt:  v.AssignedAt,
		Status:      string(v.Status),
		SubmittedAt: v.SubmittedAt,
	}
	if v.Lesson != nil {
		lesson := newLessonResponse(v.Lesson)
		resp.Lesson = &lesson
	}
	return resp
}

type teacherAssignmentResponse struct {
	ID          string          `json:"id"`
	StudentID   string          `json:"student_id"`
	LessonID    string          `json:"lesson_id"`
	DueDate     time.Time       `json:"due_date"`
	AssignedAt  time.Time       `json:"assigned_at"`
	Student     *userResponse   `json:"student,omitempty"`
	Lesson      *lessonResponse `json:"lesson,omitempty"`
	Status      string          `json:"status"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
}

func newTeacherAssignmentResponse(v *domain.TeacherAssignmentView) teacherAssignmentResponse {
	resp := teacherAssignmentResponse{
		ID:          v.ID.String(),
		StudentID:   v.StudentID.String(),
		LessonID:    v.LessonID.String(),
		DueDate:     v.DueDate,
		AssignedAt:  v.AssignedAt,
		Status:      string(v.Status),
		SubmittedAt: v.SubmittedAt,
	}
	if v.Student != nil {
		student := newUserResponse(v.Student)
		resp.Student = &student
	}
	if v.Lesson != nil {
		lesson := newLessonResponse(v.Lesson)
		resp.Lesson = &lesson
	}
	return resp
}
