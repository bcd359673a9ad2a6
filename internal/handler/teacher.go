package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"classroom_service/internal/domain"
	"classroom_service/internal/service"
	"classroom_service/pkg/ctxdata"
)

// TeacherService covers the teacher-facing homework operations.
type TeacherService interface {
	ListTeacherStudents(ctx context.Context) ([]*domain.User, error)
	ListTeacherLessons(ctx context.Context) ([]*domain.Lesson, error)
	ListTeacherAssignments(ctx context.Context) ([]*domain.TeacherAssignmentView, error)
	Assign(ctx context.Context, input *service.AssignInput) (int, error)
}

type TeacherHandler struct {
	svc       TeacherService
	cache     Cache
	lessonTTL time.Duration
}

// NewTeacherHandler builds the handler. cache may be nil; lessons are
// immutable, so caching the listing never changes observed behavior.
func NewTeacherHandler(svc TeacherService, cache Cache, lessonTTL time.Duration) *TeacherHandler {
	return &TeacherHandler{svc: svc, cache: cache, lessonTTL: lessonTTL}
}

func (h *TeacherHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Group(func(r chi.Router) {
		r.Get("/students", h.ListStudents)
		r.Get("/lessons", h.ListLessons)
		r.Get("/assignments", h.ListAssignments)
		r.Post("/assign", h.Assign)
	})
}

func (h *TeacherHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.ListTeacherStudents(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, newUserResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TeacherHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var key string
	if h.cache != nil {
		if userID, ok := ctxdata.GetUserID(ctx); ok {
			key = "teacher_lessons:" + userID
			if data, ok := h.cache.Get(ctx, key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(data)
				return
			}
		}
	}

	lessons, err := h.svc.ListTeacherLessons(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]lessonResponse, 0, len(lessons))
	for _, l := range lessons {
		resp = append(resp, newLessonResponse(l))
	}

	data, err := json.Marshal(resp)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	if h.cache != nil && key != "" {
		h.cache.Set(ctx, key, data, h.lessonTTL)
	}
}

func (h *TeacherHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListTeacherAssignments(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]teacherAssignmentResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newTeacherAssignmentResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

type assignRequest struct {
	LessonID   string   `json:"lesson_id"`
	StudentIDs []string `json:"student_ids"`
	DueDate    string   `json:"due_date"`
}

type assignResponse struct {
	Message       string `json:"message"`
	AssignedCount int    `json:"assigned_count"`
}

func (h *TeacherHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid lesson_id")
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid due_date")
		return
	}

	// Unparseable ids fall under the same skip-invalid policy as unknown ones.
	studentIDs := make([]uuid.UUID, 0, len(req.StudentIDs))
	for _, raw := range req.StudentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		studentIDs = append(studentIDs, id)
	}

	count, err := h.svc.Assign(r.Context(), &service.AssignInput{
		LessonID:   lessonID,
		StudentIDs: studentIDs,
		DueDate:    dueDate,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, assignResponse{
		Message:       fmt.Sprintf("homework assigned to %d students", count),
		AssignedCount: count,
	})
}

func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported due_date format: %s", raw)
}
