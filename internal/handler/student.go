package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"classroom_service/internal/domain"
	"classroom_service/internal/service"
)

// StudentService covers the student-facing homework operations.
type StudentService interface {
	ListStudentAssignments(ctx context.Context) ([]*domain.StudentAssignmentView, error)
	Submit(ctx context.Context, input *service.SubmitInput) error
}

type StudentHandler struct {
	svc StudentService
}

func NewStudentHandler(svc StudentService) *StudentHandler {
	return &StudentHandler{svc: svc}
}

func (h *StudentHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Group(func(r chi.Router) {
		r.Get("/assignments", h.ListAssignments)
		r.Post("/submit", h.Submit)
	})
}

func (h *StudentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListStudentAssignments(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]studentAssignmentResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newStudentAssignmentResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Submit accepts multipart form data: assignment_id, answers as a JSON-encoded
// string, and an optional screenshot file.
func (h *StudentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	assignmentID, err := uuid.Parse(r.FormValue("assignment_id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid assignment_id")
		return
	}

	var answers map[string]string
	if err := json.Unmarshal([]byte(r.FormValue("answers")), &answers); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid answers")
		return
	}

	input := &service.SubmitInput{
		AssignmentID: assignmentID,
		Answers:      answers,
	}

	file, header, err := r.FormFile("screenshot")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		input.Screenshot = &service.Upload{Filename: header.Filename, Content: file}
	case errors.Is(err, http.ErrMissingFile):
		// screenshot is optional
	default:
		writeErrorJSON(w, http.StatusBadRequest, "invalid screenshot")
		return
	}

	if err := h.svc.Submit(r.Context(), input); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "assignment submitted successfully"})
}
