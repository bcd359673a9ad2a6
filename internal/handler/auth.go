package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"classroom_service/internal/service"
)

// AuthService issues session tokens for both roles.
type AuthService interface {
	StudentLogin(ctx context.Context, studentCode string) (*service.LoginResult, error)
	TeacherLogin(ctx context.Context, username, password string) (*service.LoginResult, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/student-login", h.StudentLogin)
	r.Post("/teacher-login", h.TeacherLogin)
}

type studentLoginRequest struct {
	StudentCode string `json:"student_code"`
}

type teacherLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func (h *AuthHandler) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.StudentLogin(r.Context(), req.StudentCode)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        newUserResponse(result.User),
	})
}

func (h *AuthHandler) TeacherLogin(w http.ResponseWriter, r *http.Request) {
	var req teacherLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.TeacherLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        newUserResponse(result.User),
	})
}
