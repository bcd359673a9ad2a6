package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classroom_service/internal/domain"
	"classroom_service/internal/repository"
	"classroom_service/pkg/ctxdata"
	"classroom_service/pkg/logging"
	"classroom_service/pkg/token"
)

// UserLoader resolves a token subject back to a stored user.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// NewAuthMiddleware verifies the Bearer token, resolves its subject to a
// stored user, and stashes the identity in the request context. Missing or
// invalid tokens and vanished users all answer 401.
func NewAuthMiddleware(tokens *token.Manager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if header == "" || !ok {
				if logger, lok := logging.GetFromContext(ctx); lok {
					logger.Info(ctx, "no bearer token", zap.String("path", r.URL.Path))
				}
				writeAuthError(w, http.StatusUnauthorized, "invalid authentication credentials")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid authentication credentials")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid authentication credentials")
				return
			}

			user, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					writeAuthError(w, http.StatusUnauthorized, "user not found")
					return
				}
				if logger, lok := logging.GetFromContext(ctx); lok {
					logger.Error(ctx, "failed to resolve token subject", zap.Error(err))
				}
				writeAuthError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}

			ctx = ctxdata.WithUserID(ctx, user.ID.String())
			ctx = ctxdata.WithUserRole(ctx, user.Role.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose authenticated role does not match.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := ctxdata.GetUserRole(r.Context())
			if !ok || got != role.String() {
				writeAuthError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	_, _ = w.Write(resp)
}
