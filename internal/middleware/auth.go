package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// TokenVerifier defines the interface for token validation
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// UserLoader resolves the account behind a token subject
type UserLoader interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Auth returns a middleware that validates bearer tokens and loads the
// authenticated user into the request context.
func Auth(tokens TokenVerifier, users UserLoader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				model.NewUnauthorizedError("invalid token").WriteJSON(w)
				return
			}

			user, err := users.GetByUsername(r.Context(), claims.Subject)
			if err != nil {
				model.NewUnauthorizedError("unknown account").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

// RequireAdmin rejects requests whose user lacks admin rights. It must
// run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if !user.IsAdmin {
			model.NewForbiddenError("admin rights required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthor rejects requests whose user lacks author rights. It
// must run after Auth.
func RequireAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if !user.IsAuthor && !user.IsAdmin {
			model.NewForbiddenError("author rights required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
