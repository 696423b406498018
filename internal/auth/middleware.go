package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the user ID.
type contextKey string

const userIDKey contextKey = "userID"

// UserLookup is the slice of the user repository the middleware needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

var errNoCredentials = errors.New("auth: no credentials provided")

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the Authorization header, validates it, and when
// users is non-nil confirms the account still exists and is active. The user
// ID is stored in the request context. A bad token or a missing/inactive
// account ends the chain with 401 and a WWW-Authenticate challenge; a failed
// lookup (database down) is a 500.
//
// Accepted header forms:
//
//	Authorization: Bearer <token>
//	Authorization: Token <token>
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				message := "Invalid token."
				if errors.Is(err, errNoCredentials) {
					message = "Authentication credentials were not provided."
				}
				unauthorized(w, message)
				return
			}

			if users != nil {
				u, err := users.GetByID(r.Context(), userID)
				switch {
				case errors.Is(err, apperror.ErrNotFound):
					unauthorized(w, "User inactive or deleted.")
					return
				case err != nil:
					slog.Error("auth: looking up token user",
						slog.Int64("userID", userID),
						slog.String("error", err.Error()),
					)
					internalError(w)
					return
				case !u.IsActive:
					unauthorized(w, "User inactive or deleted.")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user's ID.
// Handler tests use it to skip the token round trip.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns (0, false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// extractUserID reads the Authorization header and validates the token.
func extractUserID(r *http.Request, tokens *TokenService) (int64, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return 0, errNoCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return 0, errors.New("auth: malformed authorization header")
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return 0, errNoCredentials
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("auth: empty token")
	}

	return tokens.Validate(token)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

func internalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "internal_error",
		"message": "An internal error occurred",
	})
}
