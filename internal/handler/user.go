package handler

import (
	"log/slog"
	"net/http"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/service"
)

// UserResponse is the public view of an account. The password (or its
// hash) is never part of it.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued API token.
type TokenResponse struct {
	Token string `json:"token"`
}

type profileRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// UserHandler manages registration, token issuance and the caller's own
// profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleCreate  → POST /api/user/create/   (public)
//   - HandleToken   → POST /api/user/token/    (public)
//   - HandleMe      → GET  /api/user/me/       (authenticated)
//   - HandleUpdateMe / HandlePartialUpdateMe → PUT/PATCH /api/user/me/
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleCreate registers a new user.
//
// HTTP: POST /api/user/create/
// REQUEST BODY: {"email": "test@example.com", "password": "testpass123", "name": "Test"}
// RESPONSE: 201 {"email": "test@example.com", "name": "Test"}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// HandleToken exchanges email and password for an API token.
//
// HTTP: POST /api/user/token/
// RESPONSE: 200 {"token": "..."}; bad credentials are a 400 under
// fields.non_field_errors.
func (h *UserHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/user/me/
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.logger.Warn("HandleMe: user lookup failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// HandleUpdateMe replaces the caller's profile. Email and password are
// required; name is optional.
//
// HTTP: PUT /api/user/me/
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	h.updateMe(w, r, false)
}

// HandlePartialUpdateMe changes only the supplied profile fields.
//
// HTTP: PATCH /api/user/me/
func (h *UserHandler) HandlePartialUpdateMe(w http.ResponseWriter, r *http.Request) {
	h.updateMe(w, r, true)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request, partial bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !partial {
		var fe apperror.FieldErrors
		if req.Email == nil {
			fe.Add("email", "This field is required.")
		}
		if req.Password == nil {
			fe.Add("password", "This field is required.")
		}
		if err := fe.Err(); err != nil {
			writeError(w, err)
			return
		}
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
