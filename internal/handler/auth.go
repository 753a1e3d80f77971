package handler

import (
	"net/http"

	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// AuthHandler handles account endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CreateUserRequest represents the create-user endpoint request body
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	IsAuthor bool   `json:"is_author"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsAuthor: u.IsAuthor,
	}
}

// CreateUser handles POST /auth/create-user
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, toUserResponse(user))
}

// TokenResponse represents a login token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /auth/login. Credentials arrive as form fields so
// standard OAuth2 password-flow clients work unchanged.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, model.NewBadRequestError("invalid form body"))
		return
	}

	result, err := h.authService.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	WriteData(w, http.StatusOK, toUserResponse(user))
}

// Profile handles GET /auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	profile, err := h.authService.Profile(r.Context(), user.Username)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, profile)
}

// EditUserRequest represents the edit-user endpoint request body
type EditUserRequest struct {
	Email           string `json:"email,omitempty"`
	Password        string `json:"password,omitempty"`
	PasswordConfirm string `json:"password_confirm,omitempty"`
}

// EditUser handles PATCH /auth/edit-user
func (h *AuthHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req EditUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	err := h.authService.Edit(r.Context(), user.Username, service.EditRequest{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}

// Rights handles GET /auth/rights
func (h *AuthHandler) Rights(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	WriteData(w, http.StatusOK, model.UserRights{
		IsAdmin:  user.IsAdmin,
		IsAuthor: user.IsAuthor,
	})
}
