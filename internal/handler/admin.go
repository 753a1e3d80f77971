package handler

import (
	"net/http"

	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// AdminHandler handles user administration endpoints
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	users, err := h.adminService.ListUsers(r.Context(), user)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	WriteData(w, http.StatusOK, responses)
}

// UpdateRightsRequest represents the update-user-rights request body
type UpdateRightsRequest struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	IsAuthor bool   `json:"is_author"`
}

// UpdateRights handles POST /admin/update-user-rights
func (h *AdminHandler) UpdateRights(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req UpdateRightsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "username", Message: "username is required"},
		}))
		return
	}

	err := h.adminService.UpdateRights(r.Context(), user, req.Username, model.UserRights{
		IsAdmin:  req.IsAdmin,
		IsAuthor: req.IsAuthor,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}
