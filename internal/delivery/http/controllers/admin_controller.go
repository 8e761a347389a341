package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mealplanner/internal/delivery/http/helpers"
	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/domain"
)

// AdminController serves the user-management surface. Every handler
// requires the caller to hold the admin flag; the services enforce it.
type AdminController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewAdminController(logger *slog.Logger, svc domain.UserService) *AdminController {
	return &AdminController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *AdminController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "admin access required")
	case errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrDuplicateUsername):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "username already taken")
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "email already registered")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "admin request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// ListUsers godoc
// @Summary List all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/users [get]
func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	users, err := c.Service.AdminListUsers(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

// CreateUserRequest is the request body for POST /admin/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// Validate implements helpers.Validator.
func (r *CreateUserRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, "username is required")
	}
	if !strings.Contains(r.Email, "@") {
		errs = append(errs, "email must be a valid address")
	}
	if r.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// CreateUser godoc
// @Summary Create a user account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateUserRequest true "Account details"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/users [post]
func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	user, err := c.Service.AdminCreateUser(r.Context(), id, req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

// ToggleAdmin godoc
// @Summary Toggle a user's admin flag
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{userID}/toggle_admin [post]
func (c *AdminController) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	user, err := c.Service.AdminToggleAdmin(r.Context(), id, r.PathValue("userID"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// ChangePasswordRequest is the request body for POST /admin/users/{userID}/password.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// Validate implements helpers.Validator.
func (r *ChangePasswordRequest) Validate() []string {
	if r.Password == "" {
		return []string{"password is required"}
	}
	return nil
}

// ChangePassword godoc
// @Summary Set a user's password
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param body body controllers.ChangePasswordRequest true "New password"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{userID}/password [post]
func (c *AdminController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := c.Service.AdminChangePassword(r.Context(), id, r.PathValue("userID"), req.Password); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// DeleteUser godoc
// @Summary Delete a user account
// @Description Removes the user along with their commitments, messages, proposals, and recipes. Admins cannot delete themselves.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{userID}/delete [post]
func (c *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := c.Service.AdminDeleteUser(r.Context(), id, r.PathValue("userID")); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BroadcastRequest is the request body for POST /admin/broadcast.
type BroadcastRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate implements helpers.Validator.
func (r *BroadcastRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		errs = append(errs, "body is required")
	}
	return errs
}

// Broadcast godoc
// @Summary Email all opted-in users
// @Description Sends the message to every user whose broadcast preference is enabled. Delivery is best effort.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.BroadcastRequest true "Subject and body"
// @Success 202 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/broadcast [post]
func (c *AdminController) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := c.Service.AdminBroadcast(r.Context(), id, req.Subject, req.Body); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, map[string]string{"status": "broadcast queued"})
}
