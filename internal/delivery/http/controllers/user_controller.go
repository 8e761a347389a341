package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"mealplanner/internal/delivery/http/helpers"
	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/domain"
)

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// Me godoc
// @Summary Get the current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me [get]
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "profile lookup failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMeRequest is the request body for PATCH /me.
// Omitted fields are left unchanged.
type UpdateMeRequest struct {
	Email             *string `json:"email"`
	Avatar            *string `json:"avatar"`
	Password          *string `json:"password"`
	NotifyNewProposal *bool   `json:"notify_new_proposal"`
	NotifyDiscussion  *bool   `json:"notify_discussion"`
	NotifyBroadcast   *bool   `json:"notify_broadcast"`
}

// Validate implements helpers.Validator.
func (r *UpdateMeRequest) Validate() []string {
	var errs []string
	if r.Email != nil && *r.Email == "" {
		errs = append(errs, "email must not be empty")
	}
	return errs
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Description Partially updates email, avatar, password, and notification preferences.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.UpdateMeRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.UpdateProfile(r.Context(), userID, &domain.UserProfileUpdate{
		Email:             req.Email,
		Avatar:            req.Avatar,
		Password:          req.Password,
		NotifyNewProposal: req.NotifyNewProposal,
		NotifyDiscussion:  req.NotifyDiscussion,
		NotifyBroadcast:   req.NotifyBroadcast,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrDuplicateEmail):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "email already registered")
		default:
			c.Logger.ErrorContext(r.Context(), "profile update failed", "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}
