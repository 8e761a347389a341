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

type RecipeController struct {
	Logger  *slog.Logger
	Service domain.RecipeService
}

func NewRecipeController(logger *slog.Logger, svc domain.RecipeService) *RecipeController {
	return &RecipeController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *RecipeController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "recipe not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid input")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// RecipeRequest is the request body for creating or updating a recipe.
type RecipeRequest struct {
	Title        string  `json:"title"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
	PrepTime     *int    `json:"prep_time"`
	ActiveTime   *int    `json:"active_time"`
	TotalTime    *int    `json:"total_time"`
	Level        *string `json:"level"`
}

// Validate implements helpers.Validator.
func (r *RecipeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, "title is required")
	}
	return errs
}

// Create godoc
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.RecipeRequest true "Recipe details"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /recipes [post]
func (c *RecipeController) Create(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	recipe, err := c.Service.Create(r.Context(), userID, req.Title, req.Ingredients, req.Instructions, &domain.RecipeUpdate{
		PrepTime:   req.PrepTime,
		ActiveTime: req.ActiveTime,
		TotalTime:  req.TotalTime,
		Level:      req.Level,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, recipe)
}

// Get godoc
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param recipeID path string true "Recipe ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /recipes/{recipeID} [get]
func (c *RecipeController) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := c.Service.GetByID(r.Context(), r.PathValue("recipeID"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipe)
}

// RecipeListResponse pairs one page of recipes with pagination metadata.
type RecipeListResponse struct {
	Recipes    []*domain.Recipe       `json:"recipes"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// List godoc
// @Summary List recipes
// @Description Returns a page of recipes ordered by title. Supports page and page_size query parameters.
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} helpers.APIResponse
// @Router /recipes [get]
func (c *RecipeController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	recipes, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RecipeListResponse{
		Recipes: recipes,
		Pagination: helpers.PaginationMeta{
			Page:       params.Page,
			PageSize:   params.PageSize,
			Total:      total,
			TotalPages: params.TotalPages(total),
		},
	})
}

// UpdateRecipeRequest is the request body for PATCH /recipes/{recipeID}.
// Omitted fields are left unchanged.
type UpdateRecipeRequest struct {
	Title        *string `json:"title"`
	Ingredients  *string `json:"ingredients"`
	Instructions *string `json:"instructions"`
	PrepTime     *int    `json:"prep_time"`
	ActiveTime   *int    `json:"active_time"`
	TotalTime    *int    `json:"total_time"`
	Level        *string `json:"level"`
}

// Validate implements helpers.Validator.
func (r *UpdateRecipeRequest) Validate() []string {
	var errs []string
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	return errs
}

// Update godoc
// @Summary Update a recipe
// @Description Only the author or an admin may update a recipe.
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipeID path string true "Recipe ID"
// @Param body body controllers.UpdateRecipeRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /recipes/{recipeID} [patch]
func (c *RecipeController) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecipeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	recipe, err := c.Service.Update(r.Context(), userID, r.PathValue("recipeID"), &domain.RecipeUpdate{
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		ActiveTime:   req.ActiveTime,
		TotalTime:    req.TotalTime,
		Level:        req.Level,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipe)
}

// Delete godoc
// @Summary Delete a recipe
// @Description Only the author or an admin may delete. Proposals for the recipe are removed with it.
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param recipeID path string true "Recipe ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /recipes/{recipeID} [delete]
func (c *RecipeController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), userID, r.PathValue("recipeID")); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MarkCooked godoc
// @Summary Record that a recipe was cooked
// @Description Increments the recipe's times-cooked counter.
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param recipeID path string true "Recipe ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /recipes/{recipeID}/cooked [post]
func (c *RecipeController) MarkCooked(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	recipe, err := c.Service.MarkCooked(r.Context(), userID, r.PathValue("recipeID"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, recipe)
}
