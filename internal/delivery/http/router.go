package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"mealplanner/internal/delivery/http/controllers"
	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	recipeController *controllers.RecipeController,
	proposalController *controllers.ProposalController,
	adminController *controllers.AdminController,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier)
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}

	// Auth
	mux.HandleFunc("POST /auth/register", authController.Register)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Profile
	protected("GET /me", userController.Me)
	protected("PATCH /me", userController.UpdateMe)

	// Recipes
	protected("POST /recipes", recipeController.Create)
	protected("GET /recipes", recipeController.List)
	protected("GET /recipes/{recipeID}", recipeController.Get)
	protected("PATCH /recipes/{recipeID}", recipeController.Update)
	protected("DELETE /recipes/{recipeID}", recipeController.Delete)
	protected("POST /recipes/{recipeID}/cooked", recipeController.MarkCooked)

	// Proposals
	protected("POST /proposals", proposalController.Create)
	protected("GET /proposals", proposalController.List)
	protected("GET /proposals/{proposalID}", proposalController.Get)
	protected("POST /proposals/{proposalID}/join", proposalController.Join)
	protected("POST /proposals/{proposalID}/unjoin", proposalController.Leave)
	protected("POST /proposals/{proposalID}/claim_grocery", proposalController.ClaimGrocery)
	protected("POST /proposals/{proposalID}/claim_cook", proposalController.ClaimCook)
	protected("POST /proposals/{proposalID}/start_time", proposalController.ChangeStartTime)
	protected("GET /proposals/{proposalID}/messages", proposalController.Messages)
	protected("POST /proposals/{proposalID}/messages", proposalController.PostMessage)
	protected("POST /proposals/{proposalID}/delete", proposalController.Delete)

	// Admin
	protected("GET /admin/users", adminController.ListUsers)
	protected("POST /admin/users", adminController.CreateUser)
	protected("POST /admin/users/{userID}/toggle_admin", adminController.ToggleAdmin)
	protected("POST /admin/users/{userID}/password", adminController.ChangePassword)
	protected("POST /admin/users/{userID}/delete", adminController.DeleteUser)
	protected("POST /admin/broadcast", adminController.Broadcast)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
