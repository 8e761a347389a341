package domain

import (
	"context"
	"time"
)

// Recipe represents a dish that can be proposed for a meal date.
// swagger:model Recipe
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	AuthorID     *string   `json:"author_id,omitempty"`
	TimesCooked  int       `json:"times_cooked"`
	// Timing fields are minutes; Level is a difficulty like "simple", "medium", "advanced".
	PrepTime   *int    `json:"prep_time,omitempty"`
	ActiveTime *int    `json:"active_time,omitempty"`
	TotalTime  *int    `json:"total_time,omitempty"`
	Level      *string `json:"level,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecipe returns a new Recipe. ID is typically set by the repository on create.
func NewRecipe(title, ingredients, instructions string, authorID *string, createdAt time.Time) *Recipe {
	return &Recipe{
		Title:        title,
		Ingredients:  ingredients,
		Instructions: instructions,
		AuthorID:     authorID,
		CreatedAt:    createdAt,
	}
}

// RecipeUpdate carries the optional fields of a recipe update. Nil fields are left unchanged.
type RecipeUpdate struct {
	Title        *string
	Ingredients  *string
	Instructions *string
	PrepTime     *int
	ActiveTime   *int
	TotalTime    *int
	Level        *string
}

// RecipeRepository defines the interface for recipe storage.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *Recipe) error
	GetByID(ctx context.Context, id string) (*Recipe, error)
	List(ctx context.Context, params PaginationParams) ([]*Recipe, int, error)
	Update(ctx context.Context, id string, update *RecipeUpdate) (*Recipe, error)
	// Delete removes the recipe. Proposals referencing it (and their
	// participants and messages) are removed by the schema cascade.
	Delete(ctx context.Context, id string) error
	IncrementTimesCooked(ctx context.Context, id string) (*Recipe, error)
}

// RecipeService defines recipe authoring and browsing operations.
type RecipeService interface {
	Create(ctx context.Context, actorID, title, ingredients, instructions string, update *RecipeUpdate) (*Recipe, error)
	GetByID(ctx context.Context, id string) (*Recipe, error)
	List(ctx context.Context, params PaginationParams) ([]*Recipe, int, error)
	// Update and Delete are restricted to the recipe author or an admin.
	Update(ctx context.Context, actorID, recipeID string, update *RecipeUpdate) (*Recipe, error)
	Delete(ctx context.Context, actorID, recipeID string) error
	MarkCooked(ctx context.Context, actorID, recipeID string) (*Recipe, error)
}
