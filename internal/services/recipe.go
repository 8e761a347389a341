package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealplanner/internal/domain"
)

type recipeService struct {
	recipeRepo     domain.RecipeRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

// NewRecipeService creates a RecipeService with the given repositories.
func NewRecipeService(recipeRepo domain.RecipeRepository, userRepo domain.UserRepository, timeout time.Duration) domain.RecipeService {
	return &recipeService{
		recipeRepo:     recipeRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (s *recipeService) Create(ctx context.Context, actorID, title, ingredients, instructions string, update *domain.RecipeUpdate) (*domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title = strings.TrimSpace(title)
	ingredients = strings.TrimSpace(ingredients)
	instructions = strings.TrimSpace(instructions)
	if title == "" || ingredients == "" || instructions == "" {
		return nil, domain.ErrInvalidInput
	}

	r := domain.NewRecipe(title, ingredients, instructions, &actorID, time.Now())
	if update != nil {
		r.PrepTime = update.PrepTime
		r.ActiveTime = update.ActiveTime
		r.TotalTime = update.TotalTime
		r.Level = update.Level
	}
	if err := s.recipeRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return r, nil
}

func (s *recipeService) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	r, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *recipeService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Recipe, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	recipes, total, err := s.recipeRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	if recipes == nil {
		recipes = []*domain.Recipe{}
	}
	return recipes, total, nil
}

func (s *recipeService) Update(ctx context.Context, actorID, recipeID string, update *domain.RecipeUpdate) (*domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAuthorOrAdmin(ctx, recipeID, actorID); err != nil {
		return nil, err
	}
	updated, err := s.recipeRepo.Update(ctx, recipeID, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return updated, nil
}

func (s *recipeService) Delete(ctx context.Context, actorID, recipeID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAuthorOrAdmin(ctx, recipeID, actorID); err != nil {
		return err
	}
	// Proposals for this recipe (and their participants and messages) go
	// with it via the schema cascade.
	if err := s.recipeRepo.Delete(ctx, recipeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (s *recipeService) MarkCooked(ctx context.Context, actorID, recipeID string) (*domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	updated, err := s.recipeRepo.IncrementTimesCooked(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("increment times cooked: %w", err)
	}
	return updated, nil
}

func (s *recipeService) requireAuthorOrAdmin(ctx context.Context, recipeID, actorID string) error {
	r, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get recipe: %w", err)
	}
	if r.AuthorID != nil && *r.AuthorID == actorID {
		return nil
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get actor: %w", err)
	}
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
