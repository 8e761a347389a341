package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mealplanner/internal/domain"
)

type recipeRepository struct {
	DB *sql.DB
}

func NewRecipeRepository(db *sql.DB) domain.RecipeRepository {
	return &recipeRepository{DB: db}
}

const recipeColumns = `id, title, ingredients, instructions, author_id, times_cooked, prep_time, active_time, total_time, level, created_at`

func scanRecipe(row interface{ Scan(...any) error }) (*domain.Recipe, error) {
	r := &domain.Recipe{}
	var authorNull, levelNull sql.NullString
	var prepNull, activeNull, totalNull sql.NullInt64
	err := row.Scan(&r.ID, &r.Title, &r.Ingredients, &r.Instructions, &authorNull, &r.TimesCooked,
		&prepNull, &activeNull, &totalNull, &levelNull, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if authorNull.Valid {
		r.AuthorID = &authorNull.String
	}
	if levelNull.Valid {
		r.Level = &levelNull.String
	}
	if prepNull.Valid {
		v := int(prepNull.Int64)
		r.PrepTime = &v
	}
	if activeNull.Valid {
		v := int(activeNull.Int64)
		r.ActiveTime = &v
	}
	if totalNull.Valid {
		v := int(totalNull.Int64)
		r.TotalTime = &v
	}
	return r, nil
}

func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	query := `
		INSERT INTO recipes (title, ingredients, instructions, author_id, prep_time, active_time, total_time, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var author any
	if recipe.AuthorID != nil {
		author = *recipe.AuthorID
	}
	return r.DB.QueryRowContext(ctx, query,
		recipe.Title, recipe.Ingredients, recipe.Instructions, author,
		nullableInt(recipe.PrepTime), nullableInt(recipe.ActiveTime), nullableInt(recipe.TotalTime),
		nullableString(recipe.Level), recipe.CreatedAt,
	).Scan(&recipe.ID)
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`
	recipe, err := scanRecipe(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Recipe, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	recipes := make([]*domain.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, total, rows.Err()
}

func (r *recipeRepository) Update(ctx context.Context, id string, update *domain.RecipeUpdate) (*domain.Recipe, error) {
	setClauses := []string{}
	args := []any{}
	n := 1
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if update != nil {
		if update.Title != nil {
			add("title", *update.Title)
		}
		if update.Ingredients != nil {
			add("ingredients", *update.Ingredients)
		}
		if update.Instructions != nil {
			add("instructions", *update.Instructions)
		}
		if update.PrepTime != nil {
			add("prep_time", *update.PrepTime)
		}
		if update.ActiveTime != nil {
			add("active_time", *update.ActiveTime)
		}
		if update.TotalTime != nil {
			add("total_time", *update.TotalTime)
		}
		if update.Level != nil {
			add("level", *update.Level)
		}
	}
	if n == 1 {
		// No fields to update; just fetch the current row.
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE recipes SET %s
		WHERE id = $%d
		RETURNING `+recipeColumns, strings.Join(setClauses, ", "), n)
	recipe, err := scanRecipe(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	// Proposals referencing this recipe cascade, which in turn cascades
	// their participants and messages.
	query := `DELETE FROM recipes WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recipeRepository) IncrementTimesCooked(ctx context.Context, id string) (*domain.Recipe, error) {
	query := `
		UPDATE recipes SET times_cooked = times_cooked + 1
		WHERE id = $1
		RETURNING ` + recipeColumns
	recipe, err := scanRecipe(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
