package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/domain"
)

var recipeCols = []string{"id", "title", "ingredients", "instructions", "author_id", "times_cooked", "prep_time", "active_time", "total_time", "level", "created_at"}

func recipeRow(id string, times int) *sqlmock.Rows {
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(recipeCols).
		AddRow(id, "Lasagna", "pasta, ragu", "layer and bake", "u-alice", times, 30, 45, 90, "medium", createdAt)
}

func TestRecipeRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("scans nullable fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM recipes WHERE id = \$1`).
			WithArgs("r-1").
			WillReturnRows(recipeRow("r-1", 2))

		repo := NewRecipeRepository(db)
		r, err := repo.GetByID(ctx, "r-1")
		require.NoError(t, err)
		require.Equal(t, "Lasagna", r.Title)
		require.Equal(t, 2, r.TimesCooked)
		require.Equal(t, "u-alice", *r.AuthorID)
		require.Equal(t, 30, *r.PrepTime)
		require.Equal(t, "medium", *r.Level)
	})

	t.Run("null optionals stay nil", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(recipeCols).
			AddRow("r-2", "Soup", "water", "boil", nil, 0, nil, nil, nil, nil, createdAt)
		mock.ExpectQuery(`SELECT (.+) FROM recipes WHERE id = \$1`).
			WithArgs("r-2").
			WillReturnRows(rows)

		repo := NewRecipeRepository(db)
		r, err := repo.GetByID(ctx, "r-2")
		require.NoError(t, err)
		require.Nil(t, r.AuthorID)
		require.Nil(t, r.PrepTime)
		require.Nil(t, r.Level)
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM recipes WHERE id = \$1`).
			WithArgs("r-missing").
			WillReturnRows(sqlmock.NewRows(recipeCols))

		repo := NewRecipeRepository(db)
		_, err = repo.GetByID(ctx, "r-missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRecipeRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT (.+)\s+FROM recipes\s+ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(recipeRow("r-3", 0).AddRow("r-4", "Soup", "water", "boil", nil, 0, nil, nil, nil, nil, time.Now()))

	repo := NewRecipeRepository(db)
	recipes, total, err := repo.List(ctx, domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.Len(t, recipes, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates only the provided columns", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE recipes SET title = \$1, prep_time = \$2\s+WHERE id = \$3`).
			WithArgs("Better Lasagna", 25, "r-1").
			WillReturnRows(recipeRow("r-1", 2))

		repo := NewRecipeRepository(db)
		title := "Better Lasagna"
		prep := 25
		_, err = repo.Update(ctx, "r-1", &domain.RecipeUpdate{Title: &title, PrepTime: &prep})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty update fetches the current row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM recipes WHERE id = \$1`).
			WithArgs("r-1").
			WillReturnRows(recipeRow("r-1", 2))

		repo := NewRecipeRepository(db)
		r, err := repo.Update(ctx, "r-1", &domain.RecipeUpdate{})
		require.NoError(t, err)
		require.Equal(t, "Lasagna", r.Title)
	})
}

func TestRecipeRepository_IncrementTimesCooked(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`UPDATE recipes SET times_cooked = times_cooked \+ 1\s+WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(recipeRow("r-1", 3))

	repo := NewRecipeRepository(db)
	r, err := repo.IncrementTimesCooked(ctx, "r-1")
	require.NoError(t, err)
	require.Equal(t, 3, r.TimesCooked)
}

func TestRecipeRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM recipes WHERE id = \$1`).
			WithArgs("r-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRecipeRepository(db)
		require.NoError(t, repo.Delete(ctx, "r-1"))
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM recipes WHERE id = \$1`).
			WithArgs("r-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRecipeRepository(db)
		require.ErrorIs(t, repo.Delete(ctx, "r-missing"), domain.ErrNotFound)
	})
}
