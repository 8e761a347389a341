package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/domain"
)

var proposalCols = []string{"id", "date", "start_time", "recipe_id", "proposer_id", "grocery_user_id", "cook_user_id", "created_at"}

func proposalRow(id string, grocery, cook any) *sqlmock.Rows {
	return sqlmock.NewRows(proposalCols).
		AddRow(id, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), "18:30:00", "r-1", "u-alice", grocery, cook, time.Now())
}

func TestProposalRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success trims start time", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM proposals WHERE id = \$1`).
			WithArgs("p-1").
			WillReturnRows(proposalRow("p-1", nil, nil))

		repo := NewProposalRepository(db)
		p, err := repo.GetByID(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, p.StartTime)
		assert.Equal(t, "18:30", *p.StartTime)
		assert.Nil(t, p.GroceryUserID)
		assert.Nil(t, p.CookUserID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM proposals WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewProposalRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProposalRepository_ToggleDuty(t *testing.T) {
	ctx := context.Background()

	t.Run("claim when unset", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT grocery_user_id FROM proposals WHERE id = \$1 FOR UPDATE`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"grocery_user_id"}).AddRow(nil))
		mock.ExpectQuery(`UPDATE proposals SET grocery_user_id = \$1 WHERE id = \$2 RETURNING`).
			WithArgs("u-bob", "p-1").
			WillReturnRows(proposalRow("p-1", "u-bob", nil))
		mock.ExpectCommit()

		repo := NewProposalRepository(db)
		change, err := repo.ToggleDuty(ctx, "p-1", domain.DutyGrocery, "u-bob")
		require.NoError(t, err)
		assert.Equal(t, domain.DutyClaimed, change.Outcome)
		require.NotNil(t, change.Proposal.GroceryUserID)
		assert.Equal(t, "u-bob", *change.Proposal.GroceryUserID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("release when held by actor", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT cook_user_id FROM proposals WHERE id = \$1 FOR UPDATE`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"cook_user_id"}).AddRow("u-bob"))
		mock.ExpectQuery(`UPDATE proposals SET cook_user_id = \$1 WHERE id = \$2 RETURNING`).
			WithArgs(nil, "p-1").
			WillReturnRows(proposalRow("p-1", nil, nil))
		mock.ExpectCommit()

		repo := NewProposalRepository(db)
		change, err := repo.ToggleDuty(ctx, "p-1", domain.DutyCook, "u-bob")
		require.NoError(t, err)
		assert.Equal(t, domain.DutyUnclaimed, change.Outcome)
		assert.Nil(t, change.Proposal.CookUserID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reject when held by someone else", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT grocery_user_id FROM proposals WHERE id = \$1 FOR UPDATE`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"grocery_user_id"}).AddRow("u-alice"))
		mock.ExpectQuery(`SELECT (.+) FROM proposals WHERE id = \$1`).
			WithArgs("p-1").
			WillReturnRows(proposalRow("p-1", "u-alice", nil))
		mock.ExpectCommit()

		repo := NewProposalRepository(db)
		change, err := repo.ToggleDuty(ctx, "p-1", domain.DutyGrocery, "u-bob")
		require.NoError(t, err)
		assert.Equal(t, domain.DutyRejected, change.Outcome)
		require.NotNil(t, change.HeldBy)
		assert.Equal(t, "u-alice", *change.HeldBy)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown proposal rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT grocery_user_id FROM proposals WHERE id = \$1 FOR UPDATE`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		repo := NewProposalRepository(db)
		_, err = repo.ToggleDuty(ctx, "missing", domain.DutyGrocery, "u-bob")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid kind never touches the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewProposalRepository(db)
		_, err = repo.ToggleDuty(ctx, "p-1", domain.DutyKind("dishes"), "u-bob")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProposalRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM proposals WHERE id = \$1`).
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewProposalRepository(db)
		require.NoError(t, repo.Delete(ctx, "p-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM proposals WHERE id = \$1`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewProposalRepository(db)
		require.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProposalRepository_UpdateStartTime(t *testing.T) {
	ctx := context.Background()

	t.Run("clear passes NULL", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(proposalCols).
			AddRow("p-1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), nil, "r-1", "u-alice", nil, nil, time.Now())
		mock.ExpectQuery(`UPDATE proposals SET start_time = \$1`).
			WithArgs(nil, "p-1").
			WillReturnRows(rows)

		repo := NewProposalRepository(db)
		p, err := repo.UpdateStartTime(ctx, "p-1", nil)
		require.NoError(t, err)
		assert.Nil(t, p.StartTime)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
