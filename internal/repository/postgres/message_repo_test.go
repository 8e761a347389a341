package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/domain"
)

func TestMessageRepository_Create(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 9, 10, 18, 5, 0, 0, time.UTC)

	t.Run("assigns generated id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO messages`).
			WithArgs("p-1", "u-bob", "I can bring wine", createdAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m-1"))

		repo := NewMessageRepository(db)
		m := &domain.Message{ProposalID: "p-1", UserID: "u-bob", Content: "I can bring wine", CreatedAt: createdAt}
		require.NoError(t, repo.Create(ctx, m))
		require.Equal(t, "m-1", m.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error passes through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO messages`).
			WillReturnError(sql.ErrConnDone)

		repo := NewMessageRepository(db)
		err = repo.Create(ctx, &domain.Message{ProposalID: "p-1", UserID: "u-bob", Content: "hi", CreatedAt: createdAt})
		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestMessageRepository_ListByProposalID(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)

	t.Run("returns rows in query order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "proposal_id", "user_id", "content", "created_at"}).
			AddRow("m-1", "p-1", "u-alice", "Who brings dessert?", base).
			AddRow("m-2", "p-1", "u-bob", "I do", base.Add(time.Minute))
		mock.ExpectQuery(`SELECT (.+)\s+FROM messages`).
			WithArgs("p-1").
			WillReturnRows(rows)

		repo := NewMessageRepository(db)
		messages, err := repo.ListByProposalID(ctx, "p-1")
		require.NoError(t, err)
		require.Len(t, messages, 2)
		require.Equal(t, "Who brings dessert?", messages[0].Content)
		require.Equal(t, "u-bob", messages[1].UserID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no messages yields empty non-nil slice", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+)\s+FROM messages`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "proposal_id", "user_id", "content", "created_at"}))

		repo := NewMessageRepository(db)
		messages, err := repo.ListByProposalID(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, messages)
		require.Empty(t, messages)
	})
}
