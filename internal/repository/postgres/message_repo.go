package postgres

import (
	"context"
	"database/sql"

	"mealplanner/internal/domain"
)

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) domain.MessageRepository {
	return &messageRepository{DB: db}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (proposal_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, m.ProposalID, m.UserID, m.Content, m.CreatedAt).Scan(&m.ID)
}

func (r *messageRepository) ListByProposalID(ctx context.Context, proposalID string) ([]*domain.Message, error) {
	query := `
		SELECT id, proposal_id, user_id, content, created_at
		FROM messages
		WHERE proposal_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	messages := make([]*domain.Message, 0)
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.ProposalID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
