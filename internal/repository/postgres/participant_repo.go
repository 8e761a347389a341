package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"mealplanner/internal/domain"
)

// uniqueViolation is the Postgres error code for unique-constraint violations.
const uniqueViolation = "23505"

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{DB: db}
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (user_id, proposal_id, joined_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, p.UserID, p.ProposalID, p.JoinedAt).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			// UNIQUE (user_id, proposal_id): the user is already joined.
			return domain.ErrAlreadyJoined
		}
		return err
	}
	return nil
}

func (r *participantRepository) GetByProposalAndUser(ctx context.Context, proposalID, userID string) (*domain.Participant, error) {
	query := `
		SELECT id, user_id, proposal_id, joined_at
		FROM participants
		WHERE proposal_id = $1 AND user_id = $2
	`
	p := &domain.Participant{}
	err := r.DB.QueryRowContext(ctx, query, proposalID, userID).
		Scan(&p.ID, &p.UserID, &p.ProposalID, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) ListByProposalID(ctx context.Context, proposalID string) ([]*domain.Participant, error) {
	query := `
		SELECT id, user_id, proposal_id, joined_at
		FROM participants
		WHERE proposal_id = $1
		ORDER BY joined_at
	`
	rows, err := r.DB.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p := &domain.Participant{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProposalID, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) ListUsersByProposalID(ctx context.Context, proposalID string) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.is_admin,
		       u.notify_new_proposal, u.notify_discussion, u.notify_broadcast
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.proposal_id = $1
		ORDER BY p.joined_at
	`
	rows, err := r.DB.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		var emailNull sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &emailNull, &u.IsAdmin,
			&u.NotifyNewProposal, &u.NotifyDiscussion, &u.NotifyBroadcast); err != nil {
			return nil, err
		}
		if emailNull.Valid {
			u.Email = emailNull.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *participantRepository) Delete(ctx context.Context, proposalID, userID string) error {
	query := `DELETE FROM participants WHERE proposal_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, proposalID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
