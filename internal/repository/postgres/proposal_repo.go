package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mealplanner/internal/domain"
)

type proposalRepository struct {
	DB *sql.DB
}

func NewProposalRepository(db *sql.DB) domain.ProposalRepository {
	return &proposalRepository{DB: db}
}

const proposalColumns = `id, date, start_time, recipe_id, proposer_id, grocery_user_id, cook_user_id, created_at`

func scanProposal(row interface{ Scan(...any) error }) (*domain.Proposal, error) {
	p := &domain.Proposal{}
	var startNull, groceryNull, cookNull sql.NullString
	err := row.Scan(&p.ID, &p.Date, &startNull, &p.RecipeID, &p.ProposerID, &groceryNull, &cookNull, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if startNull.Valid {
		st := shortTime(startNull.String)
		p.StartTime = &st
	}
	if groceryNull.Valid {
		p.GroceryUserID = &groceryNull.String
	}
	if cookNull.Valid {
		p.CookUserID = &cookNull.String
	}
	return p, nil
}

// shortTime trims a Postgres TIME value ("18:30:00") to "HH:MM".
func shortTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func (r *proposalRepository) Create(ctx context.Context, p *domain.Proposal) error {
	query := `
		INSERT INTO proposals (date, start_time, recipe_id, proposer_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var start any
	if p.StartTime != nil {
		start = *p.StartTime
	}
	return r.DB.QueryRowContext(ctx, query, p.Date, start, p.RecipeID, p.ProposerID, p.CreatedAt).Scan(&p.ID)
}

func (r *proposalRepository) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	p, err := scanProposal(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *proposalRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE date >= $1 AND date <= $2
		ORDER BY date, created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	proposals := make([]*domain.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (r *proposalRepository) UpdateStartTime(ctx context.Context, id string, startTime *string) (*domain.Proposal, error) {
	query := `
		UPDATE proposals SET start_time = $1
		WHERE id = $2
		RETURNING ` + proposalColumns
	var start any
	if startTime != nil {
		start = *startTime
	}
	p, err := scanProposal(r.DB.QueryRowContext(ctx, query, start, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ToggleDuty runs the duty read-decide-write inside one transaction with a
// row-level lock, so two concurrent toggles for the same proposal serialize:
// exactly one claims, the other sees the holder already set.
func (r *proposalRepository) ToggleDuty(ctx context.Context, id string, kind domain.DutyKind, userID string) (*domain.DutyChange, error) {
	column, err := dutyColumn(kind)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockQuery := fmt.Sprintf(`SELECT %s FROM proposals WHERE id = $1 FOR UPDATE`, column)
	var holderNull sql.NullString
	if err := tx.QueryRowContext(ctx, lockQuery, id).Scan(&holderNull); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	// Holder set and not the actor: reject without mutating.
	if holderNull.Valid && holderNull.String != userID {
		selectQuery := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
		p, err := scanProposal(tx.QueryRowContext(ctx, selectQuery, id))
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		heldBy := holderNull.String
		return &domain.DutyChange{Outcome: domain.DutyRejected, Proposal: p, HeldBy: &heldBy}, nil
	}

	// Toggle: actor holds it -> clear; unset -> claim.
	outcome := domain.DutyClaimed
	var newHolder any = userID
	if holderNull.Valid {
		outcome = domain.DutyUnclaimed
		newHolder = nil
	}
	updateQuery := fmt.Sprintf(`UPDATE proposals SET %s = $1 WHERE id = $2 RETURNING `+proposalColumns, column)
	p, err := scanProposal(tx.QueryRowContext(ctx, updateQuery, newHolder, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.DutyChange{Outcome: outcome, Proposal: p}, nil
}

func dutyColumn(kind domain.DutyKind) (string, error) {
	switch kind {
	case domain.DutyGrocery:
		return "grocery_user_id", nil
	case domain.DutyCook:
		return "cook_user_id", nil
	default:
		return "", domain.ErrInvalidInput
	}
}

func (r *proposalRepository) Delete(ctx context.Context, id string) error {
	// Participants and messages reference proposals with ON DELETE CASCADE,
	// so this single statement removes the proposal and its dependents atomically.
	query := `DELETE FROM proposals WHERE id = $1`
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
